package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"bwexport/internal/attachments"
	"bwexport/internal/catalog"
	"bwexport/internal/download"
	"bwexport/internal/history"
	"bwexport/internal/logging"
	"bwexport/internal/session"
	"bwexport/internal/testsupport"
	"bwexport/internal/vault"
)

const testSessionEnv = "BWEXPORT_TEST_SESSION"

func twoItemVault() *testsupport.FakeVault {
	return testsupport.NewFakeVault(
		testsupport.Item("A", "Item A",
			testsupport.Attachment("a1", "a.txt", 4),
			testsupport.Attachment("a2", "b.txt", 6),
		),
		testsupport.Item("B", "Item B",
			testsupport.Attachment("b1", "a.txt", 8),
		),
		testsupport.Item("C", "No attachments"),
	)
}

func newExporter(t *testing.T, fake *testsupport.FakeVault, opts ...Option) *Exporter {
	t.Helper()
	t.Setenv(testSessionEnv, "")
	base := []Option{
		WithLogger(logging.NewNop()),
		WithSessionEnv(testSessionEnv),
		WithTerminalCheck(func() bool { return true }),
	}
	e, err := New(fake, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

type memoryRecorder struct {
	runs     []history.Run
	outcomes [][]history.Outcome
	err      error
}

func (m *memoryRecorder) RecordRun(_ context.Context, run history.Run, outcomes []history.Outcome) error {
	m.runs = append(m.runs, run)
	m.outcomes = append(m.outcomes, outcomes)
	return m.err
}

func TestRunExportsItemsAndAttachments(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	fake := twoItemVault()
	recorder := &memoryRecorder{}
	e := newExporter(t, fake, WithRecorder(recorder))

	result, err := e.Run(context.Background(), Options{Destination: dest, MaxParallel: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, rel := range []string{"A/a.txt", "A/b.txt", "B/a.txt"} {
		if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}
	if got := testsupport.ReadFile(t, filepath.Join(dest, "B", "a.txt")); string(got) != string(testsupport.AttachmentContent("b1")) {
		t.Fatalf("B/a.txt has wrong content: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dest, "C")); !os.IsNotExist(err) {
		t.Fatalf("item without attachments should not get a directory: %v", err)
	}

	data := testsupport.ReadFile(t, filepath.Join(dest, "items.json"))
	if !strings.HasPrefix(string(data), "[\n  {") || !strings.HasSuffix(string(data), "\n") {
		t.Fatalf("catalog is not two-space indented: %q", data[:min(len(data), 20)])
	}
	var items []vault.Item
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(items) != 3 || items[0].ID != "A" || items[2].ID != "C" {
		t.Fatalf("catalog does not hold every item: %+v", items)
	}

	if result.Items != 3 || result.Attachments != 3 {
		t.Fatalf("unexpected counts: items=%d attachments=%d", result.Items, result.Attachments)
	}
	if result.SessionSource != session.SourceUnlock {
		t.Fatalf("expected unlock, got %s", result.SessionSource)
	}
	if result.Report.Batches != 2 || result.Report.Count(download.StatusDownloaded) != 3 {
		t.Fatalf("unexpected report: batches=%d downloaded=%d", result.Report.Batches, result.Report.Count(download.StatusDownloaded))
	}
	if result.RunID == "" || result.CatalogPath != filepath.Join(dest, "items.json") {
		t.Fatalf("unexpected result: %+v", result)
	}

	calls := fake.Calls()
	if len(calls) < 3 || calls[0] != "checkLogin" || calls[1] != "unlock" || calls[2] != "listItems" {
		t.Fatalf("unexpected call order: %v", calls)
	}
	if fake.CallCount("checkLogin") != 1 {
		t.Fatalf("expected a single login check, got %d", fake.CallCount("checkLogin"))
	}

	if len(recorder.runs) != 1 {
		t.Fatalf("expected one recorded run, got %d", len(recorder.runs))
	}
	run := recorder.runs[0]
	if run.ID != result.RunID || run.Verdict != history.VerdictSuccess || run.Downloaded != 3 || run.Bytes != 18 {
		t.Fatalf("unexpected history run: %+v", run)
	}
	if len(recorder.outcomes[0]) != 3 || recorder.outcomes[0][2].AttachmentID != "b1" {
		t.Fatalf("unexpected history outcomes: %+v", recorder.outcomes[0])
	}
	testsupport.AssertNoStagingFiles(t, dest)
}

func TestRunIsIdempotent(t *testing.T) {
	dest := t.TempDir()
	fake := twoItemVault()
	e := newExporter(t, fake)

	if _, err := e.Run(context.Background(), Options{Destination: dest, MaxParallel: 3}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	catalogPath := filepath.Join(dest, "items.json")
	if err := os.WriteFile(catalogPath, []byte("stale"), 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := e.Run(context.Background(), Options{Destination: dest, MaxParallel: 3})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := result.Report.Count(download.StatusSkipped); got != 3 {
		t.Fatalf("expected every attachment skipped, got %d", got)
	}
	if fake.CallCount("getAttachment") != 3 {
		t.Fatalf("expected no fetches on the second run, got %d total", fake.CallCount("getAttachment"))
	}
	if got := testsupport.ReadFile(t, catalogPath); string(got) == "stale" {
		t.Fatal("catalog should be rewritten on every run")
	}
}

func TestRunLogsInWhenLoggedOut(t *testing.T) {
	fake := twoItemVault()
	fake.LoggedIn = false
	result, err := newExporter(t, fake).Run(context.Background(), Options{Destination: t.TempDir(), MaxParallel: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SessionSource != session.SourceLogin || fake.CallCount("unlock") != 0 {
		t.Fatalf("expected login path, got %s (calls %v)", result.SessionSource, fake.Calls())
	}
}

func TestRunReusesSessionFromEnvironment(t *testing.T) {
	fake := twoItemVault()
	e := newExporter(t, fake)
	t.Setenv(testSessionEnv, fake.SessionKey)

	result, err := e.Run(context.Background(), Options{Destination: t.TempDir(), MaxParallel: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SessionSource != session.SourceEnv {
		t.Fatalf("expected env source, got %s", result.SessionSource)
	}
	if fake.CallCount("checkLogin")+fake.CallCount("unlock")+fake.CallCount("login") != 0 {
		t.Fatalf("no session commands expected, got %v", fake.Calls())
	}
}

func TestRunSessionFailureLeavesNoOutput(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	fake := twoItemVault()
	fake.UnlockErr = errors.New("wrong master password")
	recorder := &memoryRecorder{}

	_, err := newExporter(t, fake, WithRecorder(recorder)).Run(context.Background(), Options{Destination: dest, MaxParallel: 2})
	if !errors.Is(err, session.ErrAcquisition) {
		t.Fatalf("expected acquisition error, got %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("destination should not be created: %v", statErr)
	}
	if fake.CallCount("listItems") != 0 {
		t.Fatal("catalog should not be fetched without a session")
	}
	if len(recorder.runs) != 1 || recorder.runs[0].Verdict != history.VerdictFailed {
		t.Fatalf("expected failed run in history, got %+v", recorder.runs)
	}
}

func TestRunCatalogFailure(t *testing.T) {
	fake := twoItemVault()
	fake.ListPayload = []byte("not json")

	_, err := newExporter(t, fake).Run(context.Background(), Options{Destination: t.TempDir(), MaxParallel: 2})
	if !errors.Is(err, catalog.ErrFetch) {
		t.Fatalf("expected catalog fetch error, got %v", err)
	}
}

func TestRunDuplicateNamesFailBeforeDownloads(t *testing.T) {
	dest := t.TempDir()
	fake := testsupport.NewFakeVault(
		testsupport.Item("A", "Item A",
			testsupport.Attachment("a1", "same.txt", 1),
			testsupport.Attachment("a2", "same.txt", 1),
		),
	)

	_, err := newExporter(t, fake).Run(context.Background(), Options{Destination: dest, MaxParallel: 2})
	if !errors.Is(err, attachments.ErrDuplicateAttachmentName) {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
	if fake.CallCount("getAttachment") != 0 {
		t.Fatal("no attachment should be fetched")
	}
	if _, statErr := os.Stat(filepath.Join(dest, "items.json")); statErr != nil {
		t.Fatalf("catalog is written before extraction: %v", statErr)
	}
}

func TestRunDownloadFailure(t *testing.T) {
	dest := t.TempDir()
	fake := twoItemVault()
	fake.FetchErrors["a2"] = errors.New("exit status 1")
	recorder := &memoryRecorder{}

	result, err := newExporter(t, fake, WithRecorder(recorder)).Run(context.Background(), Options{Destination: dest, MaxParallel: 2})
	var dlErr *download.AttachmentDownloadError
	if !errors.As(err, &dlErr) || dlErr.AttachmentID != "a2" || dlErr.FileName != "b.txt" {
		t.Fatalf("expected download error for a2, got %v", err)
	}
	if result.Report.Batches != 1 || fake.CallCount("getAttachment") != 2 {
		t.Fatalf("later batches should not run: batches=%d fetches=%d", result.Report.Batches, fake.CallCount("getAttachment"))
	}
	run := recorder.runs[0]
	if run.Verdict != history.VerdictFailed || run.Failed != 1 || !strings.Contains(run.Error, "a2") {
		t.Fatalf("unexpected history run: %+v", run)
	}
}

func TestRunRefusesLockedDestination(t *testing.T) {
	dest := t.TempDir()
	holder := flock.New(filepath.Join(dest, LockFileName))
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("hold lock: locked=%v err=%v", locked, err)
	}
	t.Cleanup(func() { _ = holder.Unlock() })

	fake := twoItemVault()
	_, err = newExporter(t, fake).Run(context.Background(), Options{Destination: dest, MaxParallel: 2})
	if !errors.Is(err, ErrDestinationLocked) {
		t.Fatalf("expected ErrDestinationLocked, got %v", err)
	}
	if fake.CallCount("getAttachment") != 0 {
		t.Fatal("no attachment should be fetched while locked")
	}
}

func TestRunHistoryFailureDoesNotFailExport(t *testing.T) {
	recorder := &memoryRecorder{err: errors.New("disk full")}
	_, err := newExporter(t, twoItemVault(), WithRecorder(recorder)).Run(context.Background(), Options{Destination: t.TempDir(), MaxParallel: 2})
	if err != nil {
		t.Fatalf("history failure should be ignored: %v", err)
	}
}

func TestRunRecordsIntoSQLiteHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	result, err := newExporter(t, twoItemVault(), WithRecorder(store)).Run(context.Background(), Options{Destination: cfg.Export.Destination, MaxParallel: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	run, err := store.GetRun(context.Background(), result.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: run=%v err=%v", run, err)
	}
	outcomes, err := store.Outcomes(context.Background(), result.RunID)
	if err != nil || len(outcomes) != 3 {
		t.Fatalf("Outcomes: %d err=%v", len(outcomes), err)
	}
}

func TestRunValidatesOptions(t *testing.T) {
	e := newExporter(t, twoItemVault())
	if _, err := e.Run(context.Background(), Options{MaxParallel: 1}); err == nil {
		t.Fatal("expected error for empty destination")
	}
	if _, err := e.Run(context.Background(), Options{Destination: t.TempDir()}); err == nil {
		t.Fatal("expected error for zero max parallel")
	}
}

func TestCustomCatalogFile(t *testing.T) {
	dest := t.TempDir()
	if _, err := newExporter(t, twoItemVault(), WithCatalogFile("vault.json")).Run(context.Background(), Options{Destination: dest, MaxParallel: 2}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "vault.json")); err != nil {
		t.Fatalf("expected custom catalog file: %v", err)
	}
}

type countingObserver struct {
	mu      sync.Mutex
	total   int
	bytes   int64
	settled int
}

func (c *countingObserver) AttachmentsQueued(total int, declaredBytes int64) {
	c.total, c.bytes = total, declaredBytes
}

func (c *countingObserver) AttachmentSettled(download.Outcome) {
	c.mu.Lock()
	c.settled++
	c.mu.Unlock()
}

func TestRunNotifiesObserver(t *testing.T) {
	observer := &countingObserver{}
	if _, err := newExporter(t, twoItemVault(), WithObserver(observer)).Run(context.Background(), Options{Destination: t.TempDir(), MaxParallel: 2}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if observer.total != 3 || observer.bytes != 18 || observer.settled != 3 {
		t.Fatalf("unexpected observer state: %+v", observer)
	}
}
