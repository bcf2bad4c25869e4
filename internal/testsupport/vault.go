package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"bwexport/internal/vault"
)

// FetchSpan records when a fake attachment fetch started and ended.
type FetchSpan struct {
	AttachmentID string
	ItemID       string
	Start        time.Time
	End          time.Time
}

// FakeVault is an in-memory stand-in for the bw CLI. It implements every
// capability the export pipeline consumes.
type FakeVault struct {
	LoggedIn   bool
	SessionKey string
	Items      []vault.Item
	// Contents overrides the bytes written for an attachment id.
	Contents map[string][]byte
	// FetchErrors makes GetAttachment fail for the given attachment ids.
	FetchErrors map[string]error
	// SkipWrite makes GetAttachment succeed without writing for the given ids.
	SkipWrite map[string]bool
	// FetchDelay is slept inside every GetAttachment call.
	FetchDelay time.Duration

	CheckErr  error
	LoginErr  error
	UnlockErr error
	ListErr   error
	// ListPayload replaces the marshaled Items when non-nil.
	ListPayload []byte

	mu       sync.Mutex
	calls    []string
	spans    []FetchSpan
	inFlight int
	peak     int
}

// NewFakeVault returns a logged-in vault that unlocks with "session-key".
func NewFakeVault(items ...vault.Item) *FakeVault {
	return &FakeVault{
		LoggedIn:    true,
		SessionKey:  "session-key",
		Items:       items,
		Contents:    map[string][]byte{},
		FetchErrors: map[string]error{},
		SkipWrite:   map[string]bool{},
	}
}

// Item builds a vault item carrying the given attachments.
func Item(id, name string, attachments ...vault.Attachment) vault.Item {
	return vault.Item{
		Object:      "item",
		ID:          id,
		Type:        1,
		Name:        name,
		Attachments: attachments,
	}
}

// Attachment builds attachment metadata with a decimal size string.
func Attachment(id, fileName string, size int64) vault.Attachment {
	return vault.Attachment{
		ID:       id,
		FileName: fileName,
		Size:     strconv.FormatInt(size, 10),
		SizeName: fmt.Sprintf("%d Bytes", size),
		URL:      "https://vault.example.invalid/attachments/" + id,
	}
}

// AttachmentContent is the default payload the fake writes for an attachment.
func AttachmentContent(attachmentID string) []byte {
	return []byte("content of " + attachmentID)
}

func (f *FakeVault) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

// Calls returns the capability names invoked so far, in call order.
func (f *FakeVault) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times the named capability was invoked.
func (f *FakeVault) CallCount(name string) int {
	n := 0
	for _, call := range f.Calls() {
		if call == name {
			n++
		}
	}
	return n
}

// Spans returns the recorded attachment fetches.
func (f *FakeVault) Spans() []FetchSpan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FetchSpan(nil), f.spans...)
}

// PeakConcurrency is the highest number of simultaneous fetches observed.
func (f *FakeVault) PeakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

func (f *FakeVault) CheckLogin(context.Context) (bool, error) {
	f.record("checkLogin")
	if f.CheckErr != nil {
		return false, f.CheckErr
	}
	return f.LoggedIn, nil
}

func (f *FakeVault) Login(context.Context) (string, error) {
	f.record("login")
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	return f.SessionKey, nil
}

func (f *FakeVault) Unlock(context.Context) (string, error) {
	f.record("unlock")
	if f.UnlockErr != nil {
		return "", f.UnlockErr
	}
	return f.SessionKey, nil
}

func (f *FakeVault) ListItems(_ context.Context, session string) ([]byte, error) {
	f.record("listItems")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	if session != f.SessionKey {
		return nil, errors.New("invalid session")
	}
	if f.ListPayload != nil {
		return f.ListPayload, nil
	}
	items := f.Items
	if items == nil {
		items = []vault.Item{}
	}
	return json.Marshal(items)
}

func (f *FakeVault) GetAttachment(ctx context.Context, session, itemID, attachmentID, outputPath string) error {
	f.record("getAttachment")
	span := FetchSpan{AttachmentID: attachmentID, ItemID: itemID, Start: time.Now()}

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	fetchErr := f.FetchErrors[attachmentID]
	skip := f.SkipWrite[attachmentID]
	content, ok := f.Contents[attachmentID]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		span.End = time.Now()
		f.spans = append(f.spans, span)
		f.mu.Unlock()
	}()

	if f.FetchDelay > 0 {
		select {
		case <-time.After(f.FetchDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if session != f.SessionKey {
		return errors.New("invalid session")
	}
	if fetchErr != nil {
		return fetchErr
	}
	if skip {
		return nil
	}
	if !ok {
		content = AttachmentContent(attachmentID)
	}
	return os.WriteFile(outputPath, content, 0o600)
}
