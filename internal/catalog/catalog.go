package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bwexport/internal/vault"
)

// ErrFetch matches every *FetchError.
var ErrFetch = errors.New("catalog fetch failed")

// FetchError reports a failed or unparseable `bw list items` call.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch vault items: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// Lister is the slice of the vault CLI the fetcher needs.
type Lister interface {
	ListItems(ctx context.Context, session string) ([]byte, error)
}

// Catalog is an immutable snapshot of the vault's items.
type Catalog struct {
	Items []vault.Item
	raw   []byte
}

// New wraps already decoded items. The dump is produced by re-encoding them.
func New(items []vault.Item) *Catalog {
	return &Catalog{Items: items}
}

// Parse decodes a `bw list items` payload.
func Parse(payload []byte) (*Catalog, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("empty item list")
	}
	var items []vault.Item
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("parse item list: %w", err)
	}
	if items == nil {
		items = []vault.Item{}
	}
	return &Catalog{Items: items, raw: append([]byte(nil), trimmed...)}, nil
}

// Fetch lists every item visible to the session.
func Fetch(ctx context.Context, lister Lister, session string) (*Catalog, error) {
	payload, err := lister.ListItems(ctx, session)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	cat, err := Parse(payload)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	return cat, nil
}

// IndentedJSON renders the catalog with two-space indentation and a trailing newline.
func (c *Catalog) IndentedJSON() ([]byte, error) {
	var buf bytes.Buffer
	if len(c.raw) > 0 {
		if err := json.Indent(&buf, c.raw, "", "  "); err != nil {
			return nil, fmt.Errorf("indent catalog: %w", err)
		}
	} else {
		items := c.Items
		if items == nil {
			items = []vault.Item{}
		}
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode catalog: %w", err)
		}
		buf.Write(data)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// AttachmentCount sums attachments across all items.
func (c *Catalog) AttachmentCount() int {
	return vault.AttachmentCount(c.Items)
}
