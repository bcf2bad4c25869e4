package vault

import (
	"strconv"
	"strings"
)

// Item mirrors a Bitwarden vault item as emitted by `bw list items`.
type Item struct {
	Object         string       `json:"object"`
	ID             string       `json:"id"`
	OrganizationID *string      `json:"organizationId"`
	FolderID       *string      `json:"folderId"`
	Type           int          `json:"type"`
	Reprompt       int          `json:"reprompt"`
	Name           string       `json:"name"`
	Notes          *string      `json:"notes"`
	Favorite       bool         `json:"favorite"`
	Fields         []Field      `json:"fields,omitempty"`
	Login          *Login       `json:"login,omitempty"`
	CollectionIDs  []string     `json:"collectionIds"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	RevisionDate   string       `json:"revisionDate"`
	CreationDate   string       `json:"creationDate"`
	DeletedDate    *string      `json:"deletedDate"`
}

// Login holds the credential portion of a login item.
type Login struct {
	URIs                 []URI   `json:"uris,omitempty"`
	Username             *string `json:"username"`
	Password             *string `json:"password"`
	TOTP                 *string `json:"totp"`
	PasswordRevisionDate *string `json:"passwordRevisionDate"`
}

// URI is a login URI with its optional match strategy.
type URI struct {
	Match *int   `json:"match"`
	URI   string `json:"uri"`
}

// Field is a custom item field.
type Field struct {
	Name     string  `json:"name"`
	Value    *string `json:"value"`
	Type     int     `json:"type"`
	LinkedID *int    `json:"linkedId"`
}

// Attachment describes one file attached to an item.
type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Size     string `json:"size"`
	SizeName string `json:"sizeName"`
	URL      string `json:"url"`
}

// SizeBytes parses the decimal byte count Bitwarden transmits as a string.
// Unparseable or negative values yield 0.
func (a Attachment) SizeBytes() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(a.Size), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// HasAttachments reports whether the item owns at least one attachment.
func (i Item) HasAttachments() bool {
	return len(i.Attachments) > 0
}

// AttachmentCount sums attachments across items.
func AttachmentCount(items []Item) int {
	total := 0
	for _, item := range items {
		total += len(item.Attachments)
	}
	return total
}
