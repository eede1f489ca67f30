// Package pagination implements the keyset page tokens used by the catalog
// and order-history listings. A token pins the (created_at, id) position of
// the last row on a page; the next page resumes strictly after it, so rows
// inserted mid-walk can never shift or duplicate results.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPageSize applies when a request does not name a limit.
	DefaultPageSize = 25
	// MaxPageSize is the ceiling on rows any single page may request.
	MaxPageSize = 100
)

// Params are the raw listing inputs taken from a request.
type Params struct {
	Limit  int
	Cursor string
}

// Token pins the keyset position after the last row of a page.
type Token struct {
	CreatedAt time.Time `json:"created_at"`
	ID        uuid.UUID `json:"id"`
}

// NewToken pins the position after the given row.
func NewToken(createdAt time.Time, id uuid.UUID) Token {
	return Token{CreatedAt: createdAt.UTC(), ID: id}
}

// ClampPageSize applies the default and ceiling page sizes.
func ClampPageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	default:
		return size
	}
}

// FetchSize is the clamped page size plus one row: a full fetch proves a
// further page exists without a second query.
func FetchSize(size int) int {
	return ClampPageSize(size) + 1
}

// Encode renders the token as an opaque URL-safe string.
func (t Token) Encode() string {
	raw, err := json.Marshal(t)
	if err != nil {
		// Token has no unmarshalable fields; this cannot happen.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeToken parses a client-supplied page token. An empty string means the
// first page and yields a nil token.
func DecodeToken(value string) (*Token, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decoding page token: %w", err)
	}

	var t Token
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parsing page token: %w", err)
	}
	if t.CreatedAt.IsZero() || t.ID == uuid.Nil {
		return nil, fmt.Errorf("incomplete page token")
	}
	return &t, nil
}
