package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100

	cursorSeparator = "|"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Params carries the limit and opaque cursor of a list request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page in (created_at, id)
// descending order.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer asks for one extra row so the caller can tell whether a
// next page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

func EncodeCursor(cursor Cursor) string {
	raw := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSeparator + cursor.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor returns nil for a blank value. Malformed input wraps
// ErrInvalidCursor.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	stamp, id, ok := strings.Cut(string(decoded), cursorSeparator)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidCursor)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", ErrInvalidCursor, err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}

// Keyset restricts q to rows strictly after cursor in descending
// (createdCol, idCol) order. A nil cursor leaves q untouched.
func Keyset(q *gorm.DB, createdCol, idCol string, cursor *Cursor) *gorm.DB {
	if cursor == nil {
		return q
	}
	clause := fmt.Sprintf("(%[1]s < ? OR (%[1]s = ? AND %[2]s < ?))", createdCol, idCol)
	return q.Where(clause, cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
}

// Trim cuts a buffered result set down to limit and returns the cursor of
// the last kept row, or "" when rows fit in one page.
func Trim[T any](rows []T, limit int, cursorOf func(T) Cursor) ([]T, string) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, EncodeCursor(cursorOf(rows[limit-1]))
}
