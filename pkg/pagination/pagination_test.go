package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 4, 10, 30, 0, 123, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedAt: created, ID: "OC-2025-0042"})

	decoded, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, created.Equal(decoded.CreatedAt))
	assert.Equal(t, "OC-2025-0042", decoded.ID)
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	cursor, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	_, err = ParseCursor("%%%")
	assert.Error(t, err)

	_, err = ParseCursor(EncodeCursor(Cursor{CreatedAt: time.Now()}))
	assert.Error(t, err)
}

func TestParseCursorWrapsSentinel(t *testing.T) {
	_, err := ParseCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestTrim(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Cursor{
		{CreatedAt: base.Add(3 * time.Minute), ID: "c"},
		{CreatedAt: base.Add(2 * time.Minute), ID: "b"},
		{CreatedAt: base.Add(time.Minute), ID: "a"},
	}
	identity := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, 2, identity)
	require.Len(t, page, 2)
	assert.Equal(t, EncodeCursor(rows[1]), next)

	page, next = Trim(rows, 5, identity)
	assert.Len(t, page, 3)
	assert.Empty(t, next)
}
