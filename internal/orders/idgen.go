package orders

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/procurement-backend/pkg/db"
)

const (
	orderIDPrefix = "OC"
	maxIDAttempts = 3
)

// ErrInvalidOrderID is returned when an order id does not follow OC-YYYY-NNNN.
var ErrInvalidOrderID = errors.New("invalid purchase order id")

// nextSequenceSQL bumps the per-year counter. The counter never falls behind
// ids already stored under that year's prefix, so rows written outside the
// counter are skipped over.
func nextSequenceSQL(conn *gorm.DB) string {
	return fmt.Sprintf(`
INSERT INTO purchase_order_sequences (year, last_number)
VALUES (?, COALESCE((SELECT MAX(CAST(SUBSTR(id, 9) AS INTEGER)) FROM purchase_orders WHERE id LIKE ?), 0) + 1)
ON CONFLICT (year) DO UPDATE SET last_number = %s
RETURNING last_number`, db.Greatest(conn, "purchase_order_sequences.last_number + 1", "excluded.last_number"))
}

func yearPrefix(year int) string {
	return fmt.Sprintf("%s-%04d-", orderIDPrefix, year)
}

// FormatOrderID renders an order id. Sequences above 9999 widen instead of
// being truncated.
func FormatOrderID(year, seq int) string {
	return fmt.Sprintf("%s%04d", yearPrefix(year), seq)
}

// ParseOrderSequence extracts the numeric sequence of id for the given year.
func ParseOrderSequence(id string, year int) (int, error) {
	prefix := yearPrefix(year)
	if !strings.HasPrefix(id, prefix) {
		return 0, fmt.Errorf("%w: %q does not start with %q", ErrInvalidOrderID, id, prefix)
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("%w: %q has no numeric sequence", ErrInvalidOrderID, id)
	}
	return seq, nil
}

// NextOrderID derives the id that follows maxExisting, the greatest id
// stored for year. An empty maxExisting starts the year at 0001.
func NextOrderID(year int, maxExisting string) (string, error) {
	if strings.TrimSpace(maxExisting) == "" {
		return FormatOrderID(year, 1), nil
	}
	seq, err := ParseOrderSequence(maxExisting, year)
	if err != nil {
		return "", err
	}
	return FormatOrderID(year, seq+1), nil
}

func isOrderIDCollision(err error) bool {
	return db.IsUniqueViolation(err, "purchase_orders_pkey") || db.IsUniqueViolation(err, "purchase_orders.id")
}
