package db

import (
	"fmt"

	"gorm.io/gorm"
)

// MonthBucket returns an SQL expression rendering column as YYYY-MM.
func MonthBucket(conn *gorm.DB, column string) string {
	if Dialect(conn) == DriverPostgres {
		return fmt.Sprintf("to_char(%s, 'YYYY-MM')", column)
	}
	return fmt.Sprintf("strftime('%%Y-%%m', %s)", column)
}

// HoursBetween returns an SQL expression for the hours elapsed from start to end.
func HoursBetween(conn *gorm.DB, start, end string) string {
	if Dialect(conn) == DriverPostgres {
		return fmt.Sprintf("EXTRACT(EPOCH FROM (%s - %s)) / 3600.0", end, start)
	}
	return fmt.Sprintf("(julianday(%s) - julianday(%s)) * 24.0", end, start)
}

// DateOf truncates a timestamp column to its calendar date.
func DateOf(conn *gorm.DB, column string) string {
	if Dialect(conn) == DriverPostgres {
		return fmt.Sprintf("CAST(%s AS DATE)", column)
	}
	return fmt.Sprintf("date(%s)", column)
}

// Greatest returns an SQL expression for the larger of a and b.
func Greatest(conn *gorm.DB, a, b string) string {
	if Dialect(conn) == DriverPostgres {
		return fmt.Sprintf("GREATEST(%s, %s)", a, b)
	}
	return fmt.Sprintf("MAX(%s, %s)", a, b)
}
