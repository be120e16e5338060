package shared

import (
	"fmt"
	"time"
)

// YearMonth identifies one calendar month.
type YearMonth struct {
	Year  int
	Month int
}

// NewYearMonth builds a YearMonth from a timestamp.
func NewYearMonth(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Valid reports whether the month component is within 1..12.
func (ym YearMonth) Valid() bool {
	return ym.Month >= 1 && ym.Month <= 12
}

// Prev returns the calendar month before ym, rolling the year over in January.
func (ym YearMonth) Prev() YearMonth {
	if ym.Month <= 1 {
		return YearMonth{Year: ym.Year - 1, Month: 12}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// FirstDay returns midnight UTC of the first day of the month.
func (ym YearMonth) FirstDay() time.Time {
	return time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns midnight UTC of the last calendar day of the month.
func (ym YearMonth) LastDay() time.Time {
	return time.Date(ym.Year, time.Month(ym.Month)+1, 0, 0, 0, 0, 0, time.UTC)
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// String formats the month as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Label formats the month for page headings, e.g. "February 2024".
func (ym YearMonth) Label() string {
	if !ym.Valid() {
		return ym.String()
	}
	return fmt.Sprintf("%s %d", time.Month(ym.Month).String(), ym.Year)
}
