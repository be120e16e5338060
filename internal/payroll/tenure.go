package payroll

import (
	"time"

	"github.com/hrpanel/hrpanel/internal/shared"
)

// Tenure counts whole years of service from recruitment to the first day of ym. Years are
// counted by calendar month, so the recruitment day within its month is ignored.
func Tenure(recruitment *time.Time, ym shared.YearMonth) int {
	if recruitment == nil || recruitment.IsZero() {
		return 0
	}
	years := ym.Year - recruitment.Year()
	if ym.Month < int(recruitment.Month()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// ClassifyAnniversary returns the years-of-service bonus kind for ym. Only the recruitment
// month qualifies.
func ClassifyAnniversary(recruitment *time.Time, years int, ym shared.YearMonth) Anniversary {
	if recruitment == nil || int(recruitment.Month()) != ym.Month {
		return AnniversaryNone
	}
	switch {
	case years == 10:
		return AnniversaryTen
	case years == 5:
		return AnniversaryFive
	case years >= 1:
		return AnniversaryYearly
	}
	return AnniversaryNone
}
