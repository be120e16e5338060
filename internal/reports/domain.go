package reports

import (
	"time"

	"github.com/hrpanel/hrpanel/internal/months"
	"github.com/hrpanel/hrpanel/internal/payroll"
	"github.com/hrpanel/hrpanel/internal/shared"
	"github.com/hrpanel/hrpanel/internal/snapshots"
)

// Source tells where store management rows came from.
type Source string

const (
	SourceLive    Source = "live"
	SourceArchive Source = "archive"
)

// SalaryView is the salary report page model.
type SalaryView struct {
	Month       shared.YearMonth
	Requested   shared.YearMonth
	Fallback    bool
	Report      payroll.Report
	OpenPeriods []months.Period
}

// StoreView is the store management report page model.
type StoreView struct {
	Month        shared.YearMonth
	Source       Source
	SnapshotDate *time.Time
	Rows         []snapshots.Assignment
	OpenPeriods  []months.Period
}

// Live reports whether rows reflect the current assignments.
func (v StoreView) Live() bool {
	return v.Source == SourceLive
}
