package snapshots

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hrpanel/hrpanel/internal/shared"
)

// ErrNoShops is returned when there is nothing to archive.
var ErrNoShops = errors.New("snapshots: no shops to archive")

// MessageAlreadyExists is reported when a month was archived before.
const MessageAlreadyExists = "already exists"

// PositionRefs identifies the posts that mark manager and assistant manager assignments.
type PositionRefs struct {
	ManagerPostID   int64
	AssistantPostID int64
}

// Assignment is one shop with its manager and assistant manager, all values copied as text.
// Manager and assistant fields are nil when nobody holds the post.
type Assignment struct {
	ShopID       int64
	ShopName     string
	ShopLocation string

	ManagerID              *int64
	ManagerName            *string
	ManagerRecruitmentDate *time.Time
	ManagerEndDate         *time.Time
	ManagerRecommender     *string
	ManagerPosition        *string

	AssistantID              *int64
	AssistantName            *string
	AssistantRecruitmentDate *time.Time
	AssistantEndDate         *time.Time
	AssistantPosition        *string
}

// Snapshot is an archived Assignment. Rows are never updated after insert and hold no
// references to the live tables.
type Snapshot struct {
	ID           uuid.UUID
	SnapshotDate time.Time
	Assignment
	CreatedAt time.Time
}

// Result describes the outcome of an archive run.
type Result struct {
	Month        shared.YearMonth
	SnapshotDate time.Time
	Rows         int
	Skipped      bool
	Message      string
}
