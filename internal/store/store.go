package store

import (
	"context"
	"time"

	"github.com/emberwell/wellness-backend/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., sqlite, postgres).
//
// Calls that touch more than one record (check-in creation, insight creation
// with source consumption, share creation, state appends, account erasure)
// are single methods so drivers can apply them in one transaction.
type Store interface {
	Users() Users
	CheckIns() CheckIns
	Journals() Journals
	Insights() Insights
	States() States
	Reports() Reports
	Shares() Shares
	Consents() Consents

	// Ping verifies connectivity for health probing.
	Ping(ctx context.Context) error
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	// List returns all accounts ordered by creation time, oldest first.
	// Background sweeps iterate it; the account population is small enough
	// that paging is not worth the interface surface yet.
	List(ctx context.Context) ([]*model.User, error)
	// Delete erases the account and every nested collection. This is the only
	// path allowed to remove check-ins or consent entries.
	Delete(ctx context.Context, userID string) error
}

type CheckIns interface {
	// Create fails with model.ErrConflict when a check-in already exists for
	// (userID, Day). Uniqueness is a write-time constraint, not a lock.
	Create(ctx context.Context, c *model.CheckIn) (*model.CheckIn, error)
	GetByID(ctx context.Context, userID, checkInID string) (*model.CheckIn, error)
	Latest(ctx context.Context, userID string) (*model.CheckIn, error)
	List(ctx context.Context, req model.ListCheckInsRequest) ([]*model.CheckIn, error)
	// ListUnprocessed returns sources not yet consumed by insight generation,
	// oldest first. Low-signal sources are included only when asked for.
	ListUnprocessed(ctx context.Context, userID string, includeLowSignal bool) ([]*model.CheckIn, error)
	Count(ctx context.Context, userID string) (int, error)
}

type Journals interface {
	Create(ctx context.Context, e *model.JournalEntry) (*model.JournalEntry, error)
	GetByID(ctx context.Context, userID, entryID string) (*model.JournalEntry, error)
	List(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error)
	ListUnprocessed(ctx context.Context, userID string, includeLowSignal bool) ([]*model.JournalEntry, error)
}

// ListInsightsRequest captures filters used when listing insights.
type ListInsightsRequest struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

type Insights interface {
	// CreateWithSources inserts the insight and marks every referenced source
	// processed in the same transaction. A crash can never leave an insight
	// without consumed sources or vice versa.
	CreateWithSources(ctx context.Context, ins *model.Insight, sources []model.SourceRef) (*model.Insight, error)
	// MarkLowSignal marks sources processed and low-signal in one transaction,
	// keeping them eligible for a future wider-window pass.
	MarkLowSignal(ctx context.Context, userID string, sources []model.SourceRef) error
	GetByID(ctx context.Context, userID, insightID string) (*model.Insight, error)
	List(ctx context.Context, req ListInsightsRequest) ([]*model.Insight, error)
	Count(ctx context.Context, userID string) (int, error)
}

type States interface {
	// Init creates the singleton exploration-phase record; model.ErrConflict
	// if one already exists.
	Init(ctx context.Context, userID string, at time.Time) (*model.UserState, error)
	Get(ctx context.Context, userID string) (*model.UserState, error)
	// Append applies a transition: phase update and history append happen in
	// one transaction. It is the only mutation path for lifecycle state.
	Append(ctx context.Context, userID string, change model.StateChange) (*model.UserState, error)
}

type Reports interface {
	Create(ctx context.Context, r *model.Report) (*model.Report, error)
	GetByID(ctx context.Context, userID, reportID string) (*model.Report, error)
	List(ctx context.Context, userID string) ([]*model.Report, error)
}

type Shares interface {
	// Create fails with model.ErrConflict when the token already exists
	// system-wide; callers retry with a fresh token.
	Create(ctx context.Context, s *model.ShareRecord) (*model.ShareRecord, error)
	GetByToken(ctx context.Context, token string) (*model.ShareRecord, error)
	GetByID(ctx context.Context, userID, shareID string) (*model.ShareRecord, error)
	List(ctx context.Context, userID, reportID string) ([]*model.ShareRecord, error)
	// Revoke is terminal and idempotent; revoking a revoked share is a no-op.
	Revoke(ctx context.Context, userID, shareID string) error
	AppendAccess(ctx context.Context, shareID string, access model.ShareAccess) error
}

type Consents interface {
	Append(ctx context.Context, e *model.ConsentEntry) error
	List(ctx context.Context, userID string) ([]*model.ConsentEntry, error)
}
