/*
store.go - External collaborator interfaces

PURPOSE:
  Defines the contracts between the reward engine and its collaborators:
  the record store holding cards and expenses, the usage accumulator it
  exposes for cap accounting, and the category taxonomy.

KEY INTERFACES:
  UsageReader:  Read-only point aggregation over a period (cap accounting)
  CardStore:    Card configuration persistence (eager-loads owned records)
  ExpenseStore: Expense persistence plus usage aggregation
  Taxonomy:     Excluded-category and alias lookups

USAGE CONSISTENCY:
  UsageReader results must reflect whatever expense records exist at call
  time. Implementations must NOT cache across calls within one reward
  calculation - a write may have just occurred.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - engine/store: In-memory store for testing and development
  - taxonomy:     YAML-backed taxonomy with compiled-in defaults

SEE ALSO:
  - rewards.go: Consumes UsageReader and Taxonomy
  - service.go: Consumes the full Store on the write path
*/
package engine

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// USAGE ACCUMULATOR - Read-only aggregation against the expense history
// =============================================================================

// UsageReader sums previously recorded points over an accounting period.
// Results are never negative; no matching records yields zero. Failures are
// reported as *StorageError and must propagate: computing rewards without
// real usage data would silently corrupt cap accounting.
type UsageReader interface {
	// BucketUsage sums points of expenses whose applied rule references
	// bucketID and whose date falls within p.
	BucketUsage(ctx context.Context, bucketID BucketID, p Period) (decimal.Decimal, error)

	// GlobalUsage sums points of ALL expenses for the card within p,
	// regardless of which rule applied.
	GlobalUsage(ctx context.Context, cardID CardID, p Period) (decimal.Decimal, error)
}

// =============================================================================
// RECORD STORE
// =============================================================================

// CardStore persists card configurations. GetCard and ListCards return cards
// with Rules, Buckets, and Partners eagerly loaded, in stable insertion
// order (rule order is the matcher's tie-break).
type CardStore interface {
	GetCard(ctx context.Context, id CardID) (*Card, error)
	ListCards(ctx context.Context) ([]*Card, error)

	// CreateCard persists the card and its owned rules, buckets, and
	// partners in one operation.
	CreateCard(ctx context.Context, card *Card) error

	// DeleteCard removes the card, cascading to its rules, buckets, and
	// partners. Expenses referencing the card survive as history.
	DeleteCard(ctx context.Context, id CardID) error

	AddRule(ctx context.Context, rule *RewardRule) error
	AddBucket(ctx context.Context, bucket *CapBucket) error
	AddPartner(ctx context.Context, partner *RedemptionPartner) error

	// DeleteBucket removes a cap bucket. Rules referencing it are NOT
	// deleted - they become uncapped.
	DeleteBucket(ctx context.Context, id BucketID) error
}

// ExpenseStore persists spend events and answers usage queries over them.
type ExpenseStore interface {
	UsageReader

	AppendExpense(ctx context.Context, exp *Expense) error
	GetExpense(ctx context.Context, id ExpenseID) (*Expense, error)

	// UpdateExpense replaces an existing record. Used only by the explicit
	// edit path, which recomputes points first.
	UpdateExpense(ctx context.Context, exp *Expense) error

	// DeleteExpense removes the record. Historical cap accounting is not
	// recomputed; the usage sums simply stop counting it.
	DeleteExpense(ctx context.Context, id ExpenseID) error

	ListExpenses(ctx context.Context, cardID CardID, p Period) ([]*Expense, error)
}

// Store is the full record store the write path needs.
type Store interface {
	CardStore
	ExpenseStore
}

// =============================================================================
// CATEGORY TAXONOMY
// =============================================================================

// Taxonomy supplies the globally-excluded category set and the alias map
// resolving synonym strings to canonical category names. Implementations
// degrade to built-in defaults rather than fail: reward calculation must
// remain available when auxiliary configuration is unreachable.
type Taxonomy interface {
	// IsExcluded reports whether the category earns zero rewards by
	// policy (rent, insurance, wallet loads, ...).
	IsExcluded(category string) bool

	// Canonical resolves a synonym to its canonical category name,
	// returning the input unchanged when no alias exists.
	Canonical(category string) string
}
