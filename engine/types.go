/*
Package engine provides the credit-card reward calculation core.

PURPOSE:
  This package contains the domain types and algorithms that decide how many
  reward points a transaction earns under a card's configured rule set:
  category multipliers, accelerated bonus rates, shared spending caps, tier
  eligibility, and period-based exclusions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Card: An issuer configuration owning rules, cap buckets, and partners
  - RewardRule: One reward policy line (base + bonus multiplier)
  - CapBucket: A shared points ceiling over an accounting period
  - RedemptionPartner: A transfer program used for value ranking
  - Expense: An immutable-once-settled spend event with its earned points

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing card/rule/bucket IDs
  3. Uniform Results: Business outcomes (no rule, cap hit, excluded) are
     zero-point results with a trace, never errors
  4. Auditability: Every expense records which rule produced its points

USAGE:
  eng := engine.NewEngine(store, taxonomy.Defaults())
  result, err := eng.Calculate(ctx, expense)

SEE ALSO:
  - period.go: Accounting-period bounds calculation
  - matcher.go: Best-rule selection
  - rewards.go: The three-gate calculator
  - recommender.go: Cross-card ranking
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CardID string
type RuleID string
type BucketID string
type PartnerID string
type ExpenseID string

// =============================================================================
// CARD - Issuer configuration
// =============================================================================

// CurrencyType distinguishes point-style cards from single-rate cashback cards.
type CurrencyType string

const (
	CurrencyPoints   CurrencyType = "points"
	CurrencyCashback CurrencyType = "cashback"
)

// Card is a configured credit card. Rules, Buckets, and Partners are owned by
// the card and eagerly loaded by stores; deleting a card cascades to them but
// never to its expenses, which survive as orphaned history.
type Card struct {
	ID       CardID
	Name     string
	Bank     string
	Network  string
	Currency CurrencyType

	// PointValue is currency per point, used for cashback conversion and
	// redemption-value estimation.
	PointValue decimal.Decimal

	// MinSpendPerPoint is the slab divisor: multipliers apply to
	// amount / MinSpendPerPoint. Zero or negative means 1.
	MinSpendPerPoint decimal.Decimal

	// BillingDay is the card's statement anchor (day of month).
	BillingDay int

	// TierStatus holds eligibility state gating conditional rules,
	// e.g. {"membership": "prime"}.
	TierStatus map[string]string

	Rules    []*RewardRule
	Buckets  []*CapBucket
	Partners []*RedemptionPartner
}

// SlabDivisor returns MinSpendPerPoint, defaulting to 1 when unset.
func (c *Card) SlabDivisor() decimal.Decimal {
	if c.MinSpendPerPoint.IsPositive() {
		return c.MinSpendPerPoint
	}
	return decimal.NewFromInt(1)
}

// Bucket returns the owned bucket with the given id, or nil.
func (c *Card) Bucket(id BucketID) *CapBucket {
	for _, b := range c.Buckets {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// =============================================================================
// REWARD RULE - One reward policy line
// =============================================================================

// RewardRule defines how points are earned for spends matching its Category
// label (a merchant, platform, or category name - matching is
// case-insensitive). Multipliers are fractions of a slab: 0.02 = 2%.
type RewardRule struct {
	ID     RuleID
	CardID CardID

	// Category is the label this rule matches against. Besides real
	// categories it may name a merchant ("Amazon"), a platform
	// ("SmartBuy"), or a fallback label ("All Spends").
	Category string

	BaseMultiplier  decimal.Decimal
	BonusMultiplier decimal.Decimal

	// MinSpend is an advertised threshold. It is carried on the rule but
	// not enforced by the matcher.
	MinSpend decimal.Decimal

	// MatchConditions gate eligibility. Every key must equal the card's
	// TierStatus at that key, except the special key "is_online" which
	// compares against the expense's online flag ("true"/"false").
	// Nil or empty means universal.
	MatchConditions map[string]string

	// BucketID links the bonus portion to a shared cap. Empty = uncapped.
	BucketID BucketID
}

// CombinedMultiplier is the rule's total earn rate, used for selection.
func (r *RewardRule) CombinedMultiplier() decimal.Decimal {
	return r.BaseMultiplier.Add(r.BonusMultiplier)
}

// Universal reports whether the rule has no eligibility conditions.
func (r *RewardRule) Universal() bool {
	return len(r.MatchConditions) == 0
}

// =============================================================================
// CAP BUCKET - Shared points ceiling
// =============================================================================

// BucketScope defines what a cap constrains.
type BucketScope string

const (
	// ScopeGlobal caps ALL points earned on the card.
	ScopeGlobal BucketScope = "global"
	// ScopeCategory caps only points attributed to rules referencing
	// this bucket.
	ScopeCategory BucketScope = "category"
)

// CapBucket is a points ceiling that resets per accounting period. Multiple
// rules may reference the same bucket (pooled cap). Deleting a bucket leaves
// its rules uncapped.
type CapBucket struct {
	ID     BucketID
	CardID CardID
	Name   string

	// MaxPoints is the period ceiling. Invariant: never negative.
	MaxPoints decimal.Decimal

	Period PeriodType
	Scope  BucketScope

	// ResetAnchor is the billing day-of-month for billing-cycle periods,
	// or the anchor month for anniversary years. Ignored for quarters
	// and daily periods.
	ResetAnchor int
}

// PeriodFor returns the bucket's accounting period containing ref.
func (b *CapBucket) PeriodFor(ref time.Time) Period {
	return PeriodConfig{Type: b.Period, Anchor: b.ResetAnchor}.PeriodFor(ref)
}

// =============================================================================
// REDEMPTION PARTNER - Transfer program for value ranking
// =============================================================================

// RedemptionPartner describes a points transfer program. Used only for
// value estimation, never for reward calculation.
type RedemptionPartner struct {
	ID     PartnerID
	CardID CardID
	Name   string

	// TransferRatio is partner units issued per card point.
	TransferRatio decimal.Decimal

	// EstimatedValue is currency per partner unit.
	EstimatedValue decimal.Decimal
}

// =============================================================================
// EXPENSE - A spend event
// =============================================================================

// Expense is a single financial transaction. Points are computed and stored
// at creation time; settled expenses are never mutated except through an
// explicit edit, which recomputes them.
type Expense struct {
	ID     ExpenseID
	CardID CardID

	// Card is the loaded owning card. Nil means the expense is not linked
	// to card context (the calculator returns zero points for it).
	Card *Card

	Amount   decimal.Decimal
	Merchant string
	Category string

	// Platform is the payment channel, e.g. a portal name. "Direct" when
	// the spend went straight to the merchant.
	Platform string

	// IsOnline is an optional online/offline flag. Nil is treated as
	// offline by condition matching.
	IsOnline *bool

	Date time.Time

	// PointsEarned is the settled result of calculation.
	PointsEarned decimal.Decimal

	// AppliedRuleID references the rule that produced the points.
	// Empty means no rule matched (zero points).
	AppliedRuleID RuleID

	Notes string
}

// Online resolves the optional flag, defaulting to false.
func (e *Expense) Online() bool {
	return e.IsOnline != nil && *e.IsOnline
}
