/*
rewards.go - The reward calculator

PURPOSE:
  Decides, for one transaction against one card, how many points are earned,
  which rule applied, and whether any cap limited the result.

THE THREE GATES:
  Flow: Exclusion -> Global Cap -> Waterfall

  Why this order?
  - Exclusions first: the user sees "Excluded", not "Cap Hit", for banned
    categories even while a global cap is also exhausted
  - Global caps second: no point calculating if the card's total limit is hit;
    buckets are checked widest period first so the true binding constraint
    (an annual ceiling) is the one reported
  - Waterfall last: find the best rule, compute base + bonus on slabs, and
    squeeze only the bonus against its cap bucket's remaining headroom

RESULT CONTRACT:
  Every RewardResult carries a non-empty, ordered Breakdown explaining which
  gate or rule produced the outcome. It is first-class output suitable for
  direct display, not debug text. Business conditions never raise errors;
  only storage failures propagate.

SEE ALSO:
  - matcher.go: Rule selection inside the waterfall
  - period.go: Bucket period bounds
  - store.go: UsageReader and Taxonomy contracts
*/
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// RewardResult is the standardized output of the calculator.
type RewardResult struct {
	TotalPoints decimal.Decimal
	BasePoints  decimal.Decimal
	BonusPoints decimal.Decimal

	// Breakdown is an ordered log of the decisions taken.
	Breakdown []string

	// IsCapped is true when a cap limited (or zeroed) the result.
	IsCapped bool

	// AppliedRule is the rule the waterfall used, nil when none matched.
	AppliedRule *RewardRule
}

func newRewardResult() *RewardResult {
	return &RewardResult{
		TotalPoints: decimal.Zero,
		BasePoints:  decimal.Zero,
		BonusPoints: decimal.Zero,
	}
}

// Engine runs reward calculations against a usage accumulator and a
// category taxonomy. It is stateless and safe for concurrent use.
type Engine struct {
	usage    UsageReader
	taxonomy Taxonomy
}

func NewEngine(usage UsageReader, tax Taxonomy) *Engine {
	return &Engine{usage: usage, taxonomy: tax}
}

// Calculate runs the three gates for an expense. The only error condition is
// a storage failure from the usage accumulator; every business outcome is a
// zero-or-more-point result with a breakdown.
func (e *Engine) Calculate(ctx context.Context, exp *Expense) (*RewardResult, error) {
	result := newRewardResult()

	if exp.Card == nil {
		result.Breakdown = append(result.Breakdown, "No card linked to transaction.")
		return result, nil
	}
	card := exp.Card

	// GATE 1: Exclusion check. An excluded category earns nothing unless
	// the card carries an explicit override rule for it, in which case
	// that rule is forced through the waterfall.
	excluded, override := e.checkExclusions(card, exp)
	if excluded && override == nil {
		result.Breakdown = append(result.Breakdown,
			fmt.Sprintf("Category '%s' is globally excluded.", exp.Category))
		return result, nil
	}

	// GATE 2: Global cap check, widest period first.
	capHit, capMsg, err := e.checkGlobalCaps(ctx, card, exp)
	if err != nil {
		return nil, err
	}
	if capHit {
		result.Breakdown = append(result.Breakdown, capMsg)
		result.IsCapped = true
		return result, nil
	}

	// GATE 3: Waterfall.
	return e.waterfall(ctx, card, exp, override, result)
}

// checkExclusions reports whether the expense category is globally excluded
// and, if so, whether the card has a per-card override rule for it (exact
// category equality - an override is deliberate configuration, not fuzzy
// matching).
func (e *Engine) checkExclusions(card *Card, exp *Expense) (bool, *RewardRule) {
	if e.taxonomy == nil || !e.taxonomy.IsExcluded(exp.Category) {
		return false, nil
	}
	for _, r := range card.Rules {
		if r.Category == exp.Category {
			return true, r
		}
	}
	return true, nil
}

// checkGlobalCaps walks the card's GLOBAL-scope buckets widest first and
// reports the first exhausted one. GLOBAL buckets always accumulate global
// usage; a CATEGORY scope on a bucket checked here would be a configuration
// error, so scope is not re-consulted.
func (e *Engine) checkGlobalCaps(ctx context.Context, card *Card, exp *Expense) (bool, string, error) {
	var global []*CapBucket
	for _, b := range card.Buckets {
		if b.Scope == ScopeGlobal {
			global = append(global, b)
		}
	}
	sort.SliceStable(global, func(i, j int) bool {
		return PeriodBreadth(global[i].Period) < PeriodBreadth(global[j].Period)
	})

	for _, bucket := range global {
		period := bucket.PeriodFor(exp.Date)
		usage, err := e.usage.GlobalUsage(ctx, card.ID, period)
		if err != nil {
			return false, "", err
		}
		if usage.GreaterThanOrEqual(bucket.MaxPoints) {
			msg := fmt.Sprintf("Global Limit Hit: %s (%s/%s)",
				bucket.Name, usage, bucket.MaxPoints)
			return true, msg, nil
		}
	}
	return false, "", nil
}

// waterfall computes base + bonus on slabs and squeezes the bonus against
// the active rule's cap bucket. Base points are never capped by category
// buckets; only the bonus portion is.
func (e *Engine) waterfall(ctx context.Context, card *Card, exp *Expense, override *RewardRule, result *RewardResult) (*RewardResult, error) {
	active := override
	if active == nil {
		active = BestRule(card, exp, e.taxonomy)
	}
	if active == nil {
		result.Breakdown = append(result.Breakdown, "No matching rule found. 0 points.")
		return result, nil
	}

	result.AppliedRule = active
	result.Breakdown = append(result.Breakdown,
		fmt.Sprintf("Applied Rule: %s (%sx Base + %sx Bonus)",
			active.Category, active.BaseMultiplier, active.BonusMultiplier))

	slabs := exp.Amount.Div(card.SlabDivisor())

	// Single-rate cashback cards earn one combined amount. There is no
	// separable bonus component to squeeze, so bucket caps do not apply
	// on this branch (the global cap gate already ran).
	if card.Currency == CurrencyCashback {
		earned := slabs.Mul(active.CombinedMultiplier())
		result.BasePoints = earned
		result.TotalPoints = earned
		result.Breakdown = append(result.Breakdown,
			fmt.Sprintf("Cashback earned at combined %sx rate: %s", active.CombinedMultiplier(), earned))
		return result, nil
	}

	rawBase := slabs.Mul(active.BaseMultiplier)
	rawBonus := slabs.Mul(active.BonusMultiplier)
	finalBonus := rawBonus

	if active.BucketID != "" {
		if bucket := card.Bucket(active.BucketID); bucket != nil {
			period := bucket.PeriodFor(exp.Date)
			usage, err := e.usage.BucketUsage(ctx, bucket.ID, period)
			if err != nil {
				return nil, err
			}

			remaining := bucket.MaxPoints.Sub(usage)
			if remaining.IsNegative() {
				remaining = decimal.Zero
			}

			if rawBonus.GreaterThan(remaining) {
				finalBonus = remaining
				result.IsCapped = true
				result.Breakdown = append(result.Breakdown,
					fmt.Sprintf("Bonus Capped by '%s': Earned %s (limit hit)", bucket.Name, finalBonus))
			} else {
				result.Breakdown = append(result.Breakdown,
					fmt.Sprintf("Bonus within '%s': %s pts", bucket.Name, rawBonus))
			}
		}
	}

	result.BasePoints = rawBase
	result.BonusPoints = finalBonus
	result.TotalPoints = rawBase.Add(finalBonus)
	return result, nil
}
