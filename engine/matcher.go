package engine

import (
	"strconv"
	"strings"
)

// =============================================================================
// RULE MATCHER - Selects the single best rule for a transaction
// =============================================================================

// fallbackLabels are the reserved generic labels a card's catch-all rule may
// use. Fallback rules compete with category rules by value, not precedence.
var fallbackLabels = map[string]bool{
	"base":       true,
	"all spends": true,
	"general":    true,
	"any":        true,
}

func isFallbackLabel(category string) bool {
	return fallbackLabels[strings.ToLower(category)]
}

// BestRule selects the rule to apply for an expense, or nil when nothing
// matches (the caller treats nil as zero points).
//
// Selection is specificity-then-value:
//  1. All merchant-name matches; if any exist they ARE the pool.
//  2. Else all platform matches; if any exist they are the pool.
//  3. Else category matches (alias-resolved through the taxonomy) together
//     with fallback-label rules - these compete by value, so a generous
//     category rule beats a stingy fallback and vice versa.
//  4. The pool is filtered by eligibility conditions; if that empties it,
//     only the universal rules of the pool remain in play.
//  5. Highest combined multiplier wins. Ties keep the first-encountered
//     rule, which is deterministic because card rules load in insertion
//     order.
func BestRule(card *Card, exp *Expense, tax Taxonomy) *RewardRule {
	pool := candidatePool(card, exp, tax)
	if len(pool) == 0 {
		return nil
	}

	eligible := pool[:0:0]
	for _, r := range pool {
		if ruleEligible(r, card, exp) {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) == 0 {
		for _, r := range pool {
			if r.Universal() {
				eligible = append(eligible, r)
			}
		}
	}

	var best *RewardRule
	for _, r := range eligible {
		if best == nil || r.CombinedMultiplier().GreaterThan(best.CombinedMultiplier()) {
			best = r
		}
	}
	return best
}

func candidatePool(card *Card, exp *Expense, tax Taxonomy) []*RewardRule {
	var merchant, platform, pool []*RewardRule

	for _, r := range card.Rules {
		if strings.EqualFold(r.Category, exp.Merchant) {
			merchant = append(merchant, r)
		}
	}
	if len(merchant) > 0 {
		return merchant
	}

	for _, r := range card.Rules {
		if strings.EqualFold(r.Category, exp.Platform) {
			platform = append(platform, r)
		}
	}
	if len(platform) > 0 {
		return platform
	}

	// Category comparison goes through the alias table first, so
	// "Bill Payments" and "Bills" resolve to the same canonical name.
	// Without a taxonomy this degrades to a literal comparison.
	want := exp.Category
	if tax != nil {
		want = tax.Canonical(want)
	}
	for _, r := range card.Rules {
		have := r.Category
		if tax != nil {
			have = tax.Canonical(have)
		}
		if strings.EqualFold(have, want) {
			pool = append(pool, r)
			continue
		}
		if isFallbackLabel(r.Category) {
			pool = append(pool, r)
		}
	}
	return pool
}

// ruleEligible checks a rule's conditions against the card's tier status.
// The special key "is_online" compares against the expense's online flag
// instead (nil flag counts as offline).
func ruleEligible(r *RewardRule, card *Card, exp *Expense) bool {
	if r.Universal() {
		return true
	}
	for key, want := range r.MatchConditions {
		if key == "is_online" {
			if want != strconv.FormatBool(exp.Online()) {
				return false
			}
			continue
		}
		if card.TierStatus[key] != want {
			return false
		}
	}
	return true
}
