package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/swipe-engine/engine"
	"github.com/warp/swipe-engine/taxonomy"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func rule(id, category string, base, bonus float64) *engine.RewardRule {
	return &engine.RewardRule{
		ID:              engine.RuleID(id),
		Category:        category,
		BaseMultiplier:  decimal.NewFromFloat(base),
		BonusMultiplier: decimal.NewFromFloat(bonus),
	}
}

func conditional(id, category string, base, bonus float64, conditions map[string]string) *engine.RewardRule {
	r := rule(id, category, base, bonus)
	r.MatchConditions = conditions
	return r
}

func cardWith(rules ...*engine.RewardRule) *engine.Card {
	return &engine.Card{
		ID:    "card-1",
		Name:  "Test Card",
		Rules: rules,
	}
}

func spend(merchant, category, platform string) *engine.Expense {
	return &engine.Expense{
		Amount:   decimal.NewFromInt(1000),
		Merchant: merchant,
		Category: category,
		Platform: platform,
	}
}

// =============================================================================
// SPECIFICITY TESTS
// =============================================================================

func TestBestRule_MerchantBeatsRicherCategory(t *testing.T) {
	// GIVEN: A 10x Dining rule and a 1x rule named after the merchant
	// WHEN: The spend's merchant matches the 1x rule
	// THEN: The merchant rule wins despite the lower multiplier

	card := cardWith(
		rule("dining", "Dining", 10, 0),
		rule("swiggy", "Swiggy", 1, 0),
	)
	exp := spend("Swiggy", "Dining", "Direct")

	best := engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "swiggy" {
		t.Fatalf("expected merchant rule 'swiggy', got %+v", best)
	}
}

func TestBestRule_PlatformWhenNoMerchantMatch(t *testing.T) {
	// GIVEN: A portal rule and a category rule
	// WHEN: The spend went through the portal but the merchant has no rule
	// THEN: The portal rule wins over the category rule

	card := cardWith(
		rule("flights", "Travel - Flights", 3, 0),
		rule("smartbuy", "SmartBuy", 1, 4),
	)
	exp := spend("MakeMyTrip", "Travel - Flights", "SmartBuy")

	best := engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "smartbuy" {
		t.Fatalf("expected platform rule 'smartbuy', got %+v", best)
	}
}

func TestBestRule_CategoryAliasResolves(t *testing.T) {
	// GIVEN: A Utilities rule
	// WHEN: The spend is categorized "Bill Payments" (a Utilities synonym)
	// THEN: The Utilities rule matches through the alias table

	card := cardWith(rule("utils", "Utilities", 2, 0))
	exp := spend("Tata Power", "Bill Payments", "Direct")

	best := engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "utils" {
		t.Fatalf("expected alias match 'utils', got %+v", best)
	}
}

func TestBestRule_CaseInsensitiveMatching(t *testing.T) {
	card := cardWith(rule("dining", "dining", 2, 0))
	exp := spend("Some Bistro", "DINING", "Direct")

	best := engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "dining" {
		t.Fatalf("expected case-insensitive match, got %+v", best)
	}
}

// =============================================================================
// FALLBACK RULE TESTS
// =============================================================================

func TestBestRule_FallbackCompetesByValue(t *testing.T) {
	// GIVEN: A stingy category rule and a generous catch-all rule
	// WHEN: Both are in the candidate pool
	// THEN: The higher combined multiplier wins regardless of which is
	//       the fallback

	card := cardWith(
		rule("groceries", "Groceries", 1, 0),
		rule("catchall", "All Spends", 3, 0),
	)
	exp := spend("BigBasket", "Groceries", "Direct")

	best := engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "catchall" {
		t.Fatalf("expected generous fallback to win, got %+v", best)
	}

	// And the other way around.
	card = cardWith(
		rule("groceries", "Groceries", 5, 0),
		rule("catchall", "All Spends", 1, 0),
	)
	best = engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "groceries" {
		t.Fatalf("expected category rule to win, got %+v", best)
	}
}

func TestBestRule_FallbackOnlyWhenNothingMatches(t *testing.T) {
	// GIVEN: Only a catch-all rule
	// WHEN: The spend matches no specific rule
	// THEN: The catch-all applies

	card := cardWith(rule("base", "Base", 1, 0))
	exp := spend("Random Shop", "Other", "Direct")

	best := engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "base" {
		t.Fatalf("expected fallback rule, got %+v", best)
	}
}

func TestBestRule_NoMatchReturnsNil(t *testing.T) {
	card := cardWith(rule("dining", "Dining", 2, 0))
	exp := spend("HP Petrol Pump", "Fuel", "Direct")

	if best := engine.BestRule(card, exp, taxonomy.Defaults()); best != nil {
		t.Fatalf("expected nil, got %+v", best)
	}
}

// =============================================================================
// ELIGIBILITY TESTS
// =============================================================================

func TestBestRule_TierConditionSelectsRicherRule(t *testing.T) {
	// GIVEN: A universal 1x rule and a prime-only 5x rule on Shopping
	// WHEN: The card holds prime membership
	// THEN: The prime rule wins; without membership the universal rule
	//       is the fallback

	universal := rule("universal", "Shopping", 1, 0)
	prime := conditional("prime", "Shopping", 2, 3, map[string]string{"membership": "prime"})

	card := cardWith(universal, prime)
	card.TierStatus = map[string]string{"membership": "prime"}
	exp := spend("Amazon", "Shopping", "Direct")

	best := engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "prime" {
		t.Fatalf("expected prime rule, got %+v", best)
	}

	card.TierStatus = map[string]string{}
	best = engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "universal" {
		t.Fatalf("expected universal fallback, got %+v", best)
	}
}

func TestBestRule_OnlineCondition(t *testing.T) {
	// GIVEN: A rule requiring an online spend
	// WHEN: The expense is online, offline, or has no flag at all
	// THEN: Only the online spend is eligible; nil flag counts as offline

	online := conditional("online", "Shopping", 5, 0, map[string]string{"is_online": "true"})
	universal := rule("universal", "Shopping", 1, 0)
	card := cardWith(online, universal)

	exp := spend("Amazon", "Shopping", "Direct")
	yes := true
	exp.IsOnline = &yes
	best := engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "online" {
		t.Fatalf("expected online rule for online spend, got %+v", best)
	}

	no := false
	exp.IsOnline = &no
	best = engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "universal" {
		t.Fatalf("expected universal rule for offline spend, got %+v", best)
	}

	exp.IsOnline = nil
	best = engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "universal" {
		t.Fatalf("expected universal rule for unflagged spend, got %+v", best)
	}
}

func TestBestRule_IneligiblePoolWithoutUniversalIsNil(t *testing.T) {
	// GIVEN: Only a conditional rule matches the spend
	// WHEN: Its condition is not met and the pool has no universal rule
	// THEN: No rule applies

	prime := conditional("prime", "Amazon", 5, 0, map[string]string{"membership": "prime"})
	catchall := rule("catchall", "All Spends", 1, 0)
	card := cardWith(prime, catchall)

	// The merchant pool wins the specificity ladder and contains only the
	// ineligible prime rule; the catch-all never enters that pool.
	exp := spend("Amazon", "Shopping", "Direct")
	if best := engine.BestRule(card, exp, taxonomy.Defaults()); best != nil {
		t.Fatalf("expected nil for ineligible merchant pool, got %+v", best)
	}
}

// =============================================================================
// TIE-BREAK TESTS
// =============================================================================

func TestBestRule_TieKeepsFirstEncountered(t *testing.T) {
	// GIVEN: Two eligible rules with identical combined multipliers
	// WHEN: Selecting the best
	// THEN: The first in rule order wins, deterministically

	card := cardWith(
		rule("first", "Dining", 2, 1),
		rule("second", "Dining", 1, 2),
	)
	exp := spend("Some Bistro", "Dining", "Direct")

	best := engine.BestRule(card, exp, taxonomy.Defaults())
	if best == nil || best.ID != "first" {
		t.Fatalf("expected first-encountered rule on tie, got %+v", best)
	}
}

func TestBestRule_NilTaxonomyDegradesToLiteralComparison(t *testing.T) {
	card := cardWith(rule("utils", "Utilities", 2, 0))

	// Without a taxonomy the alias is not resolved.
	exp := spend("Tata Power", "Bill Payments", "Direct")
	if best := engine.BestRule(card, exp, nil); best != nil {
		t.Fatalf("expected nil without alias resolution, got %+v", best)
	}

	exp = spend("Tata Power", "Utilities", "Direct")
	if best := engine.BestRule(card, exp, nil); best == nil || best.ID != "utils" {
		t.Fatalf("expected literal match, got %+v", best)
	}
}
