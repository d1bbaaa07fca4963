package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/swipe-engine/engine"
	"github.com/warp/swipe-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fullCard() *engine.Card {
	card := &engine.Card{
		ID:               "test-card",
		Name:             "Test Points Card",
		Bank:             "Test Bank",
		Network:          "Visa",
		Currency:         engine.CurrencyPoints,
		PointValue:       decimal.NewFromFloat(0.25),
		MinSpendPerPoint: decimal.NewFromInt(100),
		BillingDay:       15,
		TierStatus:       map[string]string{"membership": "prime"},
	}
	card.Buckets = []*engine.CapBucket{{
		ID:          "test-bucket",
		CardID:      card.ID,
		Name:        "Portal Monthly",
		MaxPoints:   decimal.NewFromInt(4000),
		Period:      engine.PeriodBillingCycle,
		Scope:       engine.ScopeCategory,
		ResetAnchor: 15,
	}}
	card.Rules = []*engine.RewardRule{
		{
			ID:              "test-portal",
			CardID:          card.ID,
			Category:        "SmartBuy",
			BaseMultiplier:  decimal.NewFromInt(1),
			BonusMultiplier: decimal.NewFromInt(4),
			BucketID:        "test-bucket",
		},
		{
			ID:              "test-online",
			CardID:          card.ID,
			Category:        "Amazon",
			BaseMultiplier:  decimal.NewFromFloat(0.05),
			MatchConditions: map[string]string{"is_online": "true"},
		},
	}
	card.Partners = []*engine.RedemptionPartner{{
		ID:             "test-hotels",
		CardID:         card.ID,
		Name:           "Hotel Transfer",
		TransferRatio:  decimal.NewFromInt(1),
		EstimatedValue: decimal.NewFromFloat(1.8),
	}}
	return card
}

func testExpense(id string, cardID engine.CardID, points int64, ruleID engine.RuleID, date time.Time) *engine.Expense {
	return &engine.Expense{
		ID:            engine.ExpenseID(id),
		CardID:        cardID,
		Amount:        decimal.NewFromInt(1000),
		Merchant:      "Some Bistro",
		Category:      "Dining",
		Platform:      "Direct",
		Date:          date,
		PointsEarned:  decimal.NewFromInt(points),
		AppliedRuleID: ruleID,
	}
}

// =============================================================================
// CARD TESTS
// =============================================================================

func TestCardRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateCard(ctx, fullCard()))

	got, err := store.GetCard(ctx, "test-card")
	require.NoError(t, err)

	assert.Equal(t, "Test Points Card", got.Name)
	assert.Equal(t, "Test Bank", got.Bank)
	assert.Equal(t, engine.CurrencyPoints, got.Currency)
	assert.True(t, got.PointValue.Equal(decimal.NewFromFloat(0.25)))
	assert.True(t, got.MinSpendPerPoint.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 15, got.BillingDay)
	assert.Equal(t, map[string]string{"membership": "prime"}, got.TierStatus)

	require.Len(t, got.Buckets, 1)
	assert.Equal(t, engine.BucketID("test-bucket"), got.Buckets[0].ID)
	assert.True(t, got.Buckets[0].MaxPoints.Equal(decimal.NewFromInt(4000)))
	assert.Equal(t, engine.PeriodBillingCycle, got.Buckets[0].Period)

	require.Len(t, got.Rules, 2)
	assert.Equal(t, engine.RuleID("test-portal"), got.Rules[0].ID)
	assert.Equal(t, engine.BucketID("test-bucket"), got.Rules[0].BucketID)
	assert.Equal(t, map[string]string{"is_online": "true"}, got.Rules[1].MatchConditions)
	assert.Empty(t, got.Rules[1].BucketID)

	require.Len(t, got.Partners, 1)
	assert.True(t, got.Partners[0].EstimatedValue.Equal(decimal.NewFromFloat(1.8)))
}

func TestGetCard_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetCard(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrCardNotFound)
}

func TestCreateCard_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateCard(ctx, fullCard()))
	err := store.CreateCard(ctx, fullCard())
	assert.ErrorIs(t, err, engine.ErrDuplicateID)
}

func TestListCards_PreservesInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := fullCard()
	second := fullCard()
	second.ID = "second-card"
	second.Name = "Second Card"

	require.NoError(t, store.CreateCard(ctx, first))
	require.NoError(t, store.CreateCard(ctx, second))

	cards, err := store.ListCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, engine.CardID("test-card"), cards[0].ID)
	assert.Equal(t, engine.CardID("second-card"), cards[1].ID)
}

func TestDeleteCard_CascadesConfigButKeepsExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateCard(ctx, fullCard()))
	exp := testExpense("exp-1", "test-card", 200, "test-portal", time.Now().UTC())
	require.NoError(t, store.AppendExpense(ctx, exp))

	require.NoError(t, store.DeleteCard(ctx, "test-card"))

	_, err := store.GetCard(ctx, "test-card")
	assert.ErrorIs(t, err, engine.ErrCardNotFound)

	// Expense history survives the card.
	kept, err := store.GetExpense(ctx, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, engine.CardID("test-card"), kept.CardID)
	assert.True(t, kept.PointsEarned.Equal(decimal.NewFromInt(200)))
}

func TestDeleteCard_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteCard(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrCardNotFound)
}

func TestAddRule_RequiresCard(t *testing.T) {
	store := newTestStore(t)

	err := store.AddRule(context.Background(), &engine.RewardRule{
		ID:             "orphan",
		CardID:         "missing",
		Category:       "Dining",
		BaseMultiplier: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, engine.ErrCardNotFound)
}

func TestDeleteBucket_UncapsReferencingRules(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateCard(ctx, fullCard()))
	require.NoError(t, store.DeleteBucket(ctx, "test-bucket"))

	got, err := store.GetCard(ctx, "test-card")
	require.NoError(t, err)
	assert.Empty(t, got.Buckets)
	// The portal rule survives, now uncapped.
	require.Len(t, got.Rules, 2)
	assert.Empty(t, got.Rules[0].BucketID)
}

func TestDeleteBucket_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteBucket(context.Background(), "missing")
	assert.ErrorIs(t, err, engine.ErrBucketNotFound)
}

// =============================================================================
// EXPENSE TESTS
// =============================================================================

func TestExpenseRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	online := true
	exp := testExpense("exp-1", "test-card", 150, "test-portal", time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC))
	exp.IsOnline = &online
	exp.Notes = "team lunch"
	require.NoError(t, store.AppendExpense(ctx, exp))

	got, err := store.GetExpense(ctx, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, "Some Bistro", got.Merchant)
	assert.Equal(t, "team lunch", got.Notes)
	require.NotNil(t, got.IsOnline)
	assert.True(t, *got.IsOnline)
	assert.True(t, got.Date.Equal(exp.Date))
	assert.Equal(t, engine.RuleID("test-portal"), got.AppliedRuleID)
}

func TestUpdateExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exp := testExpense("exp-1", "test-card", 150, "test-portal", time.Now().UTC())
	require.NoError(t, store.AppendExpense(ctx, exp))

	exp.Category = "Fuel"
	exp.PointsEarned = decimal.Zero
	exp.AppliedRuleID = ""
	require.NoError(t, store.UpdateExpense(ctx, exp))

	got, err := store.GetExpense(ctx, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, "Fuel", got.Category)
	assert.True(t, got.PointsEarned.IsZero())
	assert.Empty(t, got.AppliedRuleID)
}

func TestUpdateExpense_NotFound(t *testing.T) {
	store := newTestStore(t)

	exp := testExpense("missing", "test-card", 0, "", time.Now().UTC())
	err := store.UpdateExpense(context.Background(), exp)
	assert.ErrorIs(t, err, engine.ErrExpenseNotFound)
}

func TestDeleteExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-1", "test-card", 150, "", time.Now().UTC())))
	require.NoError(t, store.DeleteExpense(ctx, "exp-1"))

	_, err := store.GetExpense(ctx, "exp-1")
	assert.ErrorIs(t, err, engine.ErrExpenseNotFound)

	err = store.DeleteExpense(ctx, "exp-1")
	assert.ErrorIs(t, err, engine.ErrExpenseNotFound)
}

func TestListExpenses_FiltersByCardAndPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	march := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-march", "test-card", 100, "", march)))
	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-april", "test-card", 100, "", april)))
	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-other", "other-card", 100, "", march)))

	period := engine.Period{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
	}
	got, err := store.ListExpenses(ctx, "test-card", period)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.ExpenseID("exp-march"), got[0].ID)
}

// =============================================================================
// USAGE ACCUMULATOR TESTS
// =============================================================================

func TestBucketUsage_SumsAttributedExpensesInPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateCard(ctx, fullCard()))

	inPeriod := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	outOfPeriod := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)

	// Two attributed spends in period, one out of period, one unattributed.
	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-1", "test-card", 100, "test-portal", inPeriod)))
	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-2", "test-card", 250, "test-portal", inPeriod)))
	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-3", "test-card", 500, "test-portal", outOfPeriod)))
	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-4", "test-card", 999, "", inPeriod)))

	period := engine.Period{
		Start: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 14, 23, 59, 59, 0, time.UTC),
	}
	usage, err := store.BucketUsage(ctx, "test-bucket", period)
	require.NoError(t, err)
	assert.True(t, usage.Equal(decimal.NewFromInt(350)), "got %s", usage)
}

func TestGlobalUsage_SumsAllCardExpensesInPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inPeriod := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-1", "test-card", 100, "test-portal", inPeriod)))
	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-2", "test-card", 999, "", inPeriod)))
	require.NoError(t, store.AppendExpense(ctx, testExpense("exp-3", "other-card", 500, "", inPeriod)))

	period := engine.Period{
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
	}
	usage, err := store.GlobalUsage(ctx, "test-card", period)
	require.NoError(t, err)
	assert.True(t, usage.Equal(decimal.NewFromInt(1099)), "got %s", usage)
}

func TestUsage_EmptyStoreIsZero(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	period := engine.Period{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	usage, err := store.BucketUsage(ctx, "nope", period)
	require.NoError(t, err)
	assert.True(t, usage.IsZero())

	usage, err = store.GlobalUsage(ctx, "nope", period)
	require.NoError(t, err)
	assert.True(t, usage.IsZero())
}
