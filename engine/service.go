/*
service.go - The write path around the calculator

PURPOSE:
  Ties the calculator to the record store for operations that persist:
  logging a spend (calculate, then store points + applied rule), editing a
  settled expense (recompute), and deleting one.

CONCURRENCY:
  Two simultaneous calculations against the same card can both observe cap
  usage below the ceiling and both be granted the remaining headroom - a
  read-then-write race that oversubscribes the bucket. LogExpense therefore
  holds a per-card mutex across the cap reads and the expense write.
  Read-only operations (Preview, Recommend) take no lock.

HISTORY:
  Cap accounting is immutable-by-design. Edits recompute the edited
  expense's own points against usage at edit time; deletes simply stop the
  record from being counted. Neither reflows other settled expenses.

SEE ALSO:
  - rewards.go: The calculator
  - store.go: The Store contract
*/
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Service exposes the engine's two logical operations plus expense
// persistence to callers (tool/API layers).
type Service struct {
	store  Store
	engine *Engine
	rec    *Recommender

	mu    sync.Mutex
	locks map[CardID]*sync.Mutex
}

func NewService(store Store, tax Taxonomy) *Service {
	eng := NewEngine(store, tax)
	return &Service{
		store:  store,
		engine: eng,
		rec:    NewRecommender(eng),
		locks:  make(map[CardID]*sync.Mutex),
	}
}

// Engine returns the underlying calculator for read-only use.
func (s *Service) Engine() *Engine { return s.engine }

// lockCard serializes reward calculation + write per card.
func (s *Service) lockCard(id CardID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ExpenseInput describes a spend to log or preview.
type ExpenseInput struct {
	CardID   CardID
	Amount   decimal.Decimal
	Merchant string
	Category string
	Platform string
	IsOnline *bool
	Date     time.Time
	Notes    string
}

func (in ExpenseInput) expense(card *Card) *Expense {
	platform := in.Platform
	if platform == "" {
		platform = "Direct"
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return &Expense{
		ID:       nextExpenseID(),
		CardID:   in.CardID,
		Card:     card,
		Amount:   in.Amount,
		Merchant: in.Merchant,
		Category: in.Category,
		Platform: platform,
		IsOnline: in.IsOnline,
		Date:     date,
		Notes:    in.Notes,
	}
}

// LogExpense calculates rewards for the spend and persists it with its
// earned points and applied rule. The per-card lock covers the cap reads
// and the write so concurrent spends cannot oversubscribe a bucket.
func (s *Service) LogExpense(ctx context.Context, in ExpenseInput) (*Expense, *RewardResult, error) {
	card, err := s.store.GetCard(ctx, in.CardID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.lockCard(card.ID)
	defer unlock()

	exp := in.expense(card)
	result, err := s.engine.Calculate(ctx, exp)
	if err != nil {
		return nil, nil, err
	}

	exp.PointsEarned = result.TotalPoints
	if result.AppliedRule != nil {
		exp.AppliedRuleID = result.AppliedRule.ID
	}
	if err := s.store.AppendExpense(ctx, exp); err != nil {
		return nil, nil, err
	}
	return exp, result, nil
}

// Preview runs the calculator without persisting anything.
func (s *Service) Preview(ctx context.Context, in ExpenseInput) (*RewardResult, error) {
	card, err := s.store.GetCard(ctx, in.CardID)
	if err != nil {
		return nil, err
	}
	return s.engine.Calculate(ctx, in.expense(card))
}

// Recommend ranks every stored card for a hypothetical spend.
func (s *Service) Recommend(ctx context.Context, req RecommendationRequest) ([]*CardRecommendation, error) {
	cards, err := s.store.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	return s.rec.Recommend(ctx, cards, req)
}

// ExpensePatch carries the fields an edit may change. Nil fields are left
// untouched.
type ExpensePatch struct {
	Amount   *decimal.Decimal
	Merchant *string
	Category *string
	Platform *string
	IsOnline *bool
	Date     *time.Time
	Notes    *string
}

// EditExpense applies the patch and recomputes the expense's points against
// current usage. Other settled expenses are never reflowed.
func (s *Service) EditExpense(ctx context.Context, id ExpenseID, patch ExpensePatch) (*Expense, *RewardResult, error) {
	exp, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	card, err := s.store.GetCard(ctx, exp.CardID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.lockCard(card.ID)
	defer unlock()

	if patch.Amount != nil {
		exp.Amount = *patch.Amount
	}
	if patch.Merchant != nil {
		exp.Merchant = *patch.Merchant
	}
	if patch.Category != nil {
		exp.Category = *patch.Category
	}
	if patch.Platform != nil {
		exp.Platform = *patch.Platform
	}
	if patch.IsOnline != nil {
		exp.IsOnline = patch.IsOnline
	}
	if patch.Date != nil {
		exp.Date = patch.Date.UTC()
	}
	if patch.Notes != nil {
		exp.Notes = *patch.Notes
	}

	exp.Card = card
	result, err := s.engine.Calculate(ctx, exp)
	if err != nil {
		return nil, nil, err
	}
	exp.PointsEarned = result.TotalPoints
	exp.AppliedRuleID = ""
	if result.AppliedRule != nil {
		exp.AppliedRuleID = result.AppliedRule.ID
	}

	if err := s.store.UpdateExpense(ctx, exp); err != nil {
		return nil, nil, err
	}
	return exp, result, nil
}

// DeleteExpense removes the record. Usage sums stop counting it from the
// next calculation on.
func (s *Service) DeleteExpense(ctx context.Context, id ExpenseID) error {
	return s.store.DeleteExpense(ctx, id)
}

// =============================================================================
// ID GENERATION
// =============================================================================

var expenseSeq atomic.Int64

func nextExpenseID() ExpenseID {
	return ExpenseID(fmt.Sprintf("exp-%d-%04d", time.Now().UTC().UnixNano(), expenseSeq.Add(1)))
}
