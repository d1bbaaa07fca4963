// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/swipe-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	cards    map[engine.CardID]*engine.Card
	cardIDs  []engine.CardID // insertion order for ListCards
	expenses map[engine.ExpenseID]*engine.Expense
	expIDs   []engine.ExpenseID
}

func NewMemory() *Memory {
	return &Memory{
		cards:    make(map[engine.CardID]*engine.Card),
		expenses: make(map[engine.ExpenseID]*engine.Expense),
	}
}

var _ engine.Store = (*Memory)(nil)

// -----------------------------------------------------------------------------
// CardStore
// -----------------------------------------------------------------------------

func (m *Memory) GetCard(_ context.Context, id engine.CardID) (*engine.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	card, ok := m.cards[id]
	if !ok {
		return nil, engine.ErrCardNotFound
	}
	return copyCard(card), nil
}

func (m *Memory) ListCards(_ context.Context) ([]*engine.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*engine.Card, 0, len(m.cardIDs))
	for _, id := range m.cardIDs {
		if card, ok := m.cards[id]; ok {
			result = append(result, copyCard(card))
		}
	}
	return result, nil
}

func (m *Memory) CreateCard(_ context.Context, card *engine.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cards[card.ID]; exists {
		return engine.ErrDuplicateID
	}
	m.cards[card.ID] = copyCard(card)
	m.cardIDs = append(m.cardIDs, card.ID)
	return nil
}

// DeleteCard cascades to the card's rules, buckets, and partners (they are
// owned by the card record). Expenses are untouched.
func (m *Memory) DeleteCard(_ context.Context, id engine.CardID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[id]; !ok {
		return engine.ErrCardNotFound
	}
	delete(m.cards, id)
	for i, cid := range m.cardIDs {
		if cid == id {
			m.cardIDs = append(m.cardIDs[:i], m.cardIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) AddRule(_ context.Context, rule *engine.RewardRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[rule.CardID]
	if !ok {
		return engine.ErrCardNotFound
	}
	r := *rule
	card.Rules = append(card.Rules, &r)
	return nil
}

func (m *Memory) AddBucket(_ context.Context, bucket *engine.CapBucket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[bucket.CardID]
	if !ok {
		return engine.ErrCardNotFound
	}
	b := *bucket
	card.Buckets = append(card.Buckets, &b)
	return nil
}

func (m *Memory) AddPartner(_ context.Context, partner *engine.RedemptionPartner) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.cards[partner.CardID]
	if !ok {
		return engine.ErrCardNotFound
	}
	p := *partner
	card.Partners = append(card.Partners, &p)
	return nil
}

// DeleteBucket unlinks referencing rules (they become uncapped) before
// removing the bucket.
func (m *Memory) DeleteBucket(_ context.Context, id engine.BucketID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, card := range m.cards {
		for i, b := range card.Buckets {
			if b.ID != id {
				continue
			}
			for _, r := range card.Rules {
				if r.BucketID == id {
					r.BucketID = ""
				}
			}
			card.Buckets = append(card.Buckets[:i], card.Buckets[i+1:]...)
			return nil
		}
	}
	return engine.ErrBucketNotFound
}

// -----------------------------------------------------------------------------
// ExpenseStore
// -----------------------------------------------------------------------------

func (m *Memory) AppendExpense(_ context.Context, exp *engine.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.expenses[exp.ID]; exists {
		return engine.ErrDuplicateID
	}
	m.expenses[exp.ID] = copyExpense(exp)
	m.expIDs = append(m.expIDs, exp.ID)
	return nil
}

func (m *Memory) GetExpense(_ context.Context, id engine.ExpenseID) (*engine.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exp, ok := m.expenses[id]
	if !ok {
		return nil, engine.ErrExpenseNotFound
	}
	return copyExpense(exp), nil
}

func (m *Memory) UpdateExpense(_ context.Context, exp *engine.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expenses[exp.ID]; !ok {
		return engine.ErrExpenseNotFound
	}
	m.expenses[exp.ID] = copyExpense(exp)
	return nil
}

func (m *Memory) DeleteExpense(_ context.Context, id engine.ExpenseID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expenses[id]; !ok {
		return engine.ErrExpenseNotFound
	}
	delete(m.expenses, id)
	for i, eid := range m.expIDs {
		if eid == id {
			m.expIDs = append(m.expIDs[:i], m.expIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) ListExpenses(_ context.Context, cardID engine.CardID, p engine.Period) ([]*engine.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*engine.Expense
	for _, id := range m.expIDs {
		exp := m.expenses[id]
		if exp.CardID == cardID && p.Contains(exp.Date) {
			result = append(result, copyExpense(exp))
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// -----------------------------------------------------------------------------
// UsageReader
// -----------------------------------------------------------------------------

func (m *Memory) BucketUsage(_ context.Context, bucketID engine.BucketID, p engine.Period) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Rules feeding a bucket may be spread across an entire card; build
	// the rule set first, then sum attributed expenses in range.
	linked := make(map[engine.RuleID]bool)
	for _, card := range m.cards {
		for _, r := range card.Rules {
			if r.BucketID == bucketID {
				linked[r.ID] = true
			}
		}
	}

	total := decimal.Zero
	for _, exp := range m.expenses {
		if exp.AppliedRuleID != "" && linked[exp.AppliedRuleID] && p.Contains(exp.Date) {
			total = total.Add(exp.PointsEarned)
		}
	}
	return total, nil
}

func (m *Memory) GlobalUsage(_ context.Context, cardID engine.CardID, p engine.Period) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	for _, exp := range m.expenses {
		if exp.CardID == cardID && p.Contains(exp.Date) {
			total = total.Add(exp.PointsEarned)
		}
	}
	return total, nil
}

// -----------------------------------------------------------------------------
// COPY HELPERS - Callers must not share mutable state with the store
// -----------------------------------------------------------------------------

func copyCard(c *engine.Card) *engine.Card {
	out := *c
	out.TierStatus = make(map[string]string, len(c.TierStatus))
	for k, v := range c.TierStatus {
		out.TierStatus[k] = v
	}
	out.Rules = make([]*engine.RewardRule, len(c.Rules))
	for i, r := range c.Rules {
		rc := *r
		if r.MatchConditions != nil {
			rc.MatchConditions = make(map[string]string, len(r.MatchConditions))
			for k, v := range r.MatchConditions {
				rc.MatchConditions[k] = v
			}
		}
		out.Rules[i] = &rc
	}
	out.Buckets = make([]*engine.CapBucket, len(c.Buckets))
	for i, b := range c.Buckets {
		bc := *b
		out.Buckets[i] = &bc
	}
	out.Partners = make([]*engine.RedemptionPartner, len(c.Partners))
	for i, p := range c.Partners {
		pc := *p
		out.Partners[i] = &pc
	}
	return &out
}

func copyExpense(e *engine.Expense) *engine.Expense {
	out := *e
	out.Card = nil // stored records never retain the loaded card graph
	if e.IsOnline != nil {
		v := *e.IsOnline
		out.IsOnline = &v
	}
	return &out
}
