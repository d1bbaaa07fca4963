/*
seed.go - Demo data loader

PURPOSE:
  Populates an empty database with a realistic three-card setup so the API
  is explorable immediately:
  - A premium points card with a portal bucket, a partner bucket, and
    transfer partners
  - An e-commerce card whose accelerated rules require prime membership
    and online spends
  - A flat-rate cashback card

  Expenses are logged through the service so their points are settled by
  the real calculation path, including the excluded "Rent" spend which
  lands at zero.

IDEMPOTENCY:
  Seeding is skipped when any card already exists.

SEE ALSO:
  - cmd/server/main.go: Invokes Seed behind the -seed flag
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/swipe-engine/engine"
)

// Seed loads the demo cards and a week of spend history. No-op when the
// store already has cards.
func Seed(ctx context.Context, svc *engine.Service, store engine.Store) error {
	existing, err := store.ListCards(ctx)
	if err != nil {
		return fmt.Errorf("seed: list cards: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, card := range demoCards() {
		if err := store.CreateCard(ctx, card); err != nil {
			return fmt.Errorf("seed: create card %s: %w", card.ID, err)
		}
	}

	now := time.Now().UTC()
	online := true
	inputs := []engine.ExpenseInput{
		{
			CardID:   "regalia-gold",
			Amount:   decimal.NewFromInt(850),
			Merchant: "Swiggy",
			Category: "Dining",
			Platform: "Swiggy",
			Date:     now.AddDate(0, 0, -1),
		},
		{
			CardID:   "regalia-gold",
			Amount:   decimal.NewFromInt(12500),
			Merchant: "MakeMyTrip",
			Category: "Travel - Flights",
			Platform: "SmartBuy",
			Date:     now.AddDate(0, 0, -5),
		},
		{
			CardID:   "regalia-gold",
			Amount:   decimal.NewFromInt(2500),
			Merchant: "BigBasket",
			Category: "Groceries",
			Platform: "Direct",
			Date:     now.AddDate(0, 0, -2),
		},
		{
			CardID:   "regalia-gold",
			Amount:   decimal.NewFromInt(35000),
			Merchant: "CRED Rent Pay",
			Category: "Rent",
			Platform: "CRED",
			Date:     now.AddDate(0, 0, -1),
		},
		{
			CardID:   "amazon-ice",
			Amount:   decimal.NewFromInt(15000),
			Merchant: "Amazon",
			Category: "Shopping - Online",
			Platform: "Amazon Pay",
			IsOnline: &online,
			Date:     now.AddDate(0, 0, -3),
		},
		{
			CardID:   "flat-cash",
			Amount:   decimal.NewFromInt(3000),
			Merchant: "HP Petrol Pump",
			Category: "Fuel",
			Platform: "Direct",
			Date:     now.AddDate(0, 0, -4),
		},
	}

	for _, in := range inputs {
		if _, _, err := svc.LogExpense(ctx, in); err != nil {
			return fmt.Errorf("seed: log expense at %s: %w", in.Merchant, err)
		}
	}
	return nil
}

func demoCards() []*engine.Card {
	regalia := &engine.Card{
		ID:         "regalia-gold",
		Name:       "HDFC Regalia Gold",
		Bank:       "HDFC",
		Network:    "Mastercard",
		Currency:   engine.CurrencyPoints,
		PointValue: decimal.NewFromFloat(0.20),
		BillingDay: 15,
	}
	regalia.Buckets = []*engine.CapBucket{
		{
			ID:          "regalia-smartbuy",
			CardID:      regalia.ID,
			Name:        "SmartBuy Monthly",
			MaxPoints:   decimal.NewFromInt(4000),
			Period:      engine.PeriodBillingCycle,
			Scope:       engine.ScopeCategory,
			ResetAnchor: 15,
		},
		{
			ID:          "regalia-partner",
			CardID:      regalia.ID,
			Name:        "Partner/Milestone",
			MaxPoints:   decimal.NewFromInt(10000),
			Period:      engine.PeriodBillingCycle,
			Scope:       engine.ScopeCategory,
			ResetAnchor: 15,
		},
	}
	regalia.Rules = []*engine.RewardRule{
		{
			ID:              "regalia-smartbuy-5x",
			CardID:          regalia.ID,
			Category:        "SmartBuy",
			BaseMultiplier:  decimal.NewFromInt(1),
			BonusMultiplier: decimal.NewFromInt(4),
			BucketID:        "regalia-smartbuy",
		},
		{
			ID:             "regalia-dining-2x",
			CardID:         regalia.ID,
			Category:       "Dining",
			BaseMultiplier: decimal.NewFromInt(2),
		},
		{
			ID:              "regalia-myntra-5x",
			CardID:          regalia.ID,
			Category:        "Myntra",
			BaseMultiplier:  decimal.NewFromInt(1),
			BonusMultiplier: decimal.NewFromInt(4),
			BucketID:        "regalia-partner",
		},
		{
			ID:             "regalia-base-1x",
			CardID:         regalia.ID,
			Category:       "All Spends",
			BaseMultiplier: decimal.NewFromInt(1),
		},
	}
	regalia.Partners = []*engine.RedemptionPartner{
		{
			ID:             "regalia-accor",
			CardID:         regalia.ID,
			Name:           "Accor Hotels",
			TransferRatio:  decimal.NewFromInt(1),
			EstimatedValue: decimal.NewFromFloat(1.80),
		},
		{
			ID:             "regalia-sia",
			CardID:         regalia.ID,
			Name:           "Singapore Airlines",
			TransferRatio:  decimal.NewFromFloat(0.5),
			EstimatedValue: decimal.NewFromInt(1),
		},
	}

	amazonICE := &engine.Card{
		ID:         "amazon-ice",
		Name:       "Amazon Pay ICE",
		Bank:       "ICICI",
		Network:    "Visa",
		Currency:   engine.CurrencyPoints,
		PointValue: decimal.NewFromInt(1),
		BillingDay: 1,
		TierStatus: map[string]string{"membership": "prime"},
	}
	amazonICE.Rules = []*engine.RewardRule{
		{
			ID:              "ice-amazon-prime-5pct",
			CardID:          amazonICE.ID,
			Category:        "Amazon",
			BaseMultiplier:  decimal.NewFromFloat(0.05),
			MatchConditions: map[string]string{"membership": "prime", "is_online": "true"},
		},
		{
			ID:             "ice-base-1pct",
			CardID:         amazonICE.ID,
			Category:       "All Spends",
			BaseMultiplier: decimal.NewFromFloat(0.01),
		},
	}

	flatCash := &engine.Card{
		ID:         "flat-cash",
		Name:       "Flat 1.5% Cashback",
		Bank:       "Axis",
		Network:    "Visa",
		Currency:   engine.CurrencyCashback,
		PointValue: decimal.NewFromInt(1),
		BillingDay: 1,
	}
	flatCash.Rules = []*engine.RewardRule{
		{
			ID:             "flat-all-1.5pct",
			CardID:         flatCash.ID,
			Category:       "All Spends",
			BaseMultiplier: decimal.NewFromFloat(0.015),
		},
	}

	return []*engine.Card{regalia, amazonICE, flatCash}
}
