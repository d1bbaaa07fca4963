/*
recommender.go - Cross-card recommendation ranking

PURPOSE:
  Answers "which of my cards should I swipe?" for a hypothetical spend.
  Runs the reward calculator against every card with a transient, never
  persisted expense, converts points to currency through each card's
  redemption partners, and ranks by best achievable value.

VALUE MODEL:
  best value = max( points x card point value,            # direct
                    points x ratio x partner unit value ) # per partner

  A card earning 800 points worth 0.50 each loses to one earning 500
  points transferable at 2.00 per point.

CONCURRENCY:
  Per-card analyses are independent, read-only, and share no mutable
  state, so they fan out in parallel.

SEE ALSO:
  - rewards.go: The calculator each analysis runs
*/
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// headroomWarningPct is the cap headroom below which a warning is surfaced.
var headroomWarningPct = decimal.NewFromInt(20)

// RecommendationRequest describes a hypothetical spend.
type RecommendationRequest struct {
	Amount   decimal.Decimal
	Merchant string
	Category string
	Platform string
	IsOnline *bool

	// Date of the hypothetical spend; zero means now.
	Date time.Time
}

// RedemptionOption is the cash value of one redemption path.
type RedemptionOption struct {
	Partner       string
	TransferRatio decimal.Decimal
	PointValue    decimal.Decimal
	CashValue     decimal.Decimal
}

// CardRecommendation is the result of analyzing one card.
type CardRecommendation struct {
	CardID   CardID
	CardName string
	Bank     string

	TotalPoints decimal.Decimal
	BasePoints  decimal.Decimal
	BonusPoints decimal.Decimal

	BaseMultiplier      decimal.Decimal
	BonusMultiplier     decimal.Decimal
	EffectiveMultiplier decimal.Decimal

	// MatchedRule is the applied rule's label, empty when none matched.
	MatchedRule string
	Breakdown   []string

	BaseCashValue decimal.Decimal
	Options       []RedemptionOption
	BestValue     decimal.Decimal
	BestPartner   string

	IsCapped bool

	// CapHeadroomPct is the percentage of the matched rule's bucket still
	// available, nil when the rule has no bucket.
	CapHeadroomPct *decimal.Decimal
	CapWarning     string

	// Rank is the 1-based position after sorting by BestValue descending.
	Rank int
}

// Recommender fans the calculator out across cards.
type Recommender struct {
	engine *Engine
}

func NewRecommender(engine *Engine) *Recommender {
	return &Recommender{engine: engine}
}

// Recommend analyzes every supplied card for the hypothetical spend and
// returns recommendations ordered by best redemption value descending.
// No cards yields an empty result, not an error.
func (rc *Recommender) Recommend(ctx context.Context, cards []*Card, req RecommendationRequest) ([]*CardRecommendation, error) {
	if len(cards) == 0 {
		return nil, nil
	}

	recs := make([]*CardRecommendation, len(cards))
	g, gctx := errgroup.WithContext(ctx)
	for i, card := range cards {
		i, card := i, card
		g.Go(func() error {
			rec, err := rc.analyzeCard(gctx, card, req)
			if err != nil {
				return err
			}
			recs[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].BestValue.GreaterThan(recs[j].BestValue)
	})
	for i, rec := range recs {
		rec.Rank = i + 1
	}
	return recs, nil
}

func (rc *Recommender) analyzeCard(ctx context.Context, card *Card, req RecommendationRequest) (*CardRecommendation, error) {
	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	platform := req.Platform
	if platform == "" {
		platform = "Direct"
	}

	// Transient expense: simulated, never persisted.
	exp := &Expense{
		CardID:   card.ID,
		Card:     card,
		Amount:   req.Amount,
		Merchant: req.Merchant,
		Category: req.Category,
		Platform: platform,
		IsOnline: req.IsOnline,
		Date:     date,
	}

	result, err := rc.engine.Calculate(ctx, exp)
	if err != nil {
		return nil, err
	}

	rec := &CardRecommendation{
		CardID:      card.ID,
		CardName:    card.Name,
		Bank:        card.Bank,
		TotalPoints: result.TotalPoints,
		BasePoints:  result.BasePoints,
		BonusPoints: result.BonusPoints,
		Breakdown:   result.Breakdown,
		IsCapped:    result.IsCapped,
	}

	if rule := result.AppliedRule; rule != nil {
		rec.MatchedRule = rule.Category
		rec.BaseMultiplier = rule.BaseMultiplier
		rec.BonusMultiplier = rule.BonusMultiplier
		rec.EffectiveMultiplier = rule.CombinedMultiplier()
	}

	rec.BaseCashValue = result.TotalPoints.Mul(card.PointValue)
	rec.Options = redemptionOptions(card, result.TotalPoints)
	rec.BestValue, rec.BestPartner = bestOption(rec.Options)

	headroom, err := rc.capHeadroom(ctx, card, result.AppliedRule, date)
	if err != nil {
		return nil, err
	}
	if headroom != nil {
		rec.CapHeadroomPct = headroom
		if headroom.LessThan(headroomWarningPct) {
			rec.CapWarning = fmt.Sprintf("Warning: Only %s%% cap remaining", headroom.Round(0))
		}
	}
	return rec, nil
}

// redemptionOptions lists every redemption path for the earned points,
// always including direct conversion at the card's point value.
func redemptionOptions(card *Card, totalPoints decimal.Decimal) []RedemptionOption {
	options := []RedemptionOption{{
		Partner:       "Direct Cashback",
		TransferRatio: decimal.NewFromInt(1),
		PointValue:    card.PointValue,
		CashValue:     totalPoints.Mul(card.PointValue),
	}}
	for _, p := range card.Partners {
		transferred := totalPoints.Mul(p.TransferRatio)
		options = append(options, RedemptionOption{
			Partner:       p.Name,
			TransferRatio: p.TransferRatio,
			PointValue:    p.EstimatedValue,
			CashValue:     transferred.Mul(p.EstimatedValue),
		})
	}
	return options
}

func bestOption(options []RedemptionOption) (decimal.Decimal, string) {
	best := options[0]
	for _, opt := range options[1:] {
		if opt.CashValue.GreaterThan(best.CashValue) {
			best = opt
		}
	}
	return best.CashValue, best.Partner
}

// capHeadroom computes the remaining percentage of the matched rule's bucket
// for the period containing date. Nil when the rule is nil, uncapped, or the
// bucket ceiling is not positive.
func (rc *Recommender) capHeadroom(ctx context.Context, card *Card, rule *RewardRule, date time.Time) (*decimal.Decimal, error) {
	if rule == nil || rule.BucketID == "" {
		return nil, nil
	}
	bucket := card.Bucket(rule.BucketID)
	if bucket == nil || !bucket.MaxPoints.IsPositive() {
		return nil, nil
	}

	usage, err := rc.engine.usage.BucketUsage(ctx, bucket.ID, bucket.PeriodFor(date))
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	usedPct := usage.Div(bucket.MaxPoints).Mul(hundred)
	headroom := hundred.Sub(usedPct)
	if headroom.IsNegative() {
		headroom = decimal.Zero
	}
	return &headroom, nil
}
