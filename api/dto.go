/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMBERS:
  Monetary and point values travel as JSON numbers (float64) on the wire
  and are converted to decimal.Decimal at the boundary. All arithmetic
  inside the engine is decimal; floats exist only for serialization.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: The domain model these map from
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/swipe-engine/engine"
)

// =============================================================================
// CARD TYPES
// =============================================================================

// CardDTO represents a card with its owned configuration.
type CardDTO struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Bank             string        `json:"bank"`
	Network          string        `json:"network"`
	Currency         string        `json:"currency"`
	PointValue       float64       `json:"point_value"`
	MinSpendPerPoint float64       `json:"min_spend_per_point"`
	BillingDay       int           `json:"billing_day"`
	TierStatus       map[string]string `json:"tier_status,omitempty"`
	Rules            []RuleDTO     `json:"rules"`
	Buckets          []BucketDTO   `json:"buckets"`
	Partners         []PartnerDTO  `json:"partners"`
}

// RuleDTO represents a reward rule.
type RuleDTO struct {
	ID              string            `json:"id"`
	Category        string            `json:"category"`
	BaseMultiplier  float64           `json:"base_multiplier"`
	BonusMultiplier float64           `json:"bonus_multiplier"`
	MinSpend        float64           `json:"min_spend,omitempty"`
	MatchConditions map[string]string `json:"match_conditions,omitempty"`
	BucketID        string            `json:"bucket_id,omitempty"`
}

// BucketDTO represents a cap bucket.
// BucketUsageDTO reports a cap bucket's consumption for the period
// containing the requested reference date.
type BucketUsageDTO struct {
	BucketID    string  `json:"bucket_id"`
	Name        string  `json:"name"`
	Scope       string  `json:"scope"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	MaxPoints   float64 `json:"max_points"`
	UsedPoints  float64 `json:"used_points"`
	Remaining   float64 `json:"remaining"`
}

type CardUsageDTO struct {
	CardID  string           `json:"card_id"`
	AsOf    string           `json:"as_of"`
	Buckets []BucketUsageDTO `json:"buckets"`
}

type BucketDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MaxPoints   float64 `json:"max_points"`
	Period      string  `json:"period"`
	Scope       string  `json:"scope"`
	ResetAnchor int     `json:"reset_anchor"`
}

// PartnerDTO represents a redemption partner.
type PartnerDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	TransferRatio  float64 `json:"transfer_ratio"`
	EstimatedValue float64 `json:"estimated_value"`
}

// CreateCardRequest is the request to create a card with its full
// configuration in one call.
type CreateCardRequest struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Bank             string            `json:"bank"`
	Network          string            `json:"network"`
	Currency         string            `json:"currency"`
	PointValue       float64           `json:"point_value"`
	MinSpendPerPoint float64           `json:"min_spend_per_point"`
	BillingDay       int               `json:"billing_day"`
	TierStatus       map[string]string `json:"tier_status"`
	Rules            []RuleDTO         `json:"rules"`
	Buckets          []BucketDTO       `json:"buckets"`
	Partners         []PartnerDTO      `json:"partners"`
}

// =============================================================================
// EXPENSE TYPES
// =============================================================================

// ExpenseDTO represents a settled expense.
type ExpenseDTO struct {
	ID            string  `json:"id"`
	CardID        string  `json:"card_id"`
	Amount        float64 `json:"amount"`
	Merchant      string  `json:"merchant"`
	Category      string  `json:"category"`
	Platform      string  `json:"platform"`
	IsOnline      *bool   `json:"is_online,omitempty"`
	Date          string  `json:"date"`
	PointsEarned  float64 `json:"points_earned"`
	AppliedRuleID string  `json:"applied_rule_id,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// LogExpenseRequest is the request to record a spend.
type LogExpenseRequest struct {
	CardID   string  `json:"card_id"`
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
	Category string  `json:"category"`
	Platform string  `json:"platform"`
	IsOnline *bool   `json:"is_online"`
	Date     string  `json:"date"`
	Notes    string  `json:"notes"`
}

// PatchExpenseRequest carries partial updates; absent fields are untouched.
type PatchExpenseRequest struct {
	Amount   *float64 `json:"amount"`
	Merchant *string  `json:"merchant"`
	Category *string  `json:"category"`
	Platform *string  `json:"platform"`
	IsOnline *bool    `json:"is_online"`
	Date     *string  `json:"date"`
	Notes    *string  `json:"notes"`
}

// LogExpenseResponse pairs the stored expense with its calculation trace.
type LogExpenseResponse struct {
	Expense ExpenseDTO      `json:"expense"`
	Reward  RewardResultDTO `json:"reward"`
}

// =============================================================================
// CALCULATION TYPES
// =============================================================================

// RewardResultDTO is a calculation outcome with its audit trail.
type RewardResultDTO struct {
	TotalPoints float64  `json:"total_points"`
	BasePoints  float64  `json:"base_points"`
	BonusPoints float64  `json:"bonus_points"`
	Breakdown   []string `json:"breakdown"`
	IsCapped    bool     `json:"is_capped"`
	AppliedRule string   `json:"applied_rule,omitempty"`
}

// RecommendRequest asks which card to swipe for a hypothetical spend.
type RecommendRequest struct {
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
	Category string  `json:"category"`
	Platform string  `json:"platform"`
	IsOnline *bool   `json:"is_online"`
	Date     string  `json:"date"`
}

// RedemptionOptionDTO is one valuation path for earned points.
type RedemptionOptionDTO struct {
	Partner       string  `json:"partner"`
	TransferRatio float64 `json:"transfer_ratio"`
	PointValue    float64 `json:"point_value"`
	CashValue     float64 `json:"cash_value"`
}

// RecommendationDTO is one ranked card in a recommendation response.
type RecommendationDTO struct {
	Rank                int                   `json:"rank"`
	CardID              string                `json:"card_id"`
	CardName            string                `json:"card_name"`
	Bank                string                `json:"bank"`
	TotalPoints         float64               `json:"total_points"`
	BasePoints          float64               `json:"base_points"`
	BonusPoints         float64               `json:"bonus_points"`
	BaseMultiplier      float64               `json:"base_multiplier"`
	BonusMultiplier     float64               `json:"bonus_multiplier"`
	EffectiveMultiplier float64               `json:"effective_multiplier"`
	MatchedRule         string                `json:"matched_rule,omitempty"`
	Breakdown           []string              `json:"breakdown"`
	BaseCashValue       float64               `json:"base_cash_value"`
	Options             []RedemptionOptionDTO `json:"redemption_options"`
	BestValue           float64               `json:"best_value"`
	BestPartner         string                `json:"best_partner,omitempty"`
	IsCapped            bool                  `json:"is_capped"`
	CapHeadroomPct      *float64              `json:"cap_headroom_pct,omitempty"`
	CapWarning          string                `json:"cap_warning,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func cardToDTO(c *engine.Card) CardDTO {
	dto := CardDTO{
		ID:               string(c.ID),
		Name:             c.Name,
		Bank:             c.Bank,
		Network:          c.Network,
		Currency:         string(c.Currency),
		PointValue:       c.PointValue.InexactFloat64(),
		MinSpendPerPoint: c.SlabDivisor().InexactFloat64(),
		BillingDay:       c.BillingDay,
		TierStatus:       c.TierStatus,
		Rules:            make([]RuleDTO, 0, len(c.Rules)),
		Buckets:          make([]BucketDTO, 0, len(c.Buckets)),
		Partners:         make([]PartnerDTO, 0, len(c.Partners)),
	}
	for _, r := range c.Rules {
		dto.Rules = append(dto.Rules, RuleDTO{
			ID:              string(r.ID),
			Category:        r.Category,
			BaseMultiplier:  r.BaseMultiplier.InexactFloat64(),
			BonusMultiplier: r.BonusMultiplier.InexactFloat64(),
			MinSpend:        r.MinSpend.InexactFloat64(),
			MatchConditions: r.MatchConditions,
			BucketID:        string(r.BucketID),
		})
	}
	for _, b := range c.Buckets {
		dto.Buckets = append(dto.Buckets, BucketDTO{
			ID:          string(b.ID),
			Name:        b.Name,
			MaxPoints:   b.MaxPoints.InexactFloat64(),
			Period:      string(b.Period),
			Scope:       string(b.Scope),
			ResetAnchor: b.ResetAnchor,
		})
	}
	for _, p := range c.Partners {
		dto.Partners = append(dto.Partners, PartnerDTO{
			ID:             string(p.ID),
			Name:           p.Name,
			TransferRatio:  p.TransferRatio.InexactFloat64(),
			EstimatedValue: p.EstimatedValue.InexactFloat64(),
		})
	}
	return dto
}

func cardFromRequest(req CreateCardRequest) *engine.Card {
	cardID := engine.CardID(req.ID)
	card := &engine.Card{
		ID:               cardID,
		Name:             req.Name,
		Bank:             req.Bank,
		Network:          req.Network,
		Currency:         engine.CurrencyType(req.Currency),
		PointValue:       decimal.NewFromFloat(req.PointValue),
		MinSpendPerPoint: decimal.NewFromFloat(req.MinSpendPerPoint),
		BillingDay:       req.BillingDay,
		TierStatus:       req.TierStatus,
	}
	for _, b := range req.Buckets {
		card.Buckets = append(card.Buckets, &engine.CapBucket{
			ID:          engine.BucketID(b.ID),
			CardID:      cardID,
			Name:        b.Name,
			MaxPoints:   decimal.NewFromFloat(b.MaxPoints),
			Period:      engine.PeriodType(b.Period),
			Scope:       engine.BucketScope(b.Scope),
			ResetAnchor: b.ResetAnchor,
		})
	}
	for _, r := range req.Rules {
		card.Rules = append(card.Rules, ruleFromDTO(cardID, r))
	}
	for _, p := range req.Partners {
		card.Partners = append(card.Partners, &engine.RedemptionPartner{
			ID:             engine.PartnerID(p.ID),
			CardID:         cardID,
			Name:           p.Name,
			TransferRatio:  decimal.NewFromFloat(p.TransferRatio),
			EstimatedValue: decimal.NewFromFloat(p.EstimatedValue),
		})
	}
	return card
}

func ruleFromDTO(cardID engine.CardID, r RuleDTO) *engine.RewardRule {
	return &engine.RewardRule{
		ID:              engine.RuleID(r.ID),
		CardID:          cardID,
		Category:        r.Category,
		BaseMultiplier:  decimal.NewFromFloat(r.BaseMultiplier),
		BonusMultiplier: decimal.NewFromFloat(r.BonusMultiplier),
		MinSpend:        decimal.NewFromFloat(r.MinSpend),
		MatchConditions: r.MatchConditions,
		BucketID:        engine.BucketID(r.BucketID),
	}
}

func expenseToDTO(e *engine.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:            string(e.ID),
		CardID:        string(e.CardID),
		Amount:        e.Amount.InexactFloat64(),
		Merchant:      e.Merchant,
		Category:      e.Category,
		Platform:      e.Platform,
		IsOnline:      e.IsOnline,
		Date:          e.Date.UTC().Format(time.RFC3339),
		PointsEarned:  e.PointsEarned.InexactFloat64(),
		AppliedRuleID: string(e.AppliedRuleID),
		Notes:         e.Notes,
	}
}

func resultToDTO(r *engine.RewardResult) RewardResultDTO {
	dto := RewardResultDTO{
		TotalPoints: r.TotalPoints.InexactFloat64(),
		BasePoints:  r.BasePoints.InexactFloat64(),
		BonusPoints: r.BonusPoints.InexactFloat64(),
		Breakdown:   r.Breakdown,
		IsCapped:    r.IsCapped,
	}
	if r.AppliedRule != nil {
		dto.AppliedRule = string(r.AppliedRule.ID)
	}
	return dto
}

func recommendationToDTO(rec *engine.CardRecommendation) RecommendationDTO {
	dto := RecommendationDTO{
		Rank:                rec.Rank,
		CardID:              string(rec.CardID),
		CardName:            rec.CardName,
		Bank:                rec.Bank,
		TotalPoints:         rec.TotalPoints.InexactFloat64(),
		BasePoints:          rec.BasePoints.InexactFloat64(),
		BonusPoints:         rec.BonusPoints.InexactFloat64(),
		BaseMultiplier:      rec.BaseMultiplier.InexactFloat64(),
		BonusMultiplier:     rec.BonusMultiplier.InexactFloat64(),
		EffectiveMultiplier: rec.EffectiveMultiplier.InexactFloat64(),
		MatchedRule:         rec.MatchedRule,
		Breakdown:           rec.Breakdown,
		BaseCashValue:       rec.BaseCashValue.InexactFloat64(),
		BestValue:           rec.BestValue.InexactFloat64(),
		BestPartner:         rec.BestPartner,
		IsCapped:            rec.IsCapped,
		CapWarning:          rec.CapWarning,
	}
	if rec.CapHeadroomPct != nil {
		v := rec.CapHeadroomPct.InexactFloat64()
		dto.CapHeadroomPct = &v
	}
	for _, o := range rec.Options {
		dto.Options = append(dto.Options, RedemptionOptionDTO{
			Partner:       o.Partner,
			TransferRatio: o.TransferRatio.InexactFloat64(),
			PointValue:    o.PointValue.InexactFloat64(),
			CashValue:     o.CashValue.InexactFloat64(),
		})
	}
	return dto
}
