/*
handlers.go - HTTP API handlers for the reward calculation system

PURPOSE:
  Exposes the reward engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Cards:
    GET    /api/cards                  List all cards
    POST   /api/cards                  Create card (with rules/buckets/partners)
    GET    /api/cards/{id}             Get card details
    DELETE /api/cards/{id}             Delete card (expenses survive)
    POST   /api/cards/{id}/rules       Add a rule
    POST   /api/cards/{id}/buckets     Add a cap bucket
    POST   /api/cards/{id}/partners    Add a redemption partner
    GET    /api/cards/{id}/expenses    Spend history (optional from/to)

  Buckets:
    DELETE /api/buckets/{id}           Delete bucket (rules become uncapped)

  Expenses:
    POST   /api/expenses               Log a spend (calculates + persists)
    PATCH  /api/expenses/{id}          Edit a spend (recalculates)
    DELETE /api/expenses/{id}          Delete a spend (frees cap usage)

  Calculation:
    POST   /api/rewards/calculate      Preview points without persisting
    POST   /api/recommendations        Rank cards for a hypothetical spend

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Card / expense / bucket not found
  - 409: Duplicate ID
  - 500: Storage errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/service.go: The orchestration layer handlers delegate to
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/swipe-engine/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *engine.Service
	Store   engine.Store
}

// NewHandler creates a new handler over the service and its store.
func NewHandler(svc *engine.Service, store engine.Store) *Handler {
	return &Handler{Service: svc, Store: store}
}

// =============================================================================
// CARD HANDLERS
// =============================================================================

// ListCards returns all cards with their configuration.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.Store.ListCards(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list cards", err)
		return
	}

	dtos := make([]CardDTO, 0, len(cards))
	for _, c := range cards {
		dtos = append(dtos, cardToDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCard returns a single card.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id := engine.CardID(chi.URLParam(r, "id"))

	card, err := h.Store.GetCard(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get card", err)
		return
	}
	writeJSON(w, http.StatusOK, cardToDTO(card))
}

// CreateCard creates a card together with its rules, buckets, and partners.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	card := cardFromRequest(req)
	if err := h.Store.CreateCard(r.Context(), card); err != nil {
		writeDomainError(w, "Failed to create card", err)
		return
	}
	writeJSON(w, http.StatusCreated, cardToDTO(card))
}

// DeleteCard removes a card and its configuration. Expense history is kept.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id := engine.CardID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteCard(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete card", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// AddRule attaches a reward rule to an existing card.
func (h *Handler) AddRule(w http.ResponseWriter, r *http.Request) {
	cardID := engine.CardID(chi.URLParam(r, "id"))

	var req RuleDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "id and category are required", nil)
		return
	}

	rule := ruleFromDTO(cardID, req)
	if err := h.Store.AddRule(r.Context(), rule); err != nil {
		writeDomainError(w, "Failed to add rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// AddBucket attaches a cap bucket to an existing card.
func (h *Handler) AddBucket(w http.ResponseWriter, r *http.Request) {
	cardID := engine.CardID(chi.URLParam(r, "id"))

	var req BucketDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}
	if req.MaxPoints < 0 {
		writeError(w, http.StatusBadRequest, "max_points must not be negative", nil)
		return
	}

	bucket := &engine.CapBucket{
		ID:          engine.BucketID(req.ID),
		CardID:      cardID,
		Name:        req.Name,
		MaxPoints:   decimal.NewFromFloat(req.MaxPoints),
		Period:      engine.PeriodType(req.Period),
		Scope:       engine.BucketScope(req.Scope),
		ResetAnchor: req.ResetAnchor,
	}
	if bucket.Scope == "" {
		bucket.Scope = engine.ScopeCategory
	}
	if err := h.Store.AddBucket(r.Context(), bucket); err != nil {
		writeDomainError(w, "Failed to add bucket", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// AddPartner attaches a redemption partner to an existing card.
func (h *Handler) AddPartner(w http.ResponseWriter, r *http.Request) {
	cardID := engine.CardID(chi.URLParam(r, "id"))

	var req PartnerDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	partner := &engine.RedemptionPartner{
		ID:             engine.PartnerID(req.ID),
		CardID:         cardID,
		Name:           req.Name,
		TransferRatio:  decimal.NewFromFloat(req.TransferRatio),
		EstimatedValue: decimal.NewFromFloat(req.EstimatedValue),
	}
	if err := h.Store.AddPartner(r.Context(), partner); err != nil {
		writeDomainError(w, "Failed to add partner", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// DeleteBucket removes a cap bucket; rules referencing it become uncapped.
func (h *Handler) DeleteBucket(w http.ResponseWriter, r *http.Request) {
	id := engine.BucketID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteBucket(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete bucket", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// ListCardExpenses returns the card's spend history, optionally bounded by
// from/to query params (YYYY-MM-DD or RFC3339).
func (h *Handler) ListCardExpenses(w http.ResponseWriter, r *http.Request) {
	cardID := engine.CardID(chi.URLParam(r, "id"))

	period := engine.Period{
		Start: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date", err)
			return
		}
		period.Start = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date", err)
			return
		}
		period.End = t.Add(24*time.Hour - time.Second)
	}

	expenses, err := h.Store.ListExpenses(r.Context(), cardID, period)
	if err != nil {
		writeDomainError(w, "Failed to list expenses", err)
		return
	}

	dtos := make([]ExpenseDTO, 0, len(expenses))
	for _, e := range expenses {
		dtos = append(dtos, expenseToDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// LogExpense records a spend: calculates points under caps and persists the
// settled result atomically per card.
// CardUsage reports each bucket's consumption for the period containing
// the "date" query param (default now). Remaining never goes negative
// even when concurrent settlements overshoot a ceiling.
func (h *Handler) CardUsage(w http.ResponseWriter, r *http.Request) {
	cardID := engine.CardID(chi.URLParam(r, "id"))

	asOf := time.Now().UTC()
	if date := r.URL.Query().Get("date"); date != "" {
		t, err := parseDate(date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		asOf = t
	}

	card, err := h.Store.GetCard(r.Context(), cardID)
	if err != nil {
		writeDomainError(w, "Failed to get card", err)
		return
	}

	resp := CardUsageDTO{
		CardID:  string(card.ID),
		AsOf:    asOf.Format(time.RFC3339),
		Buckets: make([]BucketUsageDTO, 0, len(card.Buckets)),
	}
	for _, b := range card.Buckets {
		period := b.PeriodFor(asOf)

		var used decimal.Decimal
		switch b.Scope {
		case engine.ScopeGlobal:
			used, err = h.Store.GlobalUsage(r.Context(), card.ID, period)
		default:
			used, err = h.Store.BucketUsage(r.Context(), b.ID, period)
		}
		if err != nil {
			writeDomainError(w, "Failed to read usage", err)
			return
		}

		remaining := b.MaxPoints.Sub(used)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		resp.Buckets = append(resp.Buckets, BucketUsageDTO{
			BucketID:    string(b.ID),
			Name:        b.Name,
			Scope:       string(b.Scope),
			PeriodStart: period.Start.Format(time.RFC3339),
			PeriodEnd:   period.End.Format(time.RFC3339),
			MaxPoints:   b.MaxPoints.InexactFloat64(),
			UsedPoints:  used.InexactFloat64(),
			Remaining:   remaining.InexactFloat64(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) LogExpense(w http.ResponseWriter, r *http.Request) {
	var req LogExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	input, err := expenseInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense", err)
		return
	}

	exp, result, err := h.Service.LogExpense(r.Context(), input)
	if err != nil {
		writeDomainError(w, "Failed to log expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, LogExpenseResponse{
		Expense: expenseToDTO(exp),
		Reward:  resultToDTO(result),
	})
}

// PatchExpense edits a settled spend and recomputes its points.
func (h *Handler) PatchExpense(w http.ResponseWriter, r *http.Request) {
	id := engine.ExpenseID(chi.URLParam(r, "id"))

	var req PatchExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	patch := engine.ExpensePatch{
		Merchant: req.Merchant,
		Category: req.Category,
		Platform: req.Platform,
		IsOnline: req.IsOnline,
		Notes:    req.Notes,
	}
	if req.Amount != nil {
		if *req.Amount <= 0 {
			writeError(w, http.StatusBadRequest, "amount must be positive", nil)
			return
		}
		amt := decimal.NewFromFloat(*req.Amount)
		patch.Amount = &amt
	}
	if req.Date != nil {
		t, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		patch.Date = &t
	}

	exp, result, err := h.Service.EditExpense(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, "Failed to edit expense", err)
		return
	}
	writeJSON(w, http.StatusOK, LogExpenseResponse{
		Expense: expenseToDTO(exp),
		Reward:  resultToDTO(result),
	})
}

// DeleteExpense removes a spend. Cap usage it contributed is freed because
// usage is derived from stored expenses at read time.
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := engine.ExpenseID(chi.URLParam(r, "id"))

	if err := h.Service.DeleteExpense(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete expense", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// CalculateReward previews points for a hypothetical spend. Nothing is
// persisted and no cap usage accrues.
func (h *Handler) CalculateReward(w http.ResponseWriter, r *http.Request) {
	var req LogExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	input, err := expenseInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense", err)
		return
	}

	result, err := h.Service.Preview(r.Context(), input)
	if err != nil {
		writeDomainError(w, "Failed to calculate reward", err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(result))
}

// Recommend ranks every card by estimated redemption value for the spend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}

	engineReq := engine.RecommendationRequest{
		Amount:   decimal.NewFromFloat(req.Amount),
		Merchant: req.Merchant,
		Category: req.Category,
		Platform: req.Platform,
		IsOnline: req.IsOnline,
	}
	if req.Date != "" {
		t, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
		engineReq.Date = t
	}

	recs, err := h.Service.Recommend(r.Context(), engineReq)
	if err != nil {
		writeDomainError(w, "Failed to build recommendations", err)
		return
	}

	dtos := make([]RecommendationDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, recommendationToDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func expenseInput(req LogExpenseRequest) (engine.ExpenseInput, error) {
	input := engine.ExpenseInput{
		CardID:   engine.CardID(req.CardID),
		Amount:   decimal.NewFromFloat(req.Amount),
		Merchant: req.Merchant,
		Category: req.Category,
		Platform: req.Platform,
		IsOnline: req.IsOnline,
		Notes:    req.Notes,
	}
	if req.CardID == "" {
		return input, errors.New("card_id is required")
	}
	if req.Amount <= 0 {
		return input, errors.New("amount must be positive")
	}
	if req.Date != "" {
		t, err := parseDate(req.Date)
		if err != nil {
			return input, err
		}
		input.Date = t
	}
	return input, nil
}

// parseDate accepts RFC3339 timestamps or bare YYYY-MM-DD dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, engine.ErrDuplicateID):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
