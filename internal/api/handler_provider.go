package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastprodman/crystalpay/internal/cost"
	"github.com/fastprodman/crystalpay/internal/crystal"
	"github.com/fastprodman/crystalpay/internal/player"
	"github.com/fastprodman/crystalpay/internal/repos/ledger"
	"github.com/fastprodman/crystalpay/internal/repos/pools"
	"github.com/fastprodman/crystalpay/internal/rules"
	"github.com/fastprodman/crystalpay/internal/services/bankroll"
)

// BankrollService is what the handlers need from the bankroll service.
type BankrollService interface {
	Pool(ctx context.Context, playerID uint64) (crystal.Pool, error)
	Grant(ctx context.Context, g bankroll.Grant) (crystal.Pool, error)
	Empty(ctx context.Context, playerID uint64, entryID uuid.UUID) error
	Pay(ctx context.Context, p bankroll.Payment) (bankroll.Receipt, error)
	Quote(ctx context.Context, p bankroll.Payment) (bankroll.Quote, error)
}

// HandlerProvider wraps a BankrollService and exposes HTTP handlers.
type HandlerProvider struct {
	svc BankrollService
}

func NewHandler(svc BankrollService) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pools.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "player not found")
	case errors.Is(err, rules.ErrUnknownAbility):
		writeError(w, http.StatusNotFound, "unknown ability")
	case errors.Is(err, bankroll.ErrInsufficientCrystals):
		writeError(w, http.StatusConflict, "insufficient crystals")
	case errors.Is(err, ledger.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, "duplicate request")
	case errors.Is(err, player.ErrCapExceeded):
		writeError(w, http.StatusConflict, "crystal cap exceeded")
	case errors.Is(err, cost.ErrInvalidAmount),
		errors.Is(err, cost.ErrUnknownPart),
		errors.Is(err, cost.ErrEmptyCost),
		errors.Is(err, crystal.ErrUnknownElement),
		errors.Is(err, bankroll.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parsePlayerIDFromPath reads `{playerId}` from chi routes like:
//
//	GET  /player/{playerId}/crystals
//	POST /player/{playerId}/payment
func parsePlayerIDFromPath(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "playerId")
	if idStr == "" {
		return 0, fmt.Errorf("missing playerId")
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid playerId: %w", err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid playerId: must be positive")
	}

	return id, nil
}

func parseSourceType(h http.Header) (bankroll.SourceType, error) {
	raw := strings.ToLower(strings.TrimSpace(h.Get("Source-Type")))
	switch raw {
	case "game":
		return bankroll.SourceGame, nil
	case "server":
		return bankroll.SourceServer, nil
	default:
		return "", fmt.Errorf("invalid Source-Type")
	}
}

// decodeBody limits the body size and rejects unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON")
	}

	return nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, fmt.Errorf("%s required", field)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID", field)
	}

	return id, nil
}

type poolResponse struct {
	PlayerID uint64         `json:"playerId"`
	Crystals map[string]int `json:"crystals"`
	Total    int            `json:"total"`
	Display  string         `json:"display"`
}

func newPoolResponse(playerID uint64, p crystal.Pool) poolResponse {
	counts := p.Counts()
	m := make(map[string]int, len(counts))

	for _, c := range counts {
		name, err := c.Element.MarshalText()
		if err != nil {
			continue
		}

		m[string(name)] = c.Amount
	}

	return poolResponse{
		PlayerID: playerID,
		Crystals: m,
		Total:    p.Total(),
		Display:  p.String(),
	}
}

// --- Handlers ---

// GetCrystalsHandler handles GET /player/{playerId}/crystals
func (h *HandlerProvider) GetCrystalsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	pool, err := h.svc.Pool(r.Context(), playerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPoolResponse(playerID, pool))
}

type grantRequest struct {
	Element string `json:"element"`
	Amount  int    `json:"amount"`
	GrantID string `json:"grantId"`
}

// GrantCrystalsHandler handles POST /player/{playerId}/crystals
func (h *HandlerProvider) GrantCrystalsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	source, err := parseSourceType(r.Header)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid Source-Type header")
		return
	}

	var req grantRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	element, err := crystal.ParseElement(req.Element)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid element")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be > 0")
		return
	}

	grantID, err := parseID(req.GrantID, "grantId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pool, err := h.svc.Grant(r.Context(), bankroll.Grant{
		GrantID:  grantID,
		PlayerID: playerID,
		Source:   source,
		Element:  element,
		Amount:   req.Amount,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPoolResponse(playerID, pool))
}

// EmptyCrystalsHandler handles DELETE /player/{playerId}/crystals. The
// Idempotency-Key header carries the ledger entry id.
func (h *HandlerProvider) EmptyCrystalsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	entryID, err := parseID(r.Header.Get("Idempotency-Key"), "Idempotency-Key")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.Empty(r.Context(), playerID, entryID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPoolResponse(playerID, crystal.Pool{}))
}

type paymentRequest struct {
	Cost      string `json:"cost"`
	Ability   string `json:"ability"`
	X         int    `json:"x"`
	PaymentID string `json:"paymentId"`
}

type paymentResponse struct {
	PaymentID string       `json:"paymentId"`
	Cost      string       `json:"display"`
	Paid      int          `json:"paid"`
	Remaining poolResponse `json:"remaining"`
}

// PaymentHandler handles POST /player/{playerId}/payment
func (h *HandlerProvider) PaymentHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	var req paymentRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Cost == "" && req.Ability == "" {
		writeError(w, http.StatusBadRequest, "cost or ability required")
		return
	}
	if req.X < 0 {
		writeError(w, http.StatusBadRequest, "x must be >= 0")
		return
	}

	paymentID, err := parseID(req.PaymentID, "paymentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.svc.Pay(r.Context(), bankroll.Payment{
		PaymentID: paymentID,
		PlayerID:  playerID,
		Cost:      req.Cost,
		Ability:   req.Ability,
		X:         req.X,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{
		PaymentID: receipt.PaymentID.String(),
		Cost:      receipt.Cost,
		Paid:      receipt.Paid,
		Remaining: newPoolResponse(playerID, receipt.Remaining),
	})
}

type quoteResponse struct {
	Cost     string `json:"display"`
	CanPay   bool   `json:"canPay"`
	Required int    `json:"required"`
	Held     int    `json:"held"`
	MaxX     int    `json:"maxX"`
}

// QuoteHandler handles GET /player/{playerId}/quote?cost=...&ability=...&x=...
func (h *HandlerProvider) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	q := r.URL.Query()

	p := bankroll.Payment{
		PlayerID: playerID,
		Cost:     q.Get("cost"),
		Ability:  q.Get("ability"),
	}
	if p.Cost == "" && p.Ability == "" {
		writeError(w, http.StatusBadRequest, "cost or ability required")
		return
	}

	if raw := q.Get("x"); raw != "" {
		p.X, err = strconv.Atoi(raw)
		if err != nil || p.X < 0 {
			writeError(w, http.StatusBadRequest, "x must be a non-negative integer")
			return
		}
	}

	quote, err := h.svc.Quote(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{
		Cost:     quote.Cost,
		CanPay:   quote.CanPay,
		Required: quote.Required,
		Held:     quote.Held,
		MaxX:     quote.MaxX,
	})
}
