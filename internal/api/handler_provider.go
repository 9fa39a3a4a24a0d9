package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"github.com/fastprodman/changuard/internal/services/verdict"
	"github.com/fastprodman/changuard/pkg/channelstate"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// HandlerProvider wraps a VerdictService and exposes HTTP handlers.
type HandlerProvider struct {
	svc          *verdict.VerdictService
	maxBodyBytes int64
}

// NewHandler returns a new Handler provider.
func NewHandler(svc *verdict.VerdictService, maxBodyBytes int64) *HandlerProvider {
	return &HandlerProvider{svc: svc, maxBodyBytes: maxBodyBytes}
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

// decodeBody reads a single JSON object into dst, rejecting unknown fields
// and bodies above the configured cap.
func (h *HandlerProvider) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("body too large")
		}

		return errors.New("invalid JSON")
	}

	return nil
}

// parseAmount converts a base-10 integer string into an arbitrary-precision
// amount. Sign is accepted here and policed by the service.
func parseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return amount, nil
}

func parseBalances(raw map[string]string) (channelstate.Balances, error) {
	b := make(channelstate.Balances, len(raw))
	for id, s := range raw {
		amount, err := parseAmount(s)
		if err != nil {
			return nil, fmt.Errorf("participant %q: %w", id, err)
		}

		b[id] = amount
	}

	return b, nil
}

// statusForServiceError maps boundary validation failures to 400.
func statusForServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, channelstate.ErrNegativeAmount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, channelstate.ErrNilAmount):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// --- Handlers ---

type transitionRequest struct {
	Deposit string            `json:"deposit"`
	Prev    map[string]string `json:"prev"`
	Next    map[string]string `json:"next"`
}

type transitionResponse struct {
	Valid     bool   `json:"valid"`
	PrevTotal string `json:"prevTotal"`
	NextTotal string `json:"nextTotal"`
}

// CheckTransitionHandler handles POST /channel/transition
func (h *HandlerProvider) CheckTransitionHandler(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest

	err := h.decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deposit, err := parseAmount(req.Deposit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "deposit: "+err.Error())
		return
	}

	prev, err := parseBalances(req.Prev)
	if err != nil {
		writeError(w, http.StatusBadRequest, "prev: "+err.Error())
		return
	}

	next, err := parseBalances(req.Next)
	if err != nil {
		writeError(w, http.StatusBadRequest, "next: "+err.Error())
		return
	}

	v, err := h.svc.CheckTransition(r.Context(), verdict.TransitionInput{
		Deposit: deposit,
		Prev:    prev,
		Next:    next,
	})
	if err != nil {
		status, msg := statusForServiceError(err)
		writeError(w, status, msg)

		return
	}

	writeJSON(w, http.StatusOK, transitionResponse{
		Valid:     v.Valid,
		PrevTotal: v.PrevTotal.String(),
		NextTotal: v.NextTotal.String(),
	})
}

type healthRequest struct {
	Our      map[string]string `json:"our"`
	Approved map[string]string `json:"approved"`
}

type healthResponse struct {
	Healthy             bool   `json:"healthy"`
	RatioPerMille       string `json:"ratioPerMille,omitempty"`
	CorroboratedPercent string `json:"corroboratedPercent,omitempty"`
}

// CheckHealthHandler handles POST /channel/health
func (h *HandlerProvider) CheckHealthHandler(w http.ResponseWriter, r *http.Request) {
	var req healthRequest

	err := h.decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	our, err := parseBalances(req.Our)
	if err != nil {
		writeError(w, http.StatusBadRequest, "our: "+err.Error())
		return
	}

	approved, err := parseBalances(req.Approved)
	if err != nil {
		writeError(w, http.StatusBadRequest, "approved: "+err.Error())
		return
	}

	v, err := h.svc.CheckHealth(r.Context(), verdict.HealthInput{Our: our, Approved: approved})
	if err != nil {
		status, msg := statusForServiceError(err)
		writeError(w, status, msg)

		return
	}

	resp := healthResponse{Healthy: v.Healthy}
	if v.RatioPerMille != nil {
		resp.RatioPerMille = v.RatioPerMille.String()
		// per-mille to percent, one decimal place
		resp.CorroboratedPercent = decimal.NewFromBigInt(v.RatioPerMille, -1).StringFixed(1)
	}

	writeJSON(w, http.StatusOK, resp)
}
