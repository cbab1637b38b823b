package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tripsplit/internal/core"
	"tripsplit/internal/log"
	"tripsplit/internal/report"
	"tripsplit/internal/trips"
)

// errMalformedRequest marks bodies that could not be decoded.
var errMalformedRequest = errors.New("malformed request body")

type errorResponse struct {
	Error string `json:"error"`
}

type entryResponse struct {
	Name       string `json:"name"`
	Spent      string `json:"spent"`
	SpentCents int64  `json:"spent_cents"`
}

type tripResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Version    int64           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Total      string          `json:"total"`
	TotalCents int64           `json:"total_cents"`
	Entries    []entryResponse `json:"entries"`
}

type balanceResponse struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
}

type transferResponse struct {
	Payer       string `json:"payer"`
	Receiver    string `json:"receiver"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
}

type settlementResponse struct {
	TripID        string             `json:"trip_id"`
	Version       int64              `json:"version"`
	Total         string             `json:"total"`
	TotalCents    int64              `json:"total_cents"`
	Share         float64            `json:"share"`
	ShareRounded  string             `json:"share_rounded"`
	ResidualCents int64              `json:"residual_cents"`
	Balances      []balanceResponse  `json:"balances"`
	Transfers     []transferResponse `json:"transfers"`
	Summary       []string           `json:"summary"`
}

func newTripResponse(t trips.Trip) tripResponse {
	resp := tripResponse{
		ID:         t.ID,
		Name:       t.Name,
		Version:    t.Version,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		Total:      t.Total().String(),
		TotalCents: t.Total().Cents,
		Entries:    make([]entryResponse, 0, len(t.Entries)),
	}
	for _, e := range t.Entries {
		resp.Entries = append(resp.Entries, entryResponse{
			Name:       e.Name,
			Spent:      e.Spent.String(),
			SpentCents: e.Spent.Cents,
		})
	}
	return resp
}

func newSettlementResponse(t trips.Trip, s core.Settlement) settlementResponse {
	resp := settlementResponse{
		TripID:        t.ID,
		Version:       t.Version,
		Total:         s.Total.String(),
		TotalCents:    s.Total.Cents,
		Share:         s.Share,
		ShareRounded:  s.ShareRounded().String(),
		ResidualCents: s.Residual.Cents,
		Balances:      make([]balanceResponse, 0, len(s.Balances)),
		Transfers:     make([]transferResponse, 0, len(s.Transfers)),
		Summary:       report.New(t.Name, t.Entries, s).BalanceLines(),
	}
	for _, b := range s.Balances {
		resp.Balances = append(resp.Balances, balanceResponse{
			Name:        b.Name,
			Amount:      b.Amount.String(),
			AmountCents: b.Amount.Cents,
			Status:      string(b.Status()),
		})
	}
	for _, tr := range s.Transfers {
		resp.Transfers = append(resp.Transfers, transferResponse{
			Payer:       tr.Payer,
			Receiver:    tr.Receiver,
			Amount:      tr.Amount.String(),
			AmountCents: tr.Amount.Cents,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, trips.ErrTripNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrInsufficientParticipants):
		return http.StatusUnprocessableEntity
	case errors.Is(err, trips.ErrExportUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server faults and reports client faults verbatim.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err, log.FieldPath, r.URL.Path)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
