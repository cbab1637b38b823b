package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tripsplit/internal/log"
	"tripsplit/internal/report"
)

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	name, err := parseCreateTrip(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.trips.CreateTrip(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/trips/"+t.ID)
	writeJSON(w, http.StatusCreated, newTripResponse(t))
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	t, err := s.trips.Trip(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTripResponse(t))
}

func (s *Server) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	name, amount, err := parseExpense(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.trips.RecordExpense(r.Context(), chi.URLParam(r, "tripID"), name, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTripResponse(t))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	t, err := s.trips.Reset(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTripResponse(t))
}

func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	t, res, err := s.trips.Settle(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettlementResponse(t, res))
}

// handleReport renders the trip report in the format named by the URL suffix.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	renderer, err := report.ByFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	t, res, err := s.trips.Settle(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	rep := report.New(t.Name, t.Entries, res)
	var buf bytes.Buffer
	if err := renderer.Render(&buf, rep); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Report render failed",
			log.FieldError, err, log.FieldTripID, t.ID, log.FieldFormat, renderer.Format())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(renderer)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	t, err := s.trips.RequestExport(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "queued",
		"trip_id": t.ID,
		"version": t.Version,
	})
}
