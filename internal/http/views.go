package http

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tripsplit/internal/core"
	"tripsplit/internal/log"
	"tripsplit/internal/report"
	"tripsplit/internal/trips"
)

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.String() },
}

type indexPage struct {
	DefaultName string
	Error       string
}

type tripPage struct {
	Trip       trips.Trip
	Settlement *core.Settlement
	Lines      []string
	Notice     string
	Error      string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, "template", name)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", indexPage{DefaultName: trips.DefaultTripName})
}

func (s *Server) handleUICreateTrip(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	t, err := s.trips.CreateTrip(r.Context(), sanitizeInput(r.Form.Get("name")))
	if err != nil {
		s.render(w, r, statusFor(err), "index.html", indexPage{DefaultName: trips.DefaultTripName, Error: err.Error()})
		return
	}
	http.Redirect(w, r, "/ui/trips/"+t.ID, http.StatusSeeOther)
}

func (s *Server) handleUITrip(w http.ResponseWriter, r *http.Request) {
	s.renderTrip(w, r, http.StatusOK, "")
}

func (s *Server) handleUIRecordExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tripID")
	name, amount, err := parseExpense(w, r)
	if err == nil {
		_, err = s.trips.RecordExpense(r.Context(), id, name, amount)
	}
	if err != nil {
		s.renderTrip(w, r, statusFor(err), err.Error())
		return
	}
	http.Redirect(w, r, "/ui/trips/"+id, http.StatusSeeOther)
}

func (s *Server) handleUIReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tripID")
	if _, err := s.trips.Reset(r.Context(), id); err != nil {
		s.renderTrip(w, r, statusFor(err), err.Error())
		return
	}
	http.Redirect(w, r, "/ui/trips/"+id, http.StatusSeeOther)
}

// renderTrip shows the ledger and, once there are two participants, the settlement.
func (s *Server) renderTrip(w http.ResponseWriter, r *http.Request, status int, formErr string) {
	t, res, err := s.trips.Settle(r.Context(), chi.URLParam(r, "tripID"))
	page := tripPage{Trip: t, Error: formErr}
	switch {
	case errors.Is(err, core.ErrInsufficientParticipants):
		page.Notice = "Add at least two participants to see who pays whom."
	case err != nil:
		if errors.Is(err, trips.ErrTripNotFound) {
			http.NotFound(w, r)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Trip page failed", log.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	default:
		page.Settlement = &res
		page.Lines = report.New(t.Name, t.Entries, res).BalanceLines()
	}
	s.render(w, r, status, "trip.html", page)
}
