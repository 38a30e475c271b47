package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"

	"github.com/go-chi/chi/v5"
)

// signalJSON is the API representation of a SignalRecord.
type signalJSON struct {
	ID              string     `json:"id"`
	Symbol          string     `json:"symbol"`
	IntervalMinutes int        `json:"interval_minutes"`
	StrategyID      string     `json:"strategy_id"`
	Kind            string     `json:"kind"`
	Reason          string     `json:"reason"`
	EntryPrice      float64    `json:"entry_price"`
	EmittedAt       time.Time  `json:"emitted_at"`
	Result          string     `json:"result"`
	ExitPrice       *float64   `json:"exit_price,omitempty"`
	PnL             *float64   `json:"pnl,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
}

func toJSON(rec model.SignalRecord) signalJSON {
	out := signalJSON{
		ID:              rec.ID,
		Symbol:          rec.Symbol,
		IntervalMinutes: rec.IntervalMinutes,
		StrategyID:      rec.StrategyID,
		Kind:            string(rec.Kind),
		Reason:          rec.Reason,
		EntryPrice:      rec.EntryPrice,
		EmittedAt:       rec.EmittedAt,
		Result:          string(rec.Result),
	}
	if !rec.Resolved() {
		out.Result = "PENDING"
		return out
	}
	if rec.Result != model.ResultInvalid {
		out.ExitPrice, out.PnL = &rec.ExitPrice, &rec.PnL
	}
	if !rec.VerifiedAt.IsZero() {
		out.VerifiedAt = &rec.VerifiedAt
	}
	return out
}

func toJSONList(recs []model.SignalRecord) []signalJSON {
	out := make([]signalJSON, len(recs))
	for i, r := range recs {
		out[i] = toJSON(r)
	}
	return out
}

type evalJSON struct {
	Watch  string      `json:"watch"`
	Kind   string      `json:"kind,omitempty"`
	Reason string      `json:"reason,omitempty"`
	Signal *signalJSON `json:"signal,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/signals?symbol=EUR/USD&pending=true&limit=N
func (s *Server) handleListSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := recorder.Filter{Symbol: q.Get("symbol"), Limit: 100}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if v := q.Get("pending"); v != "" {
		pending, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid pending flag")
			return
		}
		f.PendingOnly = pending
	}

	recs, err := s.store.ListSignals(r.Context(), f)
	if err != nil {
		s.log.Error().Err(err).Msg("list signals")
		s.writeError(w, http.StatusInternalServerError, "failed to list signals")
		return
	}
	s.writeJSON(w, http.StatusOK, toJSONList(recs))
}

// GET /api/signals/{id}
func (s *Server) handleGetSignal(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetSignal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toJSON(rec))
}

// POST /api/signals/{id}/verify
func (s *Server) handleVerifySignal(w http.ResponseWriter, r *http.Request) {
	out, err := s.verifier.VerifyByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"signal":  toJSON(out.Record),
		"settled": out.Settled,
		"written": out.Written,
	})
}

// POST /api/evaluate and POST /api/evaluate/{watch}
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var names []string
	if watch := chi.URLParam(r, "watch"); watch != "" {
		names = append(names, watch)
	}
	results, err := s.runner.EvaluateNow(r.Context(), names...)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toEvalList(results))
}

// POST /api/verify
func (s *Server) handleVerifyAll(w http.ResponseWriter, r *http.Request) {
	settled, err := s.runner.VerifyNow(r.Context())
	if err != nil && len(settled) == 0 {
		s.log.Error().Err(err).Msg("verify run")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, toJSONList(settled))
}

func toEvalList(results []scheduler.EvalResult) []evalJSON {
	out := make([]evalJSON, len(results))
	for i, r := range results {
		e := evalJSON{Watch: r.Watch, Kind: string(r.Signal.Kind), Reason: r.Signal.Reason}
		if r.Record != nil {
			sj := toJSON(*r.Record)
			e.Signal = &sj
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		out[i] = e
	}
	return out
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrMalformedInput):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}
