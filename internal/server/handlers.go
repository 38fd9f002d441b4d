package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"

	"github.com/smokyabdulrahman/quranlake/internal/adhan"
	"github.com/smokyabdulrahman/quranlake/internal/controller"
	"github.com/smokyabdulrahman/quranlake/internal/prayer"
	"github.com/smokyabdulrahman/quranlake/internal/quran"
)

type errorResponse struct {
	Error string `json:"error"`
}

// ListResponse is the body of GET /api/v1/prayer-times/list.
type ListResponse struct {
	Date      string              `json:"date"`
	Timezone  string              `json:"timezone"`
	Prayers   []prayer.PrayerTime `json:"prayers"`
	Current   string              `json:"current,omitempty"`
	Next      *prayer.Upcoming    `json:"next,omitempty"`
	Remaining string              `json:"remaining,omitempty"`
}

// AdhanState is the body of the adhan endpoints.
type AdhanState struct {
	Muted  bool   `json:"muted"`
	Played string `json:"played,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.views.Snapshot(r.Context()))
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	resp := s.views.PrayerTimes()
	if resp == nil {
		writeError(w, http.StatusServiceUnavailable, "prayer times not loaded")
		return
	}

	now := s.clock.Now()
	tz := resp.Data.Meta.Timezone
	now = now.In(prayer.Zone(tz, now.Location()))

	out := ListResponse{
		Date:     now.Format("2006-01-02"),
		Timezone: tz,
		Prayers:  prayer.List(resp.Data.Timings, now, s.timeFormat),
	}
	if current, ok := prayer.CurrentPrayer(resp.Data.Timings, now); ok {
		out.Current = current
	}
	if next, err := prayer.NextPrayer(resp.Data.Timings, now); err == nil {
		out.Next = &next
		out.Remaining = prayer.FormatRemaining(next.Remaining(now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.views.Refresh(r.Context()); err != nil && !errors.Is(err, controller.ErrSuperseded) {
		s.log.Debug().Err(err).Msg("refresh failed")
	}
	view := s.views.Snapshot(r.Context())
	status := http.StatusOK
	if view.Phase == controller.PhaseError {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, view)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.views.ClearCache(r.Context())
	writeJSON(w, http.StatusOK, s.views.Snapshot(r.Context()))
}

func (s *Server) handleAdhanState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, AdhanState{Muted: s.adhan.Muted()})
}

func (s *Server) handleAdhanPlay(w http.ResponseWriter, r *http.Request) {
	name, err := s.adhan.PlayNow(r.Context())
	switch {
	case errors.Is(err, adhan.ErrNoPrayerTimes), errors.Is(err, prayer.ErrNoTimings):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, AdhanState{Muted: s.adhan.Muted(), Played: name})
	}
}

func (s *Server) handleAdhanMute(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Muted *bool `json:"muted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Muted == nil {
		writeError(w, http.StatusBadRequest, `body must be {"muted": true|false}`)
		return
	}
	s.adhan.SetMuted(*body.Muted)
	writeJSON(w, http.StatusOK, AdhanState{Muted: s.adhan.Muted()})
}

func (s *Server) lang(r *http.Request) string {
	if l := r.URL.Query().Get("language"); l != "" {
		return quran.APILanguage(l)
	}
	return s.language
}

func (s *Server) handleReciters(w http.ResponseWriter, r *http.Request) {
	reciters, err := s.catalogue.Reciters(r.Context(), s.lang(r))
	if err != nil {
		s.log.Warn().Err(err).Msg("reciters lookup failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if complete, _ := strconv.ParseBool(r.URL.Query().Get("complete")); complete {
		reciters = quran.CompleteReciters(reciters)
	}
	writeJSON(w, http.StatusOK, reciters)
}

func (s *Server) handleReciter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reciter id must be an integer")
		return
	}
	reciter, err := s.catalogue.Reciter(r.Context(), id, s.lang(r))
	switch {
	case errors.Is(err, quran.ErrReciterNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeJSON(w, http.StatusOK, reciter)
	}
}

func (s *Server) handleSurahs(w http.ResponseWriter, r *http.Request) {
	suwar, err := s.catalogue.Surahs(r.Context(), s.lang(r))
	if err != nil {
		s.log.Warn().Err(err).Msg("surahs lookup failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, suwar)
}
