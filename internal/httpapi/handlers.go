package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/pug-draft-bot/internal/domain/match"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func GetDraft(drafts DraftReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := drafts.View(chi.URLParam(r, "guildID"))
		if !ok {
			http.Error(w, "no draft in progress", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func ListMatches(matches MatchLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		recs, err := matches.RecentMatches(r.Context(), chi.URLParam(r, "guildID"), limit)
		if err != nil {
			log.Error().Str("component", "httpapi").Err(err).Msg("list matches")
			http.Error(w, "failed to list matches", http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []match.Record{}
		}
		writeJSON(w, http.StatusOK, struct {
			Matches []match.Record `json:"matches"`
		}{Matches: recs})
	}
}

// Healthz also reports how many drafts are running.
func Healthz(drafts DraftReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			Drafts int    `json:"drafts"`
		}{Status: "ok", Drafts: drafts.Len()})
	}
}
