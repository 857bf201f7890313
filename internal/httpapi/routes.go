// Package httpapi exposes a read-only JSON view of drafts and match history.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/pug-draft-bot/internal/domain/match"
	"github.com/jose-valero/pug-draft-bot/internal/draft"
)

type DraftReader interface {
	View(guildID string) (draft.View, bool)
	Len() int
}

type MatchLister interface {
	RecentMatches(ctx context.Context, guildID string, limit int) ([]match.Record, error)
}

func SetupRoutes(drafts DraftReader, matches MatchLister) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLog)

	r.Get("/healthz", Healthz(drafts))
	r.Route("/guilds/{guildID}", func(r chi.Router) {
		r.Get("/draft", GetDraft(drafts))
		r.Get("/matches", ListMatches(matches))
	})
	return r
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().Str("component", "httpapi").Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", ww.Status()).Dur("took", time.Since(start)).Msg("request")
	})
}
