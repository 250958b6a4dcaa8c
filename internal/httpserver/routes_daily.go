// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Duel" mode.
// Exposes four endpoints under /daily:
//   - GET  /daily/today  → today's date key
//   - GET  /daily        → snapshot of the caller's daily session
//   - POST /daily/start  → start (or replay) today's run
//   - POST /daily/choose → submit a choice in today's run
//
// Every player draws pairs from the same date-seeded source, so everyone
// meets the same songs in the same order while they keep guessing right.
// Daily sessions use their own cookie and never mix with free play.

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/viewduel/internal/daily"
	"github.com/robalobadob/viewduel/internal/game"
)

// todayRes is returned by /daily/today.
type todayRes struct {
	Date string `json:"date"`
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router, newSession func() *game.Session) {
	l := &lane{srv: s, cookie: dailyCookieName, newSession: newSession}
	r.Route("/daily", func(r chi.Router) {
		l.routes(r)
		r.Get("/today", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, todayRes{Date: daily.DateKey(time.Now())})
		})
	})
}
