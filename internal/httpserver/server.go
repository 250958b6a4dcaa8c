// internal/httpserver/server.go
//
// HTTP server wiring for the view-count duel.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, timeouts,
//     access log, CORS).
//   - Public endpoints: "/" (browser UI), "/health", "/catalog", "/share.png".
//   - Game endpoints: GET /game, POST /game/start, POST /game/choose.
//   - Daily duel endpoints: mounted under /daily (see routes_daily.go).
//
// Notes:
//   - Each browser is bound to its own session through an HttpOnly cookie.
//   - CORS is origin-aware and credentials-enabled (so cookies work from a
//     separately served frontend).

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/robalobadob/viewduel/assets"
	"github.com/robalobadob/viewduel/internal/catalog"
	"github.com/robalobadob/viewduel/internal/game"
	"github.com/robalobadob/viewduel/internal/store"
)

const (
	sessionCookieName = "viewduel_session"
	dailyCookieName   = "viewduel_daily"
	qrSize            = 256
)

// Sessions builds new sessions for each lane.
type Sessions struct {
	Free  func() *game.Session
	Daily func() *game.Session // nil disables /daily
}

// Options carries the server's tunables.
type Options struct {
	ClientOrigin   string        // CORS origin; empty disables CORS headers
	RequestTimeout time.Duration // upper bound on handler time
	ShareURL       string        // URL encoded in /share.png
	SecureCookies  bool          // set Secure + SameSite=None on the session cookie
}

// Server bundles router, session store and catalog.
type Server struct {
	r     *chi.Mux
	store store.Store
	cat   *catalog.Catalog
	opts  Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, cat *catalog.Catalog, sessions Sessions, opts Options) *Server {
	s := &Server{r: chi.NewRouter(), store: st, cat: cat, opts: opts}
	if s.opts.RequestTimeout <= 0 {
		s.opts.RequestTimeout = 10 * time.Second
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                      // add X-Request-ID
	s.r.Use(chimw.RealIP)                         // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                      // recover from panics
	s.r.Use(chimw.Timeout(s.opts.RequestTimeout)) // bound handler time
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(cors(s.opts.ClientOrigin))

	s.r.Get("/", s.handleIndex)
	s.r.Get("/share.png", s.handleShare)

	s.r.Group(func(r chi.Router) {
		r.Use(jsonContentType)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/catalog", s.handleCatalog)

		// Free play
		free := &lane{srv: s, cookie: sessionCookieName, newSession: sessions.Free}
		r.Route("/game", free.routes)

		// Daily duel: same pairs for everyone today
		if sessions.Daily != nil {
			s.mountDaily(r, sessions.Daily)
		}
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Handler exposes the router (used by the serve command and tests).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if origin == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("reqId", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// ------------------------------ pages --------------------------------------

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := assets.IndexHTML()
	if err != nil {
		log.Error().Err(err).Msg("read index.html")
		http.Error(w, "missing page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// handleShare renders a QR code pointing other players at this game.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	png, err := qrcode.Encode(s.opts.ShareURL, qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("url", s.opts.ShareURL).Msg("encode share qr")
		http.Error(w, "qr failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cat.Entries())
}

// ------------------------------ GAME ---------------------------------------

// lane is a family of sessions bound by its own cookie. The free-play game
// and the daily duel are separate lanes so a browser can run both.
type lane struct {
	srv        *Server
	cookie     string
	newSession func() *game.Session
}

// routes registers GET /, POST /start and POST /choose.
func (l *lane) routes(r chi.Router) {
	r.Get("/", l.handleSnapshot)
	r.Post("/start", l.handleStart)
	r.Post("/choose", l.handleChoose)
}

// handleSnapshot returns the caller's session, or an idle state if there is none.
func (l *lane) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess := l.lookupSession(r)
	if sess == nil {
		writeJSON(w, http.StatusOK, game.Snapshot{Pair: []game.ScoredItem{}, Phase: game.PhaseIdle})
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// failedRes is the body of a 502 after a statistics lookup failed.
type failedRes struct {
	Error    string        `json:"error"`
	Snapshot game.Snapshot `json:"snapshot"`
}

// handleStart (re)starts the caller's run, creating a session if needed.
func (l *lane) handleStart(w http.ResponseWriter, r *http.Request) {
	sess, err := l.ensureSession(w, r)
	if err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if err := sess.Start(r.Context()); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("start failed")
		writeJSON(w, http.StatusBadGateway, failedRes{Error: "fetch_failed", Snapshot: sess.Snapshot()})
		return
	}
	snap := sess.Snapshot()
	log.Info().Str("session", sess.ID).Str("lane", l.cookie).Strs("pair", itemIDs(snap.Pair)).Msg("run started")
	writeJSON(w, http.StatusOK, snap)
}

// chooseReq/Res payloads for POST .../choose.
type chooseReq struct {
	ID string `json:"id"`
}
type chooseRes struct {
	Correct  bool          `json:"correct"`
	Snapshot game.Snapshot `json:"snapshot"`
}

// handleChoose judges a guess for the caller's session.
func (l *lane) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess := l.lookupSession(r)
	if sess == nil {
		writeError(w, http.StatusConflict, "no_session")
		return
	}

	correct, err := sess.Choose(r.Context(), req.ID)
	switch {
	case errors.Is(err, game.ErrNotPlaying):
		writeError(w, http.StatusConflict, "not_playing")
		return
	case errors.Is(err, game.ErrNotInPair):
		writeError(w, http.StatusBadRequest, "not_in_pair")
		return
	case err != nil:
		log.Warn().Err(err).Str("session", sess.ID).Msg("challenger lookup failed")
		writeJSON(w, http.StatusBadGateway, failedRes{Error: "fetch_failed", Snapshot: sess.Snapshot()})
		return
	}

	snap := sess.Snapshot()
	log.Info().Str("session", sess.ID).Str("choice", req.ID).Bool("correct", correct).Int("score", snap.Score).Msg("choice")
	writeJSON(w, http.StatusOK, chooseRes{Correct: correct, Snapshot: snap})
}

// ------------------------------ sessions -----------------------------------

// lookupSession returns the session named by the lane cookie, or nil.
func (l *lane) lookupSession(r *http.Request) *game.Session {
	c, err := r.Cookie(l.cookie)
	if err != nil || c.Value == "" {
		return nil
	}
	sess, err := l.srv.store.Get(r.Context(), c.Value)
	if err != nil {
		return nil
	}
	return sess
}

// ensureSession returns the caller's session or creates one and sets the cookie.
func (l *lane) ensureSession(w http.ResponseWriter, r *http.Request) (*game.Session, error) {
	if sess := l.lookupSession(r); sess != nil {
		return sess, nil
	}
	sess := l.newSession()
	if err := l.srv.store.Save(r.Context(), sess); err != nil {
		return nil, err
	}
	secure := l.srv.opts.SecureCookies
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     l.cookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
	return sess, nil
}

// ------------------------------- small util --------------------------------

func itemIDs(items []game.ScoredItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
