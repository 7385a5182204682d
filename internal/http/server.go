package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"subtrack/internal/auth"
	"subtrack/internal/cache"
	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/services"
	appweb "subtrack/web"
)

// Options carries the collaborators the server needs.
type Options struct {
	Addr          string
	Subscriptions *services.SubscriptionService
	Dashboard     *services.DashboardService
	Auth          *auth.PasswordAuthenticator
	Tokens        *auth.JWTManager
	Logger        *log.Logger
	Registry      *prometheus.Registry
}

type Server struct {
	http.Server
	router    *mux.Router
	templates *template.Template

	subscriptions *services.SubscriptionService
	dashboard     *services.DashboardService
	auth          *auth.PasswordAuthenticator
	tokens        *auth.JWTManager

	rateLimiter   *rateLimiter
	overviewCache *cache.LRUCache[core.Summary]
	cacheManager  *cache.Manager
	metrics       *Metrics
	logger        *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	router := mux.NewRouter()

	s := &Server{
		Server: http.Server{
			Addr:         opts.Addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		router:        router,
		subscriptions: opts.Subscriptions,
		dashboard:     opts.Dashboard,
		auth:          opts.Auth,
		tokens:        opts.Tokens,
		rateLimiter:   newRateLimiter(),
		overviewCache: cache.NewLRUCache[core.Summary](100, 5*time.Minute),
		cacheManager:  cache.NewManager(),
		metrics:       NewMetrics(opts.Registry),
		logger:        logger.WithComponent(log.ComponentHTTP),
	}

	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		router.PathPrefix("/static/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("failed to mount embedded static FS", log.FieldError, err)
	}

	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/login", s.wrap(s.handleLoginPage)).Methods(http.MethodGet)
	router.HandleFunc("/login", s.wrap(s.handleLogin)).Methods(http.MethodPost)
	router.HandleFunc("/signup", s.wrap(s.handleSignupPage)).Methods(http.MethodGet)
	router.HandleFunc("/signup", s.wrap(s.handleSignup)).Methods(http.MethodPost)
	router.HandleFunc("/logout", s.wrap(s.handleLogout)).Methods(http.MethodPost)

	router.HandleFunc("/", s.wrap(s.withSession(s.handleIndex))).Methods(http.MethodGet)
	router.HandleFunc("/subscriptions", s.wrap(s.withSession(s.handleCreateSubscription))).Methods(http.MethodPost)
	router.HandleFunc("/subscriptions", s.wrap(s.withSession(s.handleListSubscriptions))).Methods(http.MethodGet)
	router.HandleFunc("/subscriptions/{id}/edit", s.wrap(s.withSession(s.handleEditSubscriptionForm))).Methods(http.MethodGet)
	router.HandleFunc("/subscriptions/{id}", s.wrap(s.withSession(s.handleUpdateSubscription))).Methods(http.MethodPost)
	router.HandleFunc("/subscriptions/{id}", s.wrap(s.withSession(s.handleDeleteSubscription))).Methods(http.MethodDelete)
	router.HandleFunc("/ui/overview", s.wrap(s.withSession(s.handleOverview))).Methods(http.MethodGet)

	return s
}

// wrap adds security headers, rate limiting, request logging, and metrics.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		logger.InfoContext(ctx, "request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.metrics.ObserveRequest(r.Method, routePath(r), rw.statusCode, duration)
		logger.InfoContext(ctx, "request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// routePath returns the route template (e.g. /subscriptions/{id}) so that
// metrics labels stay low-cardinality.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) overviewCacheKey(ownerID string, today time.Time) string {
	return "overview:" + ownerID + ":" + today.Format("2006-01-02")
}

func (s *Server) invalidateOverview(ownerID string) {
	s.overviewCache.Delete(s.overviewCacheKey(ownerID, time.Now()))
}

func (s *Server) getOverview(ctx context.Context, ownerID string, today time.Time) (core.Summary, error) {
	key := s.overviewCacheKey(ownerID, today)

	if summary, found := s.overviewCache.Get(key); found {
		s.metrics.CacheHitsTotal.WithLabelValues("overview").Inc()
		return summary, nil
	}
	s.metrics.CacheMissesTotal.WithLabelValues("overview").Inc()

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	summary, err := s.dashboard.Overview(cctx, ownerID, today)
	if err != nil {
		return core.Summary{}, fmt.Errorf("dashboard overview: %w", err)
	}

	s.overviewCache.Set(key, summary)
	return summary, nil
}
