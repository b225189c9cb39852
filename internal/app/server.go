// Package app wires the HTTP surface: routing, middleware, and the
// translation between gin requests and the coordinator services.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"musicweb/internal/config"
	"musicweb/internal/service"
	"musicweb/internal/session"
)

type Server struct {
	cfg        config.Config
	logger     *slog.Logger
	sessions   *session.CookieStore
	links      *service.LinkService
	library    *service.LibraryService
	dbCheck    func(context.Context) error
	botCheck   func(context.Context) error
	startedAt  time.Time
	httpServer *http.Server
}

func NewServer(
	cfg config.Config,
	logger *slog.Logger,
	sessions *session.CookieStore,
	links *service.LinkService,
	library *service.LibraryService,
	dbCheck func(context.Context) error,
	botCheck func(context.Context) error,
) *Server {
	server := &Server{
		cfg:       cfg,
		logger:    logger,
		sessions:  sessions,
		links:     links,
		library:   library,
		dbCheck:   dbCheck,
		botCheck:  botCheck,
		startedAt: time.Now(),
	}
	server.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger(), s.corsMiddleware())

	engine.GET("/", s.handleRoot)
	engine.GET("/healthz", s.handleHealthz)

	engine.POST("/api/link", s.handleLink)
	engine.POST("/api/send", s.handleSend)
	engine.GET("/api/logout", s.handleLogout)
	engine.POST("/api/logout", s.handleLogout)
	// Kept for old bookmarks that hit the bare path.
	engine.GET("/logout", s.handleLogout)

	engine.GET("/api/history", s.handleHistory)
	engine.GET("/api/favorites", s.handleFavorites)
	engine.GET("/api/charts", s.handleCharts)
	engine.GET("/api/user_by_token", s.handleUserByToken)

	return engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "musicweb",
		"endpoints": gin.H{
			"link":          "POST /api/link {code}",
			"send":          "POST /api/send {query, code?}",
			"logout":        "GET|POST /api/logout",
			"history":       "GET /api/history",
			"favorites":     "GET /api/favorites?limit=",
			"charts":        "GET /api/charts?period=week|month|year|all&limit=",
			"user_by_token": "GET /api/user_by_token?token=",
			"health":        "GET /healthz",
		},
	})
}

type linkRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleLink(c *gin.Context) {
	var req linkRequest
	// A malformed body reads as an empty code; the coordinator rejects it.
	_ = c.ShouldBindJSON(&req)

	state := s.sessions.Load(c.Request)
	status, body := s.links.Link(c.Request.Context(), state, req.Code)
	s.respond(c, state, status, body)
}

type sendRequest struct {
	Query string `json:"query"`
	Code  string `json:"code"`
}

func (s *Server) handleSend(c *gin.Context) {
	var req sendRequest
	_ = c.ShouldBindJSON(&req)

	state := s.sessions.Load(c.Request)
	status, body := s.links.SendSong(c.Request.Context(), state, req.Query, req.Code)
	s.respond(c, state, status, body)
}

func (s *Server) handleLogout(c *gin.Context) {
	var req linkRequest
	if c.Request.Method == http.MethodPost {
		_ = c.ShouldBindJSON(&req)
	}
	code := req.Code
	if code == "" {
		code = c.Query("code")
	}

	state := s.sessions.Load(c.Request)
	status, body := s.links.Logout(c.Request.Context(), state, code)
	s.respond(c, state, status, body)
}

func (s *Server) handleHistory(c *gin.Context) {
	state := s.sessions.Load(c.Request)
	status, body := s.library.History(c.Request.Context(), state, c.Query("code"))
	s.respond(c, state, status, body)
}

func (s *Server) handleFavorites(c *gin.Context) {
	state := s.sessions.Load(c.Request)
	status, body := s.library.Favorites(c.Request.Context(), state, c.Query("code"), c.Query("limit"))
	s.respond(c, state, status, body)
}

func (s *Server) handleCharts(c *gin.Context) {
	status, body := s.library.Charts(c.Request.Context(), c.Query("period"), c.Query("limit"))
	c.JSON(status, body)
}

func (s *Server) handleUserByToken(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.Query("code")
	}
	status, body := s.library.UserByToken(c.Request.Context(), token)
	c.JSON(status, body)
}

type serviceCheck struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthResponse struct {
	UptimeSeconds int64        `json:"uptimeSeconds"`
	Database      serviceCheck `json:"database"`
	Bot           serviceCheck `json:"bot"`
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	res := healthResponse{UptimeSeconds: int64(time.Since(s.startedAt).Seconds())}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Database = checkFromErr(s.dbCheck(ctx))
	}()
	go func() {
		defer wg.Done()
		res.Bot = checkFromErr(s.botCheck(ctx))
	}()
	wg.Wait()

	c.JSON(http.StatusOK, res)
}

func checkFromErr(err error) serviceCheck {
	if err == nil {
		return serviceCheck{OK: true}
	}
	return serviceCheck{OK: false, Error: err.Error()}
}

// respond persists session mutations before the body is written; cookies
// cannot be set afterwards.
func (s *Server) respond(c *gin.Context, state *session.State, status int, body map[string]any) {
	s.sessions.Save(c.Writer, state)
	c.JSON(status, body)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Writer.Header().Set("X-Request-Id", requestID)

		c.Next()

		s.logger.Info("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && s.originAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
