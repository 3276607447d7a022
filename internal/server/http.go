// Package server exposes the read API and health endpoints over
// HTTP/JSON. Writes never go through here: all mutations enter via the
// NATS ingestion surface so the sequencer stays the single writer.
package server

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"RollupLedger/internal/observability"
	"RollupLedger/internal/query"
)

// ServerDeps carries the dependencies the HTTP server serves from.
type ServerDeps struct {
	QueryService  *query.QueryService
	HealthChecker *observability.HealthChecker
	StartTime     time.Time
}

// HTTPServer serves the read-only JSON API.
type HTTPServer struct {
	addr   string
	deps   *ServerDeps
	logger zerolog.Logger
}

func NewHTTPServer(addr string, deps *ServerDeps) *HTTPServer {
	return &HTTPServer{
		addr:   addr,
		deps:   deps,
		logger: observability.NewLogger("http"),
	}
}

// Router builds the gin engine with all routes mounted.
func (s *HTTPServer) Router() *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))

	// Health (public, no auth)
	router.GET("/healthz", gin.WrapF(s.deps.HealthChecker.LivenessHandler))
	router.GET("/readyz", gin.WrapF(s.deps.HealthChecker.ReadinessHandler))

	v1 := router.Group("/v1")
	{
		v1.GET("/accounts", s.getAccountByKey)
		v1.GET("/accounts/:id", s.getAccount)
		v1.GET("/envelopes", s.listEnvelopes)
		v1.GET("/chain", s.chainState)
		v1.GET("/integrity", s.integrity)
		v1.GET("/status", s.status)
	}
	return router
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutCtx)
	}()

	s.logger.Info().Str("addr", s.addr).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// getAccount handles GET /v1/accounts/:id.
func (s *HTTPServer) getAccount(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	acct, err := s.deps.QueryService.GetAccount(c.Request.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Int64("id", id).Msg("account query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if acct == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	c.JSON(http.StatusOK, acct)
}

// getAccountByKey handles GET /v1/accounts?pubkey={hex}.
func (s *HTTPServer) getAccountByKey(c *gin.Context) {
	pubkey := c.Query("pubkey")
	if pubkey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing pubkey parameter"})
		return
	}

	acct, err := s.deps.QueryService.GetAccountByKey(c.Request.Context(), pubkey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pubkey"})
		return
	}
	if acct == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}

	c.JSON(http.StatusOK, acct)
}

// listEnvelopes handles GET /v1/envelopes?after={seq}&limit={n}.
func (s *HTTPServer) listEnvelopes(c *gin.Context) {
	after := int64(-1)
	if v := c.Query("after"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after cursor"})
			return
		}
		after = parsed
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	envelopes, err := s.deps.QueryService.ListEnvelopes(c.Request.Context(), after, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("envelope query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"envelopes": envelopes,
		"count":     len(envelopes),
	})
}

// chainState handles GET /v1/chain.
func (s *HTTPServer) chainState(c *gin.Context) {
	state, err := s.deps.QueryService.GetChainState(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("chain state query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, state)
}

// integrity handles GET /v1/integrity.
func (s *HTTPServer) integrity(c *gin.Context) {
	report, err := s.deps.QueryService.VerifyIntegrity(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("integrity check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "integrity check failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// status handles GET /v1/status.
func (s *HTTPServer) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ready":          s.deps.HealthChecker.IsReady(),
		"uptime_seconds": int64(time.Since(s.deps.StartTime).Seconds()),
	})
}

// requestLogger returns a gin middleware that logs each request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
