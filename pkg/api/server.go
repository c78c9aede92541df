// Package api exposes the biometric unlock orchestrator over a loopback
// HTTP API, giving the application's unlock flow (or a browser extension
// proxy) a process boundary to call through.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eliziario/bioguard/internal/biometrics"
)

type Server struct {
	manager    *biometrics.Manager
	logger     *logrus.Logger
	httpServer *http.Server
}

type keyHalfRequest struct {
	Value string `json:"value"`
}

type protectKeyRequest struct {
	Value string `json:"value"`
}

type autoPromptRequest struct {
	Value bool `json:"value"`
}

func NewServer(manager *biometrics.Manager, logger *logrus.Logger, address string) *Server {
	s := &Server{manager: manager, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/status", s.handleStatus)
		apiGroup.POST("/authenticate", s.handleAuthenticate)
		apiGroup.POST("/setup", s.handleSetup)
		apiGroup.GET("/autoprompt", s.handleGetAutoPrompt)
		apiGroup.PUT("/autoprompt", s.handleSetAutoPrompt)

		users := apiGroup.Group("/users/:id")
		{
			users.GET("/status", s.handleUserStatus)
			users.PUT("/key-half", s.handleSetKeyHalf)
			users.POST("/unlock", s.handleUnlock)
			users.PUT("/key", s.handleProtectKey)
			users.DELETE("/key", s.handleForgetKey)
		}
	}

	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("address", s.httpServer.Addr).Info("API server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	status := s.manager.Status(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": status.String()})
}

func (s *Server) handleUserStatus(c *gin.Context) {
	status, err := s.manager.StatusForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status.String()})
}

func (s *Server) handleAuthenticate(c *gin.Context) {
	ok, err := s.manager.Authenticate(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": ok})
}

func (s *Server) handleSetup(c *gin.Context) {
	if err := s.manager.Setup(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSetKeyHalf(c *gin.Context) {
	var req keyHalfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.manager.SetClientKeyHalf(c.Param("id"), req.Value)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleUnlock(c *gin.Context) {
	key, err := s.manager.UnlockKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key.String()})
}

func (s *Server) handleProtectKey(c *gin.Context) {
	var req protectKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.manager.ProtectKey(c.Request.Context(), c.Param("id"), req.Value); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleForgetKey(c *gin.Context) {
	if err := s.manager.ForgetProtectedKey(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetAutoPrompt(c *gin.Context) {
	// consume=true folds read and reset into one atomic step; a plain read
	// leaves the flag alone and the caller must reset it after acting on it.
	if c.Query("consume") == "true" {
		c.JSON(http.StatusOK, gin.H{"value": s.manager.TakeAutoPrompt()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": s.manager.AutoPrompt()})
}

func (s *Server) handleSetAutoPrompt(c *gin.Context) {
	var req autoPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	s.manager.SetAutoPrompt(req.Value)
	c.Status(http.StatusNoContent)
}

// fail maps the core error taxonomy onto HTTP statuses. Every failure is
// surfaced once; the caller decides whether to fall back to the master
// password.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, biometrics.ErrKeyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, biometrics.ErrAuthenticationFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, biometrics.ErrKeyHalfMismatch):
		status = http.StatusConflict
	case errors.Is(err, biometrics.ErrMissingKeyHalf):
		status = http.StatusPreconditionFailed
	case errors.Is(err, biometrics.ErrInvalidKeyMaterial):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, biometrics.ErrAutoSetupUnavailable):
		status = http.StatusNotImplemented
	}

	s.logger.WithError(err).WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": status,
	}).Warn("request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("request")
	}
}
