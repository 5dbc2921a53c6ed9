// Package httpapi exposes the REST interface of taskkeeper over gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address string
	logger  logging.Logger
	users   UserService
	tasks   TaskService
	avatars AvatarService
	engine  *gin.Engine
}

func NewServer(address string, l logging.Logger, us UserService, ts TaskService, as AvatarService) *Server {
	s := &Server{
		address: address,
		logger:  l.With("module", "http_server"),
		users:   us,
		tasks:   ts,
		avatars: as,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 2 << 20
	r.Use(gin.Recovery(), requestID(), s.requestLogger())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
	})

	users := r.Group("/users")
	users.POST("", s.register)
	users.POST("/login", s.login)
	users.GET("/:id/avatar", s.getAvatar)

	me := users.Group("", s.authGate())
	me.POST("/logout", s.logout)
	me.POST("/logoutAll", s.logoutAll)
	me.GET("/me", s.me)
	me.PATCH("/me", s.updateMe)
	me.DELETE("/me", s.deleteMe)
	me.POST("/me/avatar", s.uploadAvatar)
	me.DELETE("/me/avatar", s.deleteAvatar)

	tasks := r.Group("/tasks", s.authGate())
	tasks.POST("", s.createTask)
	tasks.GET("", s.listTasks)
	tasks.GET("/:id", s.getTask)
	tasks.PATCH("/:id", s.updateTask)
	tasks.DELETE("/:id", s.deleteTask)

	return r
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
