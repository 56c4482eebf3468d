// Package statusapi exposes a read-only HTTP introspection endpoint over
// the running node's membership table and message queues, adapted from
// the distributed-queue module's ApiServer.
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// H is a shorthand map type for JSON response bodies.
type H map[string]any

// Ctx carries the request/response pair into a handler function.
type Ctx struct {
	Request *http.Request
	Writer  http.ResponseWriter
}

// JSON writes v as a JSON response with the given status code.
func (c *Ctx) JSON(statusCode int, v H) error {
	c.Writer.Header().Add("Content-Type", "application/json")
	c.Writer.WriteHeader(statusCode)
	return json.NewEncoder(c.Writer).Encode(v)
}

// NewServer creates a Server bound to addr, with an empty route table.
func NewServer(addr string, logger *zap.Logger) *Server {
	return &Server{logger: logger, addr: addr, mux: http.NewServeMux(), router: map[string]func(*Ctx){}}
}

// Server is a minimal read-only HTTP router, additive to the operator
// shell: it never accepts commands that mutate state.
type Server struct {
	logger *zap.Logger
	addr   string

	mux    *http.ServeMux
	router map[string]func(*Ctx)

	httpServer *http.Server
	shutdown   chan chan error
}

// HandleFunc registers fn for the given method and path.
func (s *Server) HandleFunc(method, path string, fn func(*Ctx)) {
	s.router[routerKey(method, path)] = fn
}

// Run starts serving HTTP requests in the background.
func (s *Server) Run() error {
	s.shutdown = make(chan chan error)

	dispatch := func(w http.ResponseWriter, r *http.Request) {
		c := &Ctx{Writer: w, Request: r}
		fn, ok := s.router[routerKey(r.Method, r.URL.Path)]
		if !ok {
			c.JSON(http.StatusNotFound, H{"status": "not found"})
			return
		}
		fn(c)
	}
	s.mux.HandleFunc("/", dispatch)

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.mux}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status api server stopped unexpectedly", zap.Error(err))
		}
	}()

	go func() {
		respCh := <-s.shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		respCh <- s.httpServer.Shutdown(ctx)
	}()

	s.logger.Info("status api listening", zap.String("addr", s.addr))
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop() error {
	errCh := make(chan error)
	s.shutdown <- errCh
	return <-errCh
}

func routerKey(method, path string) string {
	return fmt.Sprintf("%s:%s", method, path)
}
