// Package dav serves a directory over WebDAV behind HTTP Basic auth. It is
// a development peer for the bookmark client, not a hardened file server.
package dav

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/davmarks/internal/logging"
	"golang.org/x/net/webdav"
)

type Server struct {
	address         string
	root            string
	username        string
	password        string
	shutdownTimeout time.Duration
	logger          logging.Logger
	handler         http.Handler
}

func NewServer(address, root, username, password string, shutdownTimeout time.Duration, l logging.Logger) *Server {
	s := &Server{
		address:         address,
		root:            root,
		username:        username,
		password:        password,
		shutdownTimeout: shutdownTimeout,
		logger:          l.With("module", "dav_server"),
	}

	dav := &webdav.Handler{
		FileSystem: webdav.Dir(root),
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				s.logger.Warn(r.Context(), "webdav request failed", "method", r.Method, "path", r.URL.Path, "error", err)
				return
			}
			s.logger.Debug(r.Context(), "webdav request", "method", r.Method, "path", r.URL.Path)
		},
	}
	s.handler = s.basicAuth(dav)

	return s
}

// Handler returns the authenticated WebDAV handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens until ctx is cancelled, then drains in-flight requests for at
// most the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping WebDAV server...")

		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error(sctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting WebDAV server", "address", listen.Addr().String(), "root", s.root)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped

	return nil
}
