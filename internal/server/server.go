package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/net/netutil"
)

// Options tunes Run and Serve.
type Options struct {
	// ShutdownTimeout bounds how long an in-flight request may take to finish
	// after ctx is cancelled. Zero waits without a bound.
	ShutdownTimeout time.Duration
	Log             hclog.Logger
}

func (o Options) logger() hclog.Logger {
	if o.Log == nil {
		return hclog.NewNullLogger()
	}
	return o.Log
}

// Run binds address:port and serves h until ctx is cancelled.
// A bind failure is returned before any request is served.
func Run(ctx context.Context, address string, port int, h http.Handler, opts Options) error {
	addr := net.JoinHostPort(address, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return Serve(ctx, ln, h, opts)
}

// Serve handles connections from ln strictly one at a time: the next
// connection is not accepted until the current one has been answered and
// closed. It returns nil once ctx is cancelled and the in-flight request,
// if any, has completed.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, opts Options) error {
	log := opts.logger()

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true}),
	}
	// One request per connection, so an idle client cannot hold the only slot.
	srv.SetKeepAlivesEnabled(false)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(netutil.LimitListener(ln, 1)) }()
	log.Info("starting httpd", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	log.Info("stopping httpd")
	shutdownCtx := context.Background()
	if opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, opts.ShutdownTimeout)
		defer cancel()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutting down: %w", err)
	}
	<-errCh
	return nil
}
