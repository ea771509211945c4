// HostProbe: serves point-in-time host resource utilization as JSON.
// Author: vesaa | License: MIT | https://github.com/vesaa/hostprobe
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vesaa/hostprobe/internal/config"
	"github.com/vesaa/hostprobe/internal/logging"
	"github.com/vesaa/hostprobe/internal/sampler"
	"github.com/vesaa/hostprobe/internal/server"
)

const version = "v0.1.0"

// errUsage signals a wrong argument count; the usage line is already printed.
var errUsage = errors.New("usage")

// runFunc starts serving; swapped in tests so no socket is opened.
type runFunc func(ctx context.Context, cfg *config.Config, address string, port int) error

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr, serve)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "hostprobe: %v\n", err)
		}
		os.Exit(1)
	}
}

func usage(name string) string {
	return fmt.Sprintf("Usage:\n  %s [address] [port]\n", name)
}

// newRootCmd builds the command line: exactly two positional arguments,
// address and port.
func newRootCmd(stdout, stderr io.Writer, run runFunc) *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "hostprobe [address] [port]",
		Short: "Serve host CPU, memory, network and disk utilization as JSON",
		Long: `HostProbe listens on address:port and answers every GET request with a
fresh snapshot of host utilization. CPU usage is measured over a one second
window, so each request takes at least one second.

Example:
  hostprobe localhost 9090`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				fmt.Fprint(cmd.OutOrStdout(), usage(cmd.Name()))
				return errUsage
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[1])
			if err != nil {
				return err
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return run(cmd.Context(), cfg, args[0], port)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to a YAML config file (default ./hostprobe.yaml)")
	return cmd
}

// parsePort accepts a decimal TCP port in 0-65535.
func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: must be an integer", s)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %d: must be between 0 and 65535", port)
	}
	return port, nil
}

// serve wires the sampler to the HTTP server and blocks until ctx is done.
func serve(ctx context.Context, cfg *config.Config, address string, port int) error {
	log := logging.New(cfg, os.Stderr)

	gin.SetMode(gin.ReleaseMode)
	smp := sampler.New(sampler.NewHostSource(), sampler.WithLogger(log.Named("sampler")))
	router := server.NewRouter(smp, log.Named("server"))

	return server.Run(ctx, address, port, router, server.Options{
		ShutdownTimeout: cfg.ShutdownTimeout(),
		Log:             log.Named("server"),
	})
}
