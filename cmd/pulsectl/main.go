// Command pulsectl inspects and controls a PulseAudio server over the
// native protocol.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/deskaudio/pulse"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds the state shared by all subcommands.
type app struct {
	configPath string
	flags      Config
	cfg        Config
	log        *slog.Logger
	out        *printer

	// dialer replaces the network dialer in tests.
	dialer pulse.Dialer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(&app{}).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pulsectl",
		Short: "Inspect and control a PulseAudio server",
		Long: `pulsectl talks to a PulseAudio (or PipeWire) server over the native
protocol. It lists and changes devices and streams, follows the server's
events, and can serve them to desktop components over HTTP.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "configuration file (default $XDG_CONFIG_HOME/pulsectl/config.yaml)")
	f.StringVarP(&a.flags.Server, "server", "s", "", "server string, as in PULSE_SERVER")
	f.StringVar(&a.flags.CookieFile, "cookie", "", "authentication cookie file")
	f.DurationVar(&a.flags.Timeout, "timeout", 0, "timeout for connecting and for each request")
	f.StringVarP(&a.flags.Output, "output", "o", "", "output format: text, json or yaml")
	f.StringVar(&a.flags.Log.Level, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&a.flags.Log.Format, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(
		infoCmd(a),
		listCmd(a),
		getCmd(a),
		lookupCmd(a),
		volumeCmd(a),
		muteCmd(a),
		suspendCmd(a),
		defaultCmd(a),
		killCmd(a),
		moveCmd(a),
		portCmd(a),
		profileCmd(a),
		latencyOffsetCmd(a),
		subscribeCmd(a),
		serveCmd(a),
		versionCmd(),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	path, explicit := a.configPath, a.configPath != ""
	if !explicit {
		path = defaultConfigPath()
	}
	cfg, err := loadConfig(path, explicit, os.Getenv)
	if err != nil {
		return err
	}
	cfg.override(a.flags)
	if err := cfg.validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = setupLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	a.out = newPrinter(cmd.OutOrStdout(), cfg.Output)
	return nil
}

// connect opens a client using the resolved configuration.
func (a *app) connect(ctx context.Context, opts ...pulse.ClientOption) (*pulse.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	opts = append([]pulse.ClientOption{
		pulse.ClientApplicationName("pulsectl"),
		pulse.ClientProperty("application.version", version),
		pulse.ClientServerString(a.cfg.Server),
		pulse.ClientCookieFile(a.cfg.CookieFile),
		pulse.ClientLogger(a.log),
	}, opts...)
	if a.dialer != nil {
		opts = append(opts, pulse.ClientDialer(a.dialer))
	}
	return pulse.NewClient(ctx, opts...)
}

// run connects, calls fn with a per-request timeout and closes the client.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, c *pulse.Client) error) error {
	c, err := a.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer c.Close()
	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
	defer cancel()
	return fn(ctx, c)
}

// newMetrics returns client metrics registered on a fresh registry.
func newMetrics() (*pulse.Metrics, *prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	m := pulse.NewMetrics()
	if err := m.Register(reg); err != nil {
		return nil, nil, err
	}
	return m, reg, nil
}
