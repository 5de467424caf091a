// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// ash-sim runs simulated SQL sessions against an in-process active session
// history and serves the sampled history over HTTP.
//
// Settings are read from a YAML file of setting overrides, which is reloaded
// when it changes or on SIGHUP:
//
//	obs.ash.sampling_interval: 250ms
//	obs.ash.sample_size: 10
//	obs.ash.track_nested_queries.enabled: true
package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/ash/pkg/obs/ash"
	"github.com/cockroachdb/ash/pkg/server/status"
	"github.com/cockroachdb/ash/pkg/settings"
	"github.com/cockroachdb/ash/pkg/sql/execobs"
	"github.com/cockroachdb/ash/pkg/util/log"
	"github.com/cockroachdb/ash/pkg/util/metric"
	"github.com/cockroachdb/ash/pkg/util/stop"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type simOpts struct {
	settingsPath   string
	sessions       int
	tablets        int
	httpAddr       string
	duration       time.Duration
	think          time.Duration
	reportInterval time.Duration
	watchParent    bool
}

var opts = simOpts{
	sessions:       16,
	tablets:        8,
	httpAddr:       "localhost:8090",
	think:          50 * time.Millisecond,
	reportInterval: time.Second,
}

func registerFlags(f *pflag.FlagSet, o *simOpts) {
	f.StringVar(&o.settingsPath, "settings", o.settingsPath, "YAML file of setting overrides, reloaded on change and on SIGHUP")
	f.IntVarP(&o.sessions, "sessions", "n", o.sessions, "number of simulated sessions")
	f.IntVar(&o.tablets, "tablets", o.tablets, "number of tablets of the simulated storage node; 0 disables the node feed")
	f.StringVar(&o.httpAddr, "http-addr", o.httpAddr, "address to serve /_status/ on; empty disables the HTTP server")
	f.DurationVar(&o.duration, "duration", o.duration, "how long to run the simulation for; 0 runs until interrupted")
	f.DurationVar(&o.think, "think", o.think, "mean duration of each simulated wait")
	f.DurationVar(&o.reportInterval, "report-interval", o.reportInterval, "interval between progress reports; 0 disables them")
	f.BoolVar(&o.watchParent, "watch-parent", o.watchParent, "exit when the parent process dies")
}

var rootCmd = &cobra.Command{
	Use:   "ash-sim",
	Short: "simulate sessions sampled by active session history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runSim(ctx, cmd.OutOrStdout(), opts)
	},
	SilenceUsage: true,
}

func init() {
	registerFlags(rootCmd.Flags(), &opts)
}

func (o *simOpts) validate() error {
	if o.sessions < 0 || o.tablets < 0 {
		return errors.Newf("--sessions and --tablets must not be negative")
	}
	if o.think <= 0 {
		return errors.Newf("--think must be positive")
	}
	return nil
}

// runSim runs the simulation until ctx is canceled, the duration elapses
// or, with --watch-parent, the parent process dies.
func runSim(ctx context.Context, out io.Writer, o simOpts) error {
	if err := o.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if o.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}
	stopper := stop.NewStopper()
	defer stopper.Stop(context.Background())

	sv := settings.MakeValues()
	var file *settingsFile
	if o.settingsPath != "" {
		file = &settingsFile{path: o.settingsPath, sv: sv}
		if err := file.load(ctx); err != nil {
			return err
		}
	}

	cfg := ash.Config{Settings: sv}
	var tablets *tabletServer
	if o.tablets > 0 {
		tablets = newTabletServer(o.tablets)
		cfg.NodeSource = tablets
	}
	if o.watchParent {
		ppid := os.Getppid()
		cfg.ParentAlive = func() bool { return os.Getppid() == ppid }
		cfg.OnParentDeath = cancel
	}
	a, err := ash.New(ctx, cfg)
	if err != nil {
		return err
	}

	registry := metric.NewRegistry()
	registry.AddMetricStruct(a.Metrics())
	execMetrics := execobs.MakeMetrics()
	registry.AddMetricStruct(&execMetrics)

	if file != nil {
		sighup := make(chan os.Signal, 1)
		signal.Notify(sighup, syscall.SIGHUP)
		defer signal.Stop(sighup)
		if err := file.watch(ctx, stopper, sighup); err != nil {
			return err
		}
	}
	if err := a.Start(ctx, stopper); err != nil {
		return err
	}
	if o.httpAddr != "" {
		if err := serveStatus(ctx, stopper, o.httpAddr, a, sv, registry); err != nil {
			return err
		}
	}

	if tablets == nil {
		// Sessions only issue storage RPCs to a node that feeds samples.
		tablets = newTabletServer(1)
	}
	sim := &simulator{
		ash:         a,
		tablets:     tablets,
		execMetrics: &execMetrics,
		think:       o.think,
	}
	log.Infof(ctx, "simulating %d sessions against %d tablets", o.sessions, o.tablets)
	if err := sim.run(ctx, o.sessions, out, o.reportInterval); err != nil {
		return err
	}
	if a.Buffer() == nil {
		return nil
	}
	return sim.finalStatus(out)
}

// serveStatus serves the status endpoints on addr until the stopper
// quiesces.
func serveStatus(
	ctx context.Context,
	stopper *stop.Stopper,
	addr string,
	a *ash.ActiveSessionHistory,
	sv *settings.Values,
	registry *metric.Registry,
) error {
	handler, err := status.NewServer(a, sv, registry)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", addr)
	}
	log.Infof(ctx, "serving status on http://%s/_status/", ln.Addr())
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	return stopper.RunAsyncTask(ctx, "status-server", func(ctx context.Context) {
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve(ln) }()
		select {
		case <-stopper.ShouldQuiesce():
			_ = srv.Close()
			<-errCh
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				log.Errorf(ctx, "status server: %v", err)
			}
		}
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
