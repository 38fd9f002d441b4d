package cli

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/quranlake/internal/controller"
	"github.com/smokyabdulrahman/quranlake/internal/metrics"
	"github.com/smokyabdulrahman/quranlake/internal/quran"
	"github.com/smokyabdulrahman/quranlake/internal/server"
)

// rolloverInterval is how often long-running commands check for a new day.
const rolloverInterval = 5 * time.Minute

var flagListen string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the adhan scheduler",
		Long:  "Serve prayer times, adhan controls and the reciter catalogue over HTTP,\nplay the adhan when each prayer is due and expose Prometheus metrics.",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (overrides listen_addr)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("listen") {
		cfg.ListenAddr = flagListen
	}
	log, err := newLogger(cmd, cfg, "info")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	trigger, err := a.newTrigger()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	go a.monitor.Run(ctx)
	go a.ctrl.Watch(ctx, a.monitor.Subscribe())
	go func() {
		if err := a.ctrl.Start(ctx); err != nil && !errors.Is(err, controller.ErrSuperseded) {
			log.Warn().Err(err).Msg("initial load failed")
		}
	}()
	go trigger.Run(ctx)
	go a.rollover(ctx, rolloverInterval)

	srv := server.New(server.Deps{
		Views:      a.ctrl,
		Adhan:      trigger,
		Catalogue:  a.catalogue,
		Gatherer:   reg,
		TimeFormat: goTimeFormat(cfg),
		Language:   quran.APILanguage(cfg.Language),
		Logger:     log,
	})
	return srv.Run(ctx, cfg.ListenAddr)
}
