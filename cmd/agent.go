package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mj1618/component-inspector/internal/agent"
	"github.com/mj1618/component-inspector/internal/host"
	"github.com/mj1618/component-inspector/internal/protocol"
	"github.com/mj1618/component-inspector/internal/transport"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Host the application and serve it to panels over a websocket",
	Long: `Run the registered application and serve the inspection protocol.

Endpoints:
  /ws           websocket for one panel at a time
  /metrics      Prometheus metrics
  /overlay.png  the highlight overlay surface, when the application draws one

Examples:
  inspector agent
  inspector agent --listen :4711 --codec cbor
  INSPECTOR_RENDER_INTERVAL=100ms inspector agent`,
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.Flags().String("listen", "", "HTTP listen address (default 127.0.0.1:4711)")
	agentCmd.Flags().Duration("render-interval", 0, "Render tick of the hosted application")
}

// pngWriter is implemented by highlighters that render to an image.
type pngWriter interface {
	WritePNG(w io.Writer) error
}

func runAgent(cmd *cobra.Command, args []string) error {
	listen := settings.Listen
	if cmd.Flags().Changed("listen") {
		listen, _ = cmd.Flags().GetString("listen")
	}
	interval := settings.RenderInterval
	if cmd.Flags().Changed("render-interval") {
		interval, _ = cmd.Flags().GetDuration("render-interval")
	}
	if interval <= 0 {
		return fmt.Errorf("--render-interval must be positive")
	}
	codec, err := protocol.CodecByName(settings.Codec)
	if err != nil {
		return err
	}
	prov, err := host.NewProvider()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	var busy atomic.Bool
	serve := func(t transport.Transport) {
		if !busy.CompareAndSwap(false, true) {
			logger.Warn().Msg("rejecting panel: another panel is connected")
			return
		}
		defer busy.Store(false)

		ag, err := agent.New(agent.Config{
			Provider:      prov,
			Transport:     t,
			Codec:         codec,
			Logger:        &logger,
			ChunkSize:     settings.ChunkSize,
			ProfilerQueue: settings.ProfilerQueue,
		})
		if err != nil {
			logger.Error().Err(err).Msg("agent setup failed")
			return
		}
		if prov.Changes != nil {
			prov.Changes.OnChange(ag.NotifyTreeChanged)
			defer prov.Changes.OnChange(nil)
		}
		logger.Info().Msg("panel connected")
		if err := ag.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Info().Err(err).Msg("panel disconnected")
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", transport.Handler(transport.Options{Binary: codec.Binary(), Logger: &logger}, serve))
	mux.Handle("/metrics", promhttp.Handler())
	if w, ok := prov.Highlighter.(pngWriter); ok {
		mux.HandleFunc("/overlay.png", func(rw http.ResponseWriter, r *http.Request) {
			rw.Header().Set("Content-Type", "image/png")
			rw.Header().Set("Cache-Control", "no-store")
			if err := w.WritePNG(rw); err != nil {
				logger.Warn().Err(err).Msg("overlay encode failed")
			}
		})
	}
	srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g.Go(func() error {
		logger.Info().Str("listen", listen).Str("codec", codec.Name()).Str("version", prov.Info.Version).Msg("agent listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if prov.Runner != nil {
		g.Go(func() error { return prov.Runner.Run(ctx, interval) })
	}
	return g.Wait()
}
