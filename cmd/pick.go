package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/output"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Turn on the element picker and stream what it reports",
	Long: `Put the agent into inspector mode. Every element hovered or clicked in
the application is reported as a JSONL line carrying its id. The picker is
turned off again on exit.

Use Ctrl+C or --duration to stop.`,
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)
	pickCmd.Flags().Duration("duration", 0, "How long to pick (0 = until Ctrl+C)")
	pickCmd.Flags().Bool("once", false, "Exit after the first selection")
}

type pickEvent struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
	ID   int    `json:"id"`
}

func runPick(cmd *cobra.Command, args []string) error {
	duration, _ := cmd.Flags().GetDuration("duration")
	once, _ := cmd.Flags().GetBool("once")

	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var mu sync.Mutex
	enc := output.NewEncoder(output.Stdout, false)
	emit := func(typ string, id int) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(pickEvent{Type: typ, TS: time.Now().Unix(), ID: id})
	}
	selected := make(chan struct{}, 1)
	s.OnHighlight(func(id int) { emit("hover", id) })
	s.OnSelect(func(id int) {
		emit("select", id)
		select {
		case selected <- struct{}{}:
		default:
		}
	})

	rctx, cancel := requestContext(ctx)
	err = s.Inspector(rctx, true)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		rctx, cancel := requestContext(context.WithoutCancel(cmd.Context()))
		defer cancel()
		if err := s.Inspector(rctx, false); err != nil {
			logger.Debug().Err(err).Msg("inspector not stopped")
		}
	}()

	var timeout <-chan time.Time
	if duration > 0 {
		t := time.NewTimer(duration)
		defer t.Stop()
		timeout = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return nil
		case <-selected:
			if once {
				return nil
			}
		}
	}
}
