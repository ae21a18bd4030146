package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/output"
	"github.com/mj1618/component-inspector/internal/tree"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream component tree changes as JSONL",
	Long: `Re-read the component tree whenever the agent reports it dirty and emit
the added, removed and changed elements as JSONL on stdout.

Each line is one change event. Nothing is printed while the tree is
stable. Output is always JSONL regardless of --format.

Use Ctrl+C or --duration to stop watching.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("duration", 0, "How long to watch (0 = until Ctrl+C)")
	watchCmd.Flags().Bool("ignore-moves", false, "Ignore position changes of surviving elements")
}

type watchEvent struct {
	Type       string `json:"type"`
	TS         int64  `json:"ts"`
	Count      int    `json:"count,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
	Events     int    `json:"events,omitempty"`
	Elapsed    string `json:"elapsed,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	duration, _ := cmd.Flags().GetDuration("duration")
	ignoreMoves, _ := cmd.Flags().GetBool("ignore-moves")

	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	enc := output.NewEncoder(output.Stdout, false)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}
	start := time.Now()

	read := func() ([]tree.FlatNode, error) {
		rctx, cancel := requestContext(ctx)
		defer cancel()
		view, err := s.ComponentView(rctx, nil)
		if err != nil {
			return nil, err
		}
		return tree.FlattenForest(view.Forest), nil
	}

	prev, err := read()
	if err != nil {
		return fmt.Errorf("initial read failed: %w", err)
	}
	_ = enc.Encode(watchEvent{Type: "snapshot", TS: time.Now().Unix(), Count: len(prev), Generation: s.Generation()})

	events := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-s.Dirty():
		}
		curr, err := read()
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			_ = enc.Encode(watchEvent{Type: "error", TS: time.Now().Unix(), Error: err.Error()})
			continue
		}
		for _, change := range tree.DiffForests(prev, curr).Changes(time.Now().Unix()) {
			if change.Type == tree.ChangeChanged && ignoreMoves {
				delete(change.Changes, "pos")
				if len(change.Changes) == 0 {
					continue
				}
			}
			_ = enc.Encode(change)
			events++
		}
		prev = curr
	}

	return enc.Encode(watchEvent{
		Type:    "done",
		TS:      time.Now().Unix(),
		Events:  events,
		Elapsed: time.Since(start).Round(time.Millisecond).String(),
	})
}
