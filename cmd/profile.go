package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/component-inspector/internal/output"
	"github.com/mj1618/component-inspector/internal/profiler"
	"github.com/mj1618/component-inspector/internal/protocol"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Record change detection timing",
	Long: `Record change detection frames for --duration (or until Ctrl+C) and print
them. With --summary, the frames are aggregated per directive and sorted
by total time spent.

Examples:
  inspector profile --duration 5s --summary
  inspector profile --timing-api --format json > frames.json`,
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().Duration("duration", 3*time.Second, "How long to record (0 = until Ctrl+C)")
	profileCmd.Flags().Bool("summary", false, "Print an aggregated summary instead of raw frames")
	profileCmd.Flags().Bool("timing-api", false, "Also annotate hooks in the agent's execution trace while recording")
	profileCmd.Flags().Bool("live", false, "Log each frame to stderr as it arrives")
}

type profileResult struct {
	Frames []protocol.ProfilerFrame `json:"frames"`
}

func runProfile(cmd *cobra.Command, args []string) error {
	duration, _ := cmd.Flags().GetDuration("duration")
	summary, _ := cmd.Flags().GetBool("summary")
	timing, _ := cmd.Flags().GetBool("timing-api")
	live, _ := cmd.Flags().GetBool("live")
	if duration < 0 {
		return fmt.Errorf("--duration must not be negative")
	}

	s, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if live {
		s.OnFrame(func(f protocol.ProfilerFrame) {
			fmt.Fprintf(os.Stderr, "frame %-16s %8.3fms  %d elements\n", f.Source, f.Duration, len(f.Directives))
		})
	}

	ctx, cancel := requestContext(cmd.Context())
	if timing {
		if err := s.EnableTimingAPI(ctx, true); err != nil {
			cancel()
			return err
		}
	}
	err = s.StartProfiling(ctx)
	cancel()
	if err != nil {
		return err
	}

	wait, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if duration > 0 {
		var c context.CancelFunc
		wait, c = context.WithTimeout(wait, duration)
		defer c()
	}
	<-wait.Done()

	ctx, cancel = requestContext(context.WithoutCancel(cmd.Context()))
	defer cancel()
	frames, err := s.StopProfiling(ctx)
	if err != nil {
		return err
	}
	if timing {
		if err := s.EnableTimingAPI(ctx, false); err != nil {
			logger.Debug().Err(err).Msg("disabling timing API failed")
		}
	}
	if summary {
		return output.Print(profiler.Aggregate(frames))
	}
	if frames == nil {
		frames = []protocol.ProfilerFrame{}
	}
	return output.Print(profileResult{Frames: frames})
}
