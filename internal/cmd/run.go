package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/prodcon/internal/config"
	"github.com/Iron-Ham/prodcon/internal/engine"
	"github.com/Iron-Ham/prodcon/internal/logging"
	"github.com/Iron-Ham/prodcon/internal/render"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run without a UI, printing one line per render",
	Long: `Run the timers without the terminal UI.

Each render prints one line with the mode, the timer count and the count.
The run ends after --duration, or on SIGINT/SIGTERM, and prints a summary.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int("producers", 1, "producer timers to start")
	runCmd.Flags().Int("consumers", 1, "consumer timers to start")
	runCmd.Flags().Duration("duration", 10*time.Second, "how long to run (0 runs until interrupted)")
	runCmd.Flags().BoolP("verbose", "v", false, "log at debug level to stderr")
}

func runRun(cmd *cobra.Command, args []string) error {
	producers, consumers, err := timerFlags(cmd)
	if err != nil {
		return err
	}
	duration, err := cmd.Flags().GetDuration("duration")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := createLogger(cfg, verbose, cmd.ErrOrStderr())
	defer func() { _ = logger.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return headless(ctx, cmd.OutOrStdout(), cfg, logger, headlessOptions{
		producers: producers,
		consumers: consumers,
		duration:  duration,
	})
}

type headlessOptions struct {
	producers int
	consumers int
	duration  time.Duration

	// engine overrides the options derived from the config; tests use it
	// to inject a clock.
	engine func(*engine.Options)
}

// headless runs the engine with a render loop that prints each frame to out
// until ctx is done or the duration passes, then prints a summary.
func headless(ctx context.Context, out io.Writer, cfg *config.Config, logger *logging.Logger, o headlessOptions) error {
	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}

	var eng *engine.Engine
	loop := render.NewLoop(func(f render.Frame) {
		s := eng.Snapshot()
		fmt.Fprintf(out, "frame %-5d %-15s timers=%-4d count=%d\n", f.Seq, s.Mode, s.Timers, s.Count)
	})

	logger = logger.With("command", "run", "producers", o.producers, "consumers", o.consumers)
	logger.Info("headless run started", "duration", o.duration.String())

	opts := engine.OptionsFromConfig(cfg)
	opts.Logger = logger
	if o.engine != nil {
		o.engine(&opts)
	}
	eng = engine.New(loop, opts)
	defer eng.Close()

	for range o.producers {
		if err := eng.AddProducer(); err != nil {
			return err
		}
	}
	for range o.consumers {
		if err := eng.AddConsumer(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		eng.Close()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	printSummary(out, eng.Snapshot(), loop.Drawn())
	return nil
}

func printSummary(out io.Writer, s engine.Snapshot, frames uint64) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  count:            %d\n", s.Count)
	fmt.Fprintf(out, "  mode:             %s\n", s.Mode)
	fmt.Fprintf(out, "  timers:           %d (producers %d, consumers %d, refresh %d)\n",
		s.Timers, s.Producers, s.Consumers, s.Refresh)
	fmt.Fprintf(out, "  firings:          %d\n", s.Firings)
	fmt.Fprintf(out, "  frames drawn:     %d\n", frames)
	fmt.Fprintf(out, "  event renders:    %d\n", s.Renders.EventRenders)
	fmt.Fprintf(out, "  interval renders: %d\n", s.Renders.IntervalRenders)
	fmt.Fprintf(out, "  increments:       %d\n", s.Counter.Increments)
	fmt.Fprintf(out, "  decrements:       %d\n", s.Counter.Decrements)
	fmt.Fprintf(out, "  floor hits:       %d\n", s.Counter.FloorHits)
	if s.Counter.CeilingHits > 0 {
		fmt.Fprintf(out, "  ceiling hits:     %d (max %d)\n", s.Counter.CeilingHits, s.MaxCount)
	}
}
