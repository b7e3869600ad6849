package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/termsprite/internal/app"
	"github.com/dshills/termsprite/internal/config"
	"github.com/dshills/termsprite/internal/scene"
	"github.com/dshills/termsprite/internal/script"
)

// newTerminal opens the output device. Tests replace it with a recorder.
var newTerminal = app.NewStdTerminal

var runFlags struct {
	logFile string
	fps     int
	watch   bool
	stats   bool
}

var runCmd = &cobra.Command{
	Use:   "run [script.lua]",
	Short: "Run a scene",
	Long: `Loads the asset manifest, starts the scene script and draws until the
script quits, 'q' or Ctrl+C is pressed, or the process is interrupted.

Without a script the loaded assets are kept but nothing is drawn. Log lines
would corrupt the screen, so unless a log file is configured they are
discarded while the scene runs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.logFile, "log-file", "", "append log lines (including script print output) to this file")
	f.IntVar(&runFlags.fps, "fps", 0, "override render.fps")
	f.BoolVarP(&runFlags.watch, "watch", "w", false, "reload assets when their files change")
	f.BoolVar(&runFlags.stats, "stats", false, "print render statistics on exit")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg, args); err != nil {
		return err
	}

	logger, closer, err := app.NewLoggerFromConfig(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	assets, err := app.LoadAssets(cfg)
	if assets == nil {
		return err
	}
	var list *app.ErrorList
	if errors.As(err, &list) {
		for _, e := range list.Errors() {
			logger.Warn("%v", e)
		}
	}

	// Loggers copy their state when derived, so this must precede the
	// driver and runner.
	if closer == nil {
		logger.Disable()
	}

	opts := app.RunnerOptions{
		FrameInterval: cfg.FrameInterval(),
		CursorVisible: cfg.Render.CursorVisible,
		QuitRunes:     app.DefaultRunnerOptions().QuitRunes,
		Logger:        logger,
		Metrics:       app.NewMetrics(),
	}

	if cfg.Assets.Watch {
		w, err := app.WatchAssets(assets, cfg)
		if err != nil {
			return err
		}
		defer w.Close()
		opts.Reloads = w
	}

	var driver app.Driver = app.NopDriver{}
	if cfg.Scene.Script != "" {
		d := script.New(assets.Catalog, assets.Store, script.Options{Logger: logger})
		defer d.Close()
		if err := d.LoadFile(cfg.Scene.Script); err != nil {
			return err
		}
		driver = d
	}

	term, err := newTerminal(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := app.NewRunner(term, assets, scene.NewWorld(), driver, opts)
	if err := runner.Run(ctx); err != nil {
		return err
	}

	if runFlags.stats {
		printStats(cmd.OutOrStdout(), runner.Metrics().Snapshot())
	}
	return nil
}

// applyRunFlags layers the command line over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	if len(args) == 1 {
		cfg.Scene.Script = args[0]
	}
	if runFlags.logFile != "" {
		cfg.Logging.File = runFlags.logFile
	}
	if cmd.Flags().Changed("fps") {
		cfg.Render.FPS = runFlags.fps
	}
	if runFlags.watch {
		cfg.Assets.Watch = true
	}
	return cfg.Validate()
}

func printStats(w io.Writer, s app.MetricsSnapshot) {
	fmt.Fprintf(w, "Ran %d ticks in %s\n", s.TickCount, s.Uptime.Round(time.Millisecond))
	fmt.Fprintf(w, "  tick time:  avg %s, min %s, max %s\n",
		time.Duration(s.AvgTickNs), time.Duration(s.MinTickNs), time.Duration(s.MaxTickNs))
	fmt.Fprintf(w, "  output:     %d commands, %d cells, %.1f commands/tick\n",
		s.Commands, s.CellsChanged, s.AvgCommandsPerTick())
	fmt.Fprintf(w, "  idle ticks: %.1f%%\n", s.IdleRate())
	if s.Resyncs > 0 {
		fmt.Fprintf(w, "  resyncs:    %d\n", s.Resyncs)
	}
	if s.FailedTicks > 0 {
		fmt.Fprintf(w, "  failed:     %d (%.1f%%)\n", s.FailedTicks, s.FailureRate())
	}
	if s.Diagnostics > 0 {
		fmt.Fprintf(w, "  missing assets: %d\n", s.Diagnostics)
	}
	if s.Reloads > 0 || s.ReloadErrors > 0 {
		fmt.Fprintf(w, "  reloads:    %d (%d failed)\n", s.Reloads, s.ReloadErrors)
	}
}
