// Command coach is a terminal client for career guidance and resume
// builder sessions.
//
// Usage:
//
//	coach [--kind guidance|resume] new [title]
//	coach [--kind guidance|resume] open <session-id>
//	coach [--kind guidance|resume] list
//	coach transcripts [--match pattern]
//	coach export <session-id> [--format json|markdown]
//	coach ats <resume-id>
//	coach resume-pdf <resume-id> [--out file]
//	coach template <resume-id> <template>
//
// Configuration comes from COACH_* environment variables and an optional
// .env file; flags override both.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sync"

	"github.com/iklavya/coach"
	"github.com/iklavya/coach/api"
	"github.com/iklavya/coach/chat"
	"github.com/iklavya/coach/config"
	"github.com/iklavya/coach/telemetry"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "coach: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	// Flag values.
	envFile       string
	kind          string
	apiURL        string
	token         string
	transcriptDir string
	logFile       string

	cfg      *config.Config
	logger   *slog.Logger
	client   *api.Client
	chatOpts []chat.Option
	closers  []func() error

	saveMu sync.Mutex // turns save from the TUI's goroutine
}

func newRootCmd() *cobra.Command {
	return newRoot(&app{})
}

// newRoot builds the command tree around a. Its resources are released
// when the command finishes, whether or not it failed.
func newRoot(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "coach",
		Short:         "Career guidance and resume builder sessions in the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return errors.Join(err, a.close())
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file with COACH_* variables")
	flags.StringVarP(&a.kind, "kind", "k", string(coach.KindGuidance), "session kind: guidance or resume")
	flags.StringVar(&a.apiURL, "api-url", "", "backend base URL (overrides COACH_API_URL)")
	flags.StringVar(&a.token, "token", "", "bearer token (overrides COACH_TOKEN)")
	flags.StringVar(&a.transcriptDir, "transcript-dir", "", "transcript directory (overrides COACH_TRANSCRIPT_DIR)")
	flags.StringVar(&a.logFile, "log-file", "", "log file (overrides COACH_LOG_FILE)")

	root.AddCommand(
		newNewCmd(a),
		newOpenCmd(a),
		newListCmd(a),
		newTranscriptsCmd(a),
		newExportCmd(a),
		newATSCmd(a),
		newResumePDFCmd(a),
		newTemplateCmd(a),
	)
	// Cobra skips post-run hooks after a failed RunE.
	for _, c := range root.Commands() {
		if c.RunE == nil {
			continue
		}
		runE := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			if err := runE(cmd, args); err != nil {
				return errors.Join(err, a.close())
			}
			return nil
		}
	}
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if flags.Changed("token") {
		cfg.Token = a.token
	}
	if flags.Changed("transcript-dir") {
		cfg.TranscriptDir = a.transcriptDir
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	kind, err := parseKind(a.kind)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := telemetry.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closer.Close)

	a.chatOpts = []chat.Option{
		chat.WithLogger(logger),
		chat.WithConversationOptions(coach.WithMaxContent(cfg.MaxContent)),
	}
	if cfg.Telemetry {
		p, err := telemetry.Setup(cmd.Context(), cfg.TelemetryDir, version)
		if err != nil {
			return err
		}
		a.chatOpts = append(a.chatOpts, chat.WithTracer(p.Tracer), chat.WithMeter(p.Meter))
		a.closers = append(a.closers, p.Shutdown)
	}

	a.client = api.New(kind,
		api.WithBaseURL(cfg.APIURL),
		api.WithToken(cfg.Token),
		api.WithLogger(logger),
		api.WithMaxFrame(maxFrame(cfg.MaxContent)),
	)
	logger.Debug("configured", "kind", kind, "api_url", cfg.APIURL, "telemetry", cfg.Telemetry)
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// maxFrame leaves room for JSON escaping and framing around a reply that
// is at the content cap.
func maxFrame(maxContent int) int {
	return 2*maxContent + 64<<10
}

func parseKind(s string) (coach.Kind, error) {
	switch k := coach.Kind(s); k {
	case coach.KindGuidance, coach.KindResume:
		return k, nil
	default:
		return "", fmt.Errorf("unknown session kind %q (want %s or %s)", s, coach.KindGuidance, coach.KindResume)
	}
}
