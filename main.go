package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"explainer-pipeline/concepts"
	"explainer-pipeline/config"
	"explainer-pipeline/history"
	"explainer-pipeline/pipeline"
)

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "explainer",
		Short:         "Generate narrated explainer videos from a concept",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is a local-dev convenience; CI provides real env vars.
			_ = godotenv.Load()

			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: time.Kitchen,
			})))
		},
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "path to config file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newGenerateCommand(), newSuggestCommand(), newHistoryCommand())
	return root
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	cfg.Capabilities = config.DetectCapabilities(ctx, cfg)
	slog.Debug("capabilities resolved",
		"tts", cfg.Capabilities.TTS,
		"ffmpeg", cfg.Capabilities.FFmpeg,
		"ffprobe", cfg.Capabilities.FFprobe)
	return cfg, nil
}

func newGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <concept>",
		Short: "Generate a video for a concept",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			concept := strings.TrimSpace(strings.Join(args, " "))
			if concept == "" {
				return fmt.Errorf("concept must not be empty")
			}

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			gen := pipeline.New(ctx, cfg)
			out, report, runErr := gen.GenerateVideo(ctx, concept)

			// Record the run either way; history is best-effort.
			if store, err := history.Open(cfg.Paths.DB); err == nil {
				if err := store.Record(ctx, report); err != nil {
					slog.Warn("could not record run history", "err", err)
				}
				_ = store.Close()
			} else {
				slog.Warn("could not open history db", "err", err)
			}

			if runErr != nil {
				return runErr
			}
			if report.Partial {
				fmt.Fprintf(cmd.OutOrStdout(),
					"Partial success: %d of %d scenes made it into the video.\n",
					report.ClipsBuilt, report.ScenesParsed)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Video saved: %s\n", out)
			return nil
		},
	}
}

func newSuggestCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest explainer concepts from r/explainlikeimfive",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := concepts.New()
			if err != nil {
				return err
			}
			ideas, err := s.Suggest(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, idea := range ideas {
				fmt.Fprintln(cmd.OutOrStdout(), "-", idea)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of suggestions")
	return cmd
}

func newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.Paths.DB)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Run", "Concept", "State", "Scenes", "Clips", "Partial", "Output", "Error"})
			for _, r := range runs {
				t.AppendRow(table.Row{
					r.RunID, r.Concept, r.State, r.ScenesParsed, r.ClipsBuilt,
					r.Partial, r.OutputFile, r.Error,
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
