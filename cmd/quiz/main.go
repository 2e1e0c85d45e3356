// Command quiz is the terminal learner client for a quizd server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/exercise"
	"github.com/mind-engage/mindengage-quiz/internal/logging"
	"github.com/mind-engage/mindengage-quiz/internal/quizhttp"
	"github.com/mind-engage/mindengage-quiz/internal/tui"
)

var (
	configPath string
	serverURL  string
	questionID string
	logFile    string

	client *quizhttp.Client
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "quiz",
	Short:         "Answer quiz questions in the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		// the UI owns the terminal, so logs go to a file or nowhere
		if logFile != "" {
			logger, err = logging.New(logging.Options{Level: cfg.LogLevel, Dev: cfg.LogDev, Paths: []string{logFile}})
			if err != nil {
				return err
			}
		} else {
			logger = zap.NewNop()
		}
		if serverURL == "" {
			serverURL = cfg.ServerURL
		}
		if questionID == "" {
			questionID = cfg.DefaultQuestion
		}
		client = quizhttp.New(quizhttp.Config{
			BaseURL:    serverURL,
			QuestionID: questionID,
			Timeout:    cfg.ClientTimeout,
			Logger:     logger,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Sort items into categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		session := exercise.NewSession(client, exercise.WithLogger(logger))
		return tui.RunSort(ctx, session, logger)
	},
}

var clozeCmd = &cobra.Command{
	Use:   "cloze",
	Short: "Fill in the blanks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return tui.RunCloze(ctx, client, logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./quiz.{toml,yaml})")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "quizd base URL (default client.server_url)")
	rootCmd.PersistentFlags().StringVar(&questionID, "id", "", "question id (default default_question)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")

	rootCmd.AddCommand(sortCmd)
	rootCmd.AddCommand(clozeCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
