package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"studybuddy/app"
	"studybuddy/config"
	"studybuddy/logging"

	"github.com/spf13/cobra"
)

var (
	verbose bool

	application *app.App
	flushLogs   = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "studybuddy",
	Short: "Study Buddy - an AI study assistant",
	Long: `Study Buddy explains concepts, summarizes material, writes quizzes,
solves exam questions and grades answers. Upload a text document to ground
answers in your own study material.

Run without arguments to start the interactive chat.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		flush, err := logging.Init(level, verbose)
		if err != nil {
			return err
		}
		flushLogs = flush

		application, err = app.New(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if application != nil {
			_ = application.Close()
		}
		flushLogs()
	},
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	addChatFlags(rootCmd)
	addChatFlags(chatCmd)

	rootCmd.AddCommand(chatCmd, askCmd, indexCmd, mcpCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
