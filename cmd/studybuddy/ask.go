package main

import (
	"context"
	"strings"

	"studybuddy/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	askMode     string
	askDocument string
	askTrace    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Ask a single question and print the answer",
	Example: `  studybuddy ask "explain the krebs cycle"
  studybuddy ask -m quiz -d notes.txt "make a quiz about chapter 3"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode, err := models.ParseMode(askMode)
		if err != nil {
			return err
		}

		s, err := application.Session(ctx, uuid.NewString())
		if err != nil {
			return err
		}
		defer s.Close(context.WithoutCancel(ctx))

		out := cmd.OutOrStdout()
		c := &chat{session: s, mode: mode, trace: askTrace, r: newRenderer(out, isTerminal(out))}
		if askDocument != "" {
			if err := c.upload(ctx, askDocument); err != nil {
				return err
			}
		}

		resp, err := s.Respond(ctx, mode, strings.Join(args, " "))
		if err != nil {
			return err
		}
		c.r.Markdown(resp.Response)
		if askTrace && len(resp.Trace) > 0 {
			c.r.Markdown("**Execution trace**\n\n" + strings.Join(resp.Trace, "\n"))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", string(models.ModeAgent), "Mode: agent, explain, summarize, quiz, solve or evaluate")
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "Text document to study from")
	askCmd.Flags().BoolVar(&askTrace, "trace", false, "Print the execution trace")
}
