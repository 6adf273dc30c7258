package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"studybuddy/models"
	"studybuddy/services/session"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const chatHelp = `**Commands**

- /mode <agent|explain|summarize|quiz|solve|evaluate> - switch how messages are handled
- /upload <file> - load a text document as study material
- /reset - forget the loaded document
- /new - archive this conversation and start a fresh one
- /summary - show session summary and learning insights
- /stats - show tool execution statistics
- /trace - toggle the execution trace after agent replies
- /quit - leave

For **evaluate** mode, put the questions first, then a line containing ` + "`---`" + `, then the answers.`

var (
	chatMode     string
	chatDocument string
	chatTrace    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive study session",
	RunE:  runChat,
}

func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&chatMode, "mode", "m", string(models.ModeAgent), "Mode: agent, explain, summarize, quiz, solve or evaluate")
	cmd.Flags().StringVarP(&chatDocument, "document", "d", "", "Text document to study from")
	cmd.Flags().BoolVar(&chatTrace, "trace", false, "Show the execution trace after agent replies")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mode, err := models.ParseMode(chatMode)
	if err != nil {
		return err
	}

	s, err := application.Session(ctx, uuid.NewString())
	if err != nil {
		return err
	}
	defer s.Close(context.WithoutCancel(ctx))

	out := cmd.OutOrStdout()
	c := &chat{
		session: s,
		mode:    mode,
		trace:   chatTrace,
		r:       newRenderer(out, isTerminal(out)),
	}

	if chatDocument != "" {
		if err := c.upload(ctx, chatDocument); err != nil {
			return err
		}
	}

	return c.runLoop(ctx, cmd.InOrStdin())
}

type chat struct {
	session *session.Session
	mode    models.Mode
	trace   bool
	r       *renderer
}

// runLoop reads lines from in until EOF, /quit or cancellation.
func (c *chat) runLoop(ctx context.Context, in io.Reader) error {
	c.r.Markdown(c.session.Greeting())

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		c.r.Printf("\n[%s] > ", c.mode)
		if !scanner.Scan() {
			break
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := c.command(ctx, line)
			if err != nil {
				c.r.Printf("%v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		c.send(ctx, line)
	}

	c.r.Printf("\n")
	return scanner.Err()
}

func (c *chat) send(ctx context.Context, text string) {
	resp, err := c.session.Respond(ctx, c.mode, text)
	if err != nil {
		c.r.Printf("%v\n", err)
		return
	}

	c.r.Markdown(resp.Response)
	if c.trace && len(resp.Trace) > 0 {
		c.r.Markdown("**Execution trace**\n\n" + strings.Join(resp.Trace, "\n"))
	}
	if resp.Reflection != nil {
		c.r.Printf("(self-assessment %d/10)\n", resp.Reflection.QualityScore)
	}
}

func (c *chat) command(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		c.r.Printf("Goodbye, happy studying!\n")
		return true, nil
	case "/help":
		c.r.Markdown(chatHelp)
	case "/mode":
		if arg == "" {
			c.r.Printf("Current mode: %s\n", c.mode)
			return false, nil
		}
		mode, err := models.ParseMode(arg)
		if err != nil {
			return false, err
		}
		c.mode = mode
		c.r.Printf("Switched to %s mode\n", mode)
	case "/upload":
		if arg == "" {
			return false, fmt.Errorf("usage: /upload <file>")
		}
		return false, c.upload(ctx, arg)
	case "/reset":
		if err := c.session.ResetDocument(ctx); err != nil {
			return false, err
		}
		c.r.Printf("Document cleared\n")
	case "/new":
		ended := c.session.NewSession(ctx)
		c.r.Printf("Archived session %s (%d turns). Starting fresh.\n", ended.SessionID, ended.TotalTurns)
	case "/summary":
		c.r.Markdown(formatSummary(c.session.Summary()))
	case "/stats":
		stats := c.session.ToolStats()
		c.r.Printf("Tool executions: %d (%d successful, %d failed, %.0f%% success rate)\n",
			stats.TotalExecutions, stats.Successful, stats.Failed, stats.SuccessRate*100)
	case "/trace":
		c.trace = !c.trace
		c.r.Printf("Execution trace %s\n", onOff(c.trace))
	default:
		return false, fmt.Errorf("unknown command %s, try /help", name)
	}
	return false, nil
}

func (c *chat) upload(ctx context.Context, path string) error {
	text, err := readDocument(path)
	if err != nil {
		return err
	}

	status, err := c.session.UploadDocument(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	c.r.Printf("%s\n", status)
	return nil
}

func formatSummary(sum models.SummaryResponse) string {
	var b strings.Builder

	s := sum.Summary
	fmt.Fprintf(&b, "**Session** %s\n\n", s.SessionID)
	fmt.Fprintf(&b, "- Duration: %d minutes\n", s.DurationMinutes)
	fmt.Fprintf(&b, "- Interactions: %d\n", s.TotalInteractions)
	if len(s.TopicsCovered) > 0 {
		fmt.Fprintf(&b, "- Topics: %s\n", strings.Join(s.TopicsCovered, ", "))
	}
	if len(s.ToolsUsed) > 0 {
		used := make([]string, 0, len(s.ToolsUsed))
		for tool, n := range s.ToolsUsed {
			used = append(used, fmt.Sprintf("%s (%d)", tool, n))
		}
		sort.Strings(used)
		fmt.Fprintf(&b, "- Tools: %s\n", strings.Join(used, ", "))
	}

	p := sum.Planning
	fmt.Fprintf(&b, "\n**Planning**\n\n- Plans: %d\n- Average steps: %.1f\n- Average confidence: %.2f\n",
		p.TotalPlans, p.AverageSteps, p.AverageConfidence)

	if sum.History != "" {
		fmt.Fprintf(&b, "\n**History**\n\n%s\n", sum.History)
	}
	return b.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
