// Command widgetctl is a terminal chat surface for the widget backend.
//
// It sends messages to the backend's chat route, prints the normalized reply
// and its links, and previews a link the way the widget would: classify,
// probe embeddability, then fall back to a metadata card.
//
// Usage:
//
//	widgetctl chat "What is Fab City?" --api http://localhost:3001
//	widgetctl chat                       # interactive, :open N previews link N
//	widgetctl preview https://example.com/about
//	widgetctl classify https://youtu.be/dQw4w9WgXcQ
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"chatwidget/internal/observability/logging"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	logLevel string
	output   string
	timeout  time.Duration
	logger   *slog.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "widgetctl",
		Short:         "Terminal chat surface for the chat widget backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.output != "text" && opts.output != "json" {
				return fmt.Errorf("--output must be text or json, got %q", opts.output)
			}
			opts.logger = logging.NewTextLogger(opts.logLevel)
			return nil
		},
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format: text or json")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 45*time.Second, "Overall operation timeout")

	cmd.AddCommand(newChatCmd(opts))
	cmd.AddCommand(newPreviewCmd(opts))
	cmd.AddCommand(newClassifyCmd(opts))
	return cmd
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
