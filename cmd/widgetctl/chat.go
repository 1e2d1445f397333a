package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chatwidget/internal/domain/entity"
	"chatwidget/internal/usecase/chat"
)

type chatOptions struct {
	apiURL    string
	domain    string
	sessionID string
	preview   previewOptions
}

// chatResult is the JSON form of one exchange.
type chatResult struct {
	SessionID string      `json:"sessionId"`
	Reply     string      `json:"reply"`
	Links     []chat.Link `json:"links"`
}

func newChatCmd(root *rootOptions) *cobra.Command {
	opts := &chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat [MESSAGE...]",
		Short: "Send a message, or start an interactive session without one",
		Long: `Sends a message to the backend chat route and prints the reply and its links.

Without a message, reads one message per line from stdin. In that mode
":open N" previews link N of the last reply and ":quit" ends the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.sessionID == "" {
				opts.sessionID = chat.NewSessionID()
			}
			client := newAPIClient(opts.apiURL)
			if len(args) > 0 {
				ctx, cancel := context.WithTimeout(cmd.Context(), root.timeout)
				defer cancel()
				_, err := exchange(ctx, cmd.OutOrStdout(), root, client, opts, strings.Join(args, " "))
				return err
			}
			return interactive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), root, client, opts)
		},
	}

	cmd.Flags().StringVar(&opts.apiURL, "api", envOr("WIDGET_API_URL", "http://localhost:3001"), "Backend base URL")
	cmd.Flags().StringVar(&opts.domain, "domain", "widgetctl", "Domain reported as the embedding site")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "Session ID (default: a new one)")
	opts.preview.bind(cmd)
	return cmd
}

// exchange sends one message and prints the reply. It returns the reply's links.
func exchange(ctx context.Context, out io.Writer, root *rootOptions, client *apiClient, opts *chatOptions, message string) ([]chat.Link, error) {
	raw, err := client.Chat(ctx, entity.ChatRequest{
		Message:   message,
		SessionID: opts.sessionID,
		Domain:    opts.domain,
	})
	if err != nil {
		return nil, err
	}

	reply := chat.NormalizeReply(raw)
	links := chat.ExtractLinks(reply)

	if root.output == "json" {
		return links, json.NewEncoder(out).Encode(chatResult{
			SessionID: opts.sessionID,
			Reply:     reply,
			Links:     links,
		})
	}

	fmt.Fprintln(out, reply)
	if len(links) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Links:")
		for i, l := range links {
			fmt.Fprintf(out, "  [%d] %s <%s>\n", i+1, l.Text, l.URL)
		}
	}
	return links, nil
}

func interactive(ctx context.Context, in io.Reader, out io.Writer, root *rootOptions, client *apiClient, opts *chatOptions) error {
	if root.output == "text" {
		fmt.Fprintf(out, "session %s (:open N to preview a link, :quit to exit)\n", opts.sessionID)
	}

	var links []chat.Link
	scanner := bufio.NewScanner(in)
	for {
		if root.output == "text" {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == ":quit" || line == ":q":
			return nil
		case strings.HasPrefix(line, ":open"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":open")))
			if err != nil || n < 1 || n > len(links) {
				fmt.Fprintf(out, "no link %q; the last reply has %d\n", strings.TrimPrefix(line, ":open "), len(links))
				continue
			}
			if err := runPreview(ctx, out, root, &opts.preview, links[n-1].URL); err != nil {
				fmt.Fprintf(out, "preview failed: %v\n", err)
			}
			continue
		}

		reqCtx, cancel := context.WithTimeout(ctx, root.timeout)
		got, err := exchange(reqCtx, out, root, client, opts, line)
		cancel()
		if err != nil {
			// the widget shows the error and keeps the conversation open
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		links = got
	}
}
