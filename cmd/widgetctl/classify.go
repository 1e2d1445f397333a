package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"chatwidget/internal/usecase/preview"
)

func newClassifyCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify URL...",
		Short: "Show how the widget would present each URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, raw := range args {
				c := preview.Classify(raw)
				if root.output == "json" {
					if err := json.NewEncoder(out).Encode(c); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "%-12s %s\n", c.Kind, c.EmbedURL)
			}
			return nil
		},
	}
}
