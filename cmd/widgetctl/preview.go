package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"chatwidget/internal/domain/entity"
	"chatwidget/internal/infra/fetcher"
	"chatwidget/internal/infra/metadata"
	"chatwidget/internal/infra/probe"
	"chatwidget/internal/usecase/preview"
)

type previewOptions struct {
	probeMode    string
	probeTimeout time.Duration
	relayURL     string
	embedOrigin  string
	chromeBin    string
	chromeURL    string
	allowPrivate bool
	embedAnyway  bool
}

func (o *previewOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.probeMode, "probe-mode", "header", "Embeddability probe: header or browser")
	f.DurationVar(&o.probeTimeout, "probe-timeout", preview.DefaultProbeTimeout, "Budget for a page to prove it can be framed")
	f.StringVar(&o.relayURL, "relay", envOr("METADATA_RELAY_URL", ""), "Fetch page HTML through this relay instead of directly")
	f.StringVar(&o.embedOrigin, "embed-origin", "", "Origin of the page hosting the widget")
	f.StringVar(&o.chromeBin, "chrome-bin", envOr("CHROME_BIN", ""), "Chrome binary for --probe-mode=browser")
	f.StringVar(&o.chromeURL, "chrome-url", envOr("CHROME_URL", ""), "DevTools URL of a running Chrome for --probe-mode=browser")
	f.BoolVar(&o.allowPrivate, "allow-private", false, "Allow fetching private and loopback addresses")
	f.BoolVar(&o.embedAnyway, "embed-anyway", false, "Switch a metadata card to the frame, as the card's button does")
}

func newPreviewCmd(root *rootOptions) *cobra.Command {
	opts := &previewOptions{}
	cmd := &cobra.Command{
		Use:   "preview URL",
		Short: "Resolve a link preview and print each view transition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd.Context(), cmd.OutOrStdout(), root, opts, args[0])
		},
	}
	opts.bind(cmd)
	return cmd
}

// settled reports whether a view is one the renderer stays in on its own.
func settled(mode entity.ViewMode) bool {
	switch mode {
	case entity.ModeIframe, entity.ModeMetadataCard, entity.ModeMetadataUnavailable:
		return true
	}
	return false
}

func runPreview(ctx context.Context, out io.Writer, root *rootOptions, opts *previewOptions, raw string) error {
	fetchCfg := fetcher.DefaultConfig()
	fetchCfg.DenyPrivateIPs = !opts.allowPrivate
	pages := fetcher.New(fetchCfg)

	var source metadata.PageSource = metadata.NewDirectSource(pages)
	if opts.relayURL != "" {
		relay, err := metadata.NewRelaySource(opts.relayURL, fetchCfg.MaxBodySize)
		if err != nil {
			return err
		}
		source = relay
	}
	resolverCfg := metadata.DefaultConfig()
	resolverCfg.ReadabilityFallback = true
	resolver := metadata.NewResolver(source, resolverCfg, root.logger)

	prober, closeProber, err := buildProber(root, opts, pages)
	if err != nil {
		return err
	}
	defer closeProber()

	views := make(chan entity.ViewState, 8)
	r := preview.NewRenderer(preview.RendererConfig{
		Prober:          prober,
		Resolver:        resolver,
		ProbeTimeout:    opts.probeTimeout,
		MetadataTimeout: resolverCfg.Timeout,
		Logger:          root.logger,
		OnChange: func(v entity.ViewState) {
			printView(out, root.output, v)
			if settled(v.Mode) {
				select {
				case views <- v:
				default:
				}
			}
		},
	})
	defer r.Stop()

	waitCtx, cancel := context.WithTimeout(ctx, root.timeout)
	defer cancel()

	// OnChange owns out from Open until the renderer stops.
	if root.output == "text" {
		fmt.Fprintf(out, "kind      %s\n", preview.Classify(raw).Kind)
	}
	r.Open(raw)

	select {
	case v := <-views:
		if v.Mode == entity.ModeMetadataCard && opts.embedAnyway {
			r.EmbedAnyway()
		}
	case <-waitCtx.Done():
		r.Close()
		return fmt.Errorf("preview did not settle: %w", waitCtx.Err())
	}
	return nil
}

func buildProber(root *rootOptions, opts *previewOptions, pages *fetcher.Fetcher) (preview.Prober, func(), error) {
	headers, err := probe.NewHeaderProber(pages, opts.embedOrigin)
	if err != nil {
		return nil, nil, err
	}
	switch opts.probeMode {
	case "header":
		return headers, func() {}, nil
	case "browser":
		browser := probe.NewBrowserProber(probe.BrowserConfig{
			ControlURL: opts.chromeURL,
			Bin:        opts.chromeBin,
			Headless:   true,
		}, root.logger)
		return probe.Chain{headers, browser}, func() { _ = browser.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("--probe-mode must be header or browser, got %q", opts.probeMode)
	}
}

func printView(out io.Writer, format string, v entity.ViewState) {
	if format == "json" {
		_ = json.NewEncoder(out).Encode(v)
		return
	}
	switch v.Mode {
	case entity.ModeProbing:
		fmt.Fprintln(out, "probing   checking whether the page can be framed")
	case entity.ModeIframe:
		fmt.Fprintf(out, "iframe    %s\n", v.EmbedURL)
		fmt.Fprintf(out, "sandbox   %s\n", entity.SandboxPermissions)
	case entity.ModeMetadataLoading:
		fmt.Fprintln(out, "loading   fetching page details")
	case entity.ModeMetadataCard:
		md := v.Metadata
		fmt.Fprintf(out, "card      %s\n", md.Title)
		if md.Description != "" {
			fmt.Fprintf(out, "          %s\n", md.Description)
		}
		if md.HasImage() {
			fmt.Fprintf(out, "          image %s\n", md.ImageURL)
		}
		fmt.Fprintf(out, "          %s  [%s] %s\n", md.Domain, v.Action, md.URL)
	case entity.ModeMetadataUnavailable:
		fmt.Fprintln(out, "unavailable  no preview for this page")
	case entity.ModeClosed:
		fmt.Fprintln(out, "closed")
	}
}
