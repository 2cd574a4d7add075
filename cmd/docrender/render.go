package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"docrender/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an HTML file or a URL to a PDF file",
	Example: `  docrender render --html invoice.html --out invoice.pdf
  docrender render --url https://example.com --out page.pdf --format letter --orientation landscape`,
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlPath, _ := cmd.Flags().GetString("html")
		url, _ := cmd.Flags().GetString("url")
		out, _ := cmd.Flags().GetString("out")
		if (htmlPath == "") == (url == "") {
			return errors.New("exactly one of --html or --url is required")
		}
		if out == "" {
			return errors.New("--out is required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		doc, err := documentFlags(cmd, cfg.Render.Document())
		if err != nil {
			return err
		}
		timeout := cfg.Render.Timeout()
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetDuration("timeout")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		renderer := newBrowserSetup(cfg.Render).newRenderer(nil)
		var res render.Result
		if url != "" {
			res, err = renderer.RenderURL(ctx, url, doc, timeout)
		} else {
			html, readErr := os.ReadFile(htmlPath)
			if readErr != nil {
				return readErr
			}
			res, err = renderer.RenderHTML(ctx, string(html), doc, timeout)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", render.KindOf(err), err)
		}

		if err := os.WriteFile(out, res.Bytes, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, res.SizeBytes)
		return nil
	},
}

// documentFlags applies --format, --orientation and --margin over base.
func documentFlags(cmd *cobra.Command, base render.RenderConfig) (render.RenderConfig, error) {
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		f, err := render.ParseFormat(v)
		if err != nil {
			return base, err
		}
		base.Format = f
	}
	if v, _ := cmd.Flags().GetString("orientation"); v != "" {
		o, err := render.ParseOrientation(v)
		if err != nil {
			return base, err
		}
		base.Orientation = o
	}
	if v, _ := cmd.Flags().GetString("margin"); v != "" {
		base.Margins = render.UniformMargins(v)
	}
	return base, base.Validate()
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().String("html", "", "HTML file to render")
	renderCmd.Flags().String("url", "", "URL to render")
	renderCmd.Flags().StringP("out", "o", "", "Output PDF path")
	renderCmd.Flags().String("format", "", "Page format: A4, A3 or Letter")
	renderCmd.Flags().String("orientation", "", "portrait or landscape")
	renderCmd.Flags().String("margin", "", "Margin on all sides, e.g. 20mm or 0.5in")
	renderCmd.Flags().Duration("timeout", 30*time.Second, "Content load timeout")
}
