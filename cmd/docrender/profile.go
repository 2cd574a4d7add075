package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"docrender/internal/infra/chrome"
	"docrender/internal/render"
)

type profileReport struct {
	Environment string               `json:"environment"`
	Profile     render.LaunchProfile `json:"profile"`
	Viewport    render.Viewport      `json:"viewport"`
	Discovered  string               `json:"discovered_browser,omitempty"`
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print the browser launch profile for this environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		report := profileReport{
			Environment: cfg.Render.Environment().String(),
			Profile:     newBrowserSetup(cfg.Render).describe(),
			Viewport:    render.RenderViewport,
		}
		if path, ok := chrome.LookPath(); ok {
			report.Discovered = path
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}
