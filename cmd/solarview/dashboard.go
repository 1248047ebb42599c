package main

import (
	"github.com/spf13/cobra"

	"solarview/internal/config"
	"solarview/internal/dashboard"
	"solarview/internal/telemetry"
)

var (
	dashboardOut        string
	dashboardConfigPath string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards",
	Long:  "dashboard writes Grafana dashboards for the GreptimeDB placement table and the viewer metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(dashboardConfigPath, "")
		if err != nil {
			return err
		}
		return dashboard.Render(dashboardOut, dashboard.Options{
			Table:  telemetry.PlacementTableName,
			Bodies: cfg.BodyIDs(),
		})
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "build", "Output directory")
	dashboardCmd.Flags().StringVar(&dashboardConfigPath, "config", "", "Viewer configuration listing the bodies")
}
