package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/waste3d/cfproxyhub/internal/app"
	"github.com/waste3d/cfproxyhub/internal/config"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

func main() {
	var cfgFile string

	cmd := &cobra.Command{
		Use:          "cfproxyhub-server",
		Short:        "Serve the tunnel hostname API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			v, err := config.New(cfgFile)
			if err != nil {
				return err
			}
			cfg, err := config.Server(v)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return a.Run()
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/cfproxyhub/config.yaml)")

	if err := cmd.Execute(); err != nil {
		logger.Logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
