package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/waste3d/cfproxyhub/internal/config"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

// rootOptions carries the persistent flags and the config loaded from them
// to every subcommand.
type rootOptions struct {
	cfgFile string
	v       *viper.Viper
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"api-server": "api_server",
	"account":    "account_id",
	"tunnel":     "tunnel_id",
	"strict":     "strict_validation",
	"log-level":  "log_level",
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Manage the public hostnames of a Cloudflare tunnel",
		Long:          `A client for adding, editing and deleting the public hostnames routed through a Cloudflare tunnel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(opts.cfgFile)
			if err != nil {
				return err
			}
			for flag, key := range flagKeys {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			opts.v = v
			logger.SetLevel(v.GetString("log_level"))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.config/cfproxyhub/config.yaml)")
	flags.String("api-server", "", "The address of the API server")
	flags.StringP("account", "a", "", "Cloudflare account ID")
	flags.StringP("tunnel", "t", "", "Tunnel ID")
	flags.Bool("strict", false, "Also check the domain and service URL patterns before saving")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newLoginCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newDeleteCmd(opts),
		newZonesCmd(opts),
		newPreviewCmd(opts),
		newValidateCmd(opts),
	)
	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
