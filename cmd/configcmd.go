// configcmd.go implements `vellum config`: read and write configuration.

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vellumdb/vellum/internal/config"
)

var configLocal bool

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show or set configuration",
	Long: `Without arguments, config prints the effective configuration. With a key
and value it writes one setting. Keys: user.name, user.email, blob_dir,
limits.max_path, limits.max_content.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
			return nil
		}
		if len(args) == 1 {
			return fmt.Errorf("config %s requires a value", args[0])
		}

		if err := setConfigKey(cfg, args[0], args[1]); err != nil {
			return err
		}
		scope := config.ScopeGlobal
		if configLocal {
			scope = config.ScopeLocal
		}
		return config.Save(cfg, scope)
	},
}

func setConfigKey(cfg *config.Config, key, value string) error {
	switch key {
	case "user.name":
		cfg.User.Name = value
	case "user.email":
		cfg.User.Email = value
	case "blob_dir":
		cfg.BlobDir = value
	case "limits.max_path":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid max_path %q: %w", value, err)
		}
		cfg.Limits.MaxPath = &n
	case "limits.max_content":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid max_content %q: %w", value, err)
		}
		cfg.Limits.MaxContent = &n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func init() {
	configCmd.Flags().BoolVar(&configLocal, "local", false, "write to .vellum/config.yaml instead of ~/.vellum/config.yaml")
	rootCmd.AddCommand(configCmd)
}
