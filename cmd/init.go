package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoverse/eqsat"
	"github.com/gnoverse/eqsat/internal/rewrite"
)

var withRules bool

// defaultRulesFile is written next to the configuration by init --with-rules.
const defaultRulesFile = "rules.yaml"

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initConfigurationFile(cfgFile, withRules)
			if err != nil {
				logger.Error("Error initializing config file", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withRules, "with-rules", false, "Also write the built-in rules to "+defaultRulesFile+" for editing")
	return cmd
}

func initConfigurationFile(configurationPath string, withRules bool) (string, error) {
	if configurationPath == "" {
		configurationPath = eqsat.DefaultConfigFile
	}

	cfg := eqsat.DefaultConfig()
	if withRules {
		rulesPath := filepath.Join(filepath.Dir(configurationPath), defaultRulesFile)
		if err := os.WriteFile(rulesPath, rewrite.DefaultRules(), 0o644); err != nil {
			return "", err
		}
		cfg.Rules = defaultRulesFile
	}

	if err := eqsat.WriteConfig(configurationPath, cfg); err != nil {
		return "", err
	}
	return configurationPath, nil
}
