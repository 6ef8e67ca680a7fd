// Package commands implements the hyperfifo command line.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/hyperfifo/config"
	"github.com/sarchlab/hyperfifo/log"
)

const (
	LogLevelOptionName = "log-level"
	ConfigOptionName   = "config"

	// ConfigEnv and LogLevelEnv provide defaults for the global options,
	// typically from a .env file.
	ConfigEnv   = "HYPERFIFO_CONFIG"
	LogLevelEnv = "HYPERFIFO_LOG_LEVEL"
)

// globals are the options shared by all subcommands.
type globals struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func (g *globals) load(cmd *cobra.Command) error {
	if g.logLevel == "" {
		g.logLevel = os.Getenv(LogLevelEnv)
	}
	if g.logLevel == "" {
		g.logLevel = "info"
	}

	if err := log.Init(cmd.ErrOrStderr(), g.logLevel); err != nil {
		return err
	}

	if g.configPath == "" {
		g.configPath = os.Getenv(ConfigEnv)
	}

	g.cfg = config.DefaultConfig()
	if g.configPath != "" {
		cfg, err := config.LoadConfig(g.configPath)
		if err != nil {
			return err
		}

		log.Debug("Loaded config %s", g.configPath)
		g.cfg = cfg
	}

	return nil
}

// NewRootCommand creates the hyperfifo command tree.
func NewRootCommand(out io.Writer) *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:           "hyperfifo",
		Short:         "Simulate the HyperRAM capture buffer of a USB analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	cmd.SetOut(out)
	cmd.AddCommand(newRunCommand(g))
	cmd.AddCommand(newExportCommand(g))
	cmd.AddCommand(newServeCommand(g))
	cmd.AddCommand(newConfigCommand(g))
	cmd.AddCommand(newBenchCommand(g))

	cmd.PersistentFlags().StringVar(&g.logLevel, LogLevelOptionName, "",
		fmt.Sprintf("Log level. %s Default from $%s.", log.HelpLevels, LogLevelEnv))
	cmd.PersistentFlags().StringVar(&g.configPath, ConfigOptionName, "",
		fmt.Sprintf("YAML or JSON config file. Default from $%s.", ConfigEnv))

	return cmd
}
