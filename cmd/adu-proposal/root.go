package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/iwvelando/adu-proposal/internal/config"
	"github.com/iwvelando/adu-proposal/internal/proposal"
	"github.com/iwvelando/adu-proposal/internal/store"
	"github.com/iwvelando/adu-proposal/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once the root command has loaded
// the configuration.
type app struct {
	configPath string
	logLevel   string
	conf       *config.Configuration
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "adu-proposal",
		Short: "Price ADU projects and render client proposals",
		Long: `adu-proposal turns ADU project choices into an itemized price, a
construction payment schedule and a client-ready proposal document.

Examples:
  adu-proposal estimate project.yaml
  adu-proposal proposal project.yaml --out proposal.html --pdf summary.pdf
  adu-proposal pricing export --format yaml
  adu-proposal serve --address :8080`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newEstimateCmd(a),
		newProposalCmd(a),
		newServeCmd(a),
		newPricingCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger. A missing default
// configuration file is not an error; an explicitly named one is.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
	}

	logger, err := initializeLogger(conf.Logging, a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.setup"),
		)
	}

	a.conf = conf
	a.logger = logger
	return nil
}

func (a *app) openStore() (store.Store, error) {
	return store.New(a.logger, a.conf.Pricing.Store, a.conf.Pricing.Path)
}

func (a *app) assembler() *proposal.Assembler {
	return proposal.NewAssembler(a.logger, a.conf.Template.Options, a.conf.Company)
}

// readInput reads a named file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to a named file, or the command's stdout for ""
// and "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "adu-proposal version %s\n", version)
		},
	}
}
