package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newPricingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricing",
		Short: "Manage the stored pricing configuration",
	}
	cmd.AddCommand(
		newPricingExportCmd(a),
		newPricingImportCmd(a),
		newPricingValidateCmd(),
		newPricingHistoryCmd(a),
	)
	return cmd
}

func newPricingExportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the current pricing configuration as JSON or YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			cfg, notes, err := s.Load(context.Background())
			if err != nil {
				return err
			}
			for _, note := range notes {
				a.logger.Warn(note, zap.String("op", "main.pricingExport"))
			}

			var data []byte
			switch format {
			case "json":
				data, err = pricingconfig.Marshal(cfg)
			case "yaml":
				data, err = pricingconfig.MarshalYAML(cfg)
			default:
				return fmt.Errorf("expected export format of json or yaml, got %s", format)
			}
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return writeOutput(cmd, path, data)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "document format: json, yaml")
	return cmd
}

func newPricingImportCmd(a *app) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Store a pricing configuration document as the newest revision",
		Long: `Store a pricing configuration document as the newest revision.

Documents from an older version are migrated: recognized fields that
validate are kept and everything else falls back to the defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readPricingDocument(cmd, args[0])
			if err != nil {
				return err
			}

			var raw map[string]json.RawMessage
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("decode pricing configuration: %w", err)
			}
			cfg, notes := pricingconfig.Load(a.logger, data, time.Now())
			for _, n := range notes {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", n)
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			saved, err := s.Save(context.Background(), cfg, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored pricing configuration version %s at %s\n",
				saved.Version, saved.LastUpdated.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "note recorded with the revision")
	return cmd
}

func newPricingValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Check a pricing configuration document without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readPricingDocument(cmd, args[0])
			if err != nil {
				return err
			}

			var cfg pricingconfig.Configuration
			if err := json.Unmarshal(data, &cfg); err != nil {
				return fmt.Errorf("decode pricing configuration: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid pricing configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, warning := range cfg.ValidateConfiguration() {
				fmt.Fprintf(out, "warning: %s\n", warning)
			}
			fmt.Fprintln(out, "pricing configuration is valid")
			return nil
		},
	}
}

func newPricingHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored pricing configuration revisions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			revisions, err := s.History(context.Background(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tSAVED\tNOTE")
			for _, r := range revisions {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.Version, r.SavedAt.Format(time.RFC3339), r.Note)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum revisions to list, -1 for all")
	return cmd
}

// readPricingDocument reads a JSON document, converting YAML files to JSON
// first.
func readPricingDocument(cmd *cobra.Command, path string) ([]byte, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode pricing configuration yaml: %w", err)
		}
		return json.Marshal(doc)
	default:
		return data, nil
	}
}
