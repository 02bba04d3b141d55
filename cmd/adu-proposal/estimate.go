package main

import (
	"context"

	"github.com/iwvelando/adu-proposal/internal/proposal"
	"github.com/iwvelando/adu-proposal/pkg/output"
	"github.com/iwvelando/adu-proposal/pkg/validation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newEstimateCmd(a *app) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "estimate <form.yaml|->",
		Short: "Price a project form and print the breakdown and payment schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := a.conf.Output.Format
			if outputFormat != "" {
				format = outputFormat
			}
			if err := validation.ValidateOutputFormat(format); err != nil {
				return err
			}

			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			form, err := proposal.ParseForm(data)
			if err != nil {
				return err
			}
			inputs, err := form.Inputs()
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			cfg, _, err := s.Load(context.Background())
			if err != nil {
				return err
			}

			estimate, err := a.assembler().Estimate(inputs, cfg)
			if err != nil {
				return err
			}
			a.logger.Debug("estimate computed",
				zap.String("op", "main.estimate"),
				zap.Float64("finalTotal", estimate.Discount.Total),
			)
			return output.Write(cmd.OutOrStdout(), format, estimate)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "", "output format override: pretty, csv, json")
	return cmd
}
