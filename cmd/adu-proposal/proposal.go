package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iwvelando/adu-proposal/internal/export"
	"github.com/iwvelando/adu-proposal/internal/proposal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type proposalFlags struct {
	out      string
	template string
	xlsx     string
	pdf      string
}

func newProposalCmd(a *app) *cobra.Command {
	var flags proposalFlags

	cmd := &cobra.Command{
		Use:   "proposal <form.yaml|->",
		Short: "Render a client proposal from a project form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProposal(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "write the HTML proposal to this file instead of stdout")
	cmd.Flags().StringVar(&flags.template, "template", "", "proposal template override")
	cmd.Flags().StringVar(&flags.xlsx, "xlsx", "", "also write the breakdown workbook to this file")
	cmd.Flags().StringVar(&flags.pdf, "pdf", "", "also write the summary PDF to this file")
	return cmd
}

func (a *app) runProposal(cmd *cobra.Command, formPath string, flags proposalFlags) error {
	data, err := readInput(cmd, formPath)
	if err != nil {
		return err
	}
	form, err := proposal.ParseForm(data)
	if err != nil {
		return err
	}

	template, err := a.conf.LoadTemplate()
	if err != nil {
		return err
	}
	if flags.template != "" {
		raw, err := os.ReadFile(flags.template)
		if err != nil {
			return fmt.Errorf("failed to read proposal template: %w", err)
		}
		template = string(raw)
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

	p, err := a.assembler().Assemble(form, cfg, template)
	if err != nil {
		return err
	}
	a.logger.Info("proposal assembled",
		zap.String("op", "main.proposal"),
		zap.String("number", p.Number),
	)

	if err := writeOutput(cmd, flags.out, []byte(p.HTML)); err != nil {
		return err
	}

	doc := export.FromProposal(p, a.conf.Company)
	if flags.xlsx != "" {
		workbook, err := export.Workbook(doc)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, flags.xlsx, workbook); err != nil {
			return err
		}
	}
	if flags.pdf != "" {
		summary, err := export.SummaryPDF(doc)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, flags.pdf, summary); err != nil {
			return err
		}
	}
	return nil
}
