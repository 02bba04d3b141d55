// Package export renders an estimate as an .xlsx workbook or a one-page PDF
// summary.
package export

import (
	"github.com/iwvelando/adu-proposal/internal/proposal"
	"github.com/iwvelando/adu-proposal/pkg/datetime"
)

// Document is an estimate plus the header details printed above it.
type Document struct {
	Company  proposal.Company
	Number   string
	Client   string
	Date     string
	Estimate proposal.Estimate
}

// FromProposal builds a Document from an assembled proposal.
func FromProposal(p proposal.Proposal, company proposal.Company) Document {
	return Document{
		Company:  company,
		Number:   p.Number,
		Client:   p.Form.Client.Name,
		Date:     datetime.ProposalDate(p.Issued),
		Estimate: p.Estimate,
	}
}

// title is the first header line of both exports.
func (d Document) title() string {
	if d.Company.Name == "" {
		return "ADU Proposal"
	}
	return d.Company.Name + " ADU Proposal"
}
