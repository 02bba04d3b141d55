// Package proposal turns a filled-in proposal form into a priced estimate
// and a rendered client document.
package proposal

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/iwvelando/adu-proposal/internal/pricing"
	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"gopkg.in/yaml.v3"
)

// Client identifies who the proposal is addressed to.
type Client struct {
	Name    string `yaml:"name" json:"name"`
	Email   string `yaml:"email" json:"email"`
	Phone   string `yaml:"phone" json:"phone"`
	Address string `yaml:"address" json:"address"`
	City    string `yaml:"city" json:"city"`
}

// Project holds the project choices as entered on the form. Enum fields are
// free text here and are checked when converted to pricing inputs.
type Project struct {
	SquareFootage            float64            `yaml:"squareFootage" json:"squareFootage"`
	ADUType                  string             `yaml:"aduType" json:"aduType"`
	Stories                  int                `yaml:"stories" json:"stories"`
	Bedrooms                 int                `yaml:"bedrooms" json:"bedrooms"`
	Bathrooms                int                `yaml:"bathrooms" json:"bathrooms"`
	WaterMeter               string             `yaml:"waterMeter" json:"waterMeter"`
	GasMeter                 string             `yaml:"gasMeter" json:"gasMeter"`
	NeedsDesign              bool               `yaml:"needsDesign" json:"needsDesign"`
	AddOns                   []string           `yaml:"addOns" json:"addOns"`
	FriendsAndFamilyDiscount bool               `yaml:"friendsAndFamilyDiscount" json:"friendsAndFamilyDiscount"`
	PriceOverrides           *pricing.Overrides `yaml:"priceOverrides" json:"priceOverrides"`
	Notes                    string             `yaml:"notes" json:"notes"`
}

// Form is the complete proposal form state.
type Form struct {
	Client  Client  `yaml:"client" json:"client"`
	Project Project `yaml:"project" json:"project"`
	// ProposalDate is YYYY-MM-DD; empty means today.
	ProposalDate string `yaml:"proposalDate" json:"proposalDate"`
}

// LoadForm decodes a YAML (or JSON) form document. Unknown fields are
// rejected so typos do not silently drop choices.
func LoadForm(r io.Reader) (Form, error) {
	var f Form
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Form{}, errors.New("proposal form is empty")
		}
		return Form{}, fmt.Errorf("decode proposal form: %w", err)
	}
	return f, nil
}

// ParseForm decodes a form document held in memory.
func ParseForm(data []byte) (Form, error) {
	return LoadForm(bytes.NewReader(data))
}

// Inputs converts the form's project section into pricing inputs.
func (f Form) Inputs() (pricing.Inputs, error) {
	p := f.Project
	aduType, err := pricingconfig.ParseADUType(p.ADUType)
	if err != nil {
		return pricing.Inputs{}, &pricing.ValidationError{Field: "aduType", Reason: err.Error()}
	}
	water, err := pricing.ParseMeterSelection(p.WaterMeter)
	if err != nil {
		return pricing.Inputs{}, &pricing.ValidationError{Field: "waterMeter", Reason: err.Error()}
	}
	gas, err := pricing.ParseMeterSelection(p.GasMeter)
	if err != nil {
		return pricing.Inputs{}, &pricing.ValidationError{Field: "gasMeter", Reason: err.Error()}
	}

	return pricing.Inputs{
		SquareFootage:            p.SquareFootage,
		ADUType:                  aduType,
		Stories:                  p.Stories,
		Bedrooms:                 p.Bedrooms,
		Bathrooms:                p.Bathrooms,
		Utilities:                pricing.Utilities{WaterMeter: water, GasMeter: gas},
		NeedsDesign:              p.NeedsDesign,
		SelectedAddOns:           append([]string(nil), p.AddOns...),
		FriendsAndFamilyDiscount: p.FriendsAndFamilyDiscount,
		PriceOverrides:           p.PriceOverrides,
	}, nil
}
