// Package constants provides shared constants for the adu-proposal application.
package constants

// Pricing constants
const (
	// DefaultSmallUnitPremiumRate is the $/sqft charged below the standard
	// pricing size threshold.
	DefaultSmallUnitPremiumRate = 250.0

	// DefaultDepositAmount is withheld from the construction amount before
	// milestones are scheduled.
	DefaultDepositAmount = 1000.0

	// MilestoneRoundingIncrement is the granularity of non-final milestone amounts.
	MilestoneRoundingIncrement = 1000.0

	// MinimumMilestoneAmount is the floor applied by the negative-final guard.
	MinimumMilestoneAmount = 1000.0

	// OverrideMarker is appended to a line item description when a configured
	// price was replaced for a single calculation.
	OverrideMarker = " *"

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100
)

// Pricing configuration persistence
const (
	// PricingConfigVersion is the current persisted configuration schema version.
	PricingConfigVersion = "2.1"

	// DefaultPricingConfigFile is the default JSON pricing configuration file name
	DefaultPricingConfigFile = "pricing-config.json"

	// PricingStoreFile persists the configuration as a JSON file.
	PricingStoreFile = "file"

	// PricingStoreSQLite persists the configuration in a SQLite database.
	PricingStoreSQLite = "sqlite"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Export document formats
const (
	// ExportFormatXLSX is the spreadsheet export of a breakdown and schedule
	ExportFormatXLSX = "xlsx"

	// ExportFormatPDF is the one-page PDF summary
	ExportFormatPDF = "pdf"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "adu-proposal.yaml"

	// EnvPrefix prefixes environment overrides, e.g. ADU_LOGGING_LEVEL.
	EnvPrefix = "ADU"
)

// Date layouts
const (
	// ProposalDateLayout is how dates are rendered into proposal documents.
	ProposalDateLayout = "January 2, 2006"

	// ISODateLayout is used for machine-readable dates.
	ISODateLayout = "2006-01-02"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
