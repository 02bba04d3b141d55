// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/adu-proposal/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateExportFormat checks if the document export format is supported.
func ValidateExportFormat(format string) error {
	if format != constants.ExportFormatXLSX && format != constants.ExportFormatPDF {
		return fmt.Errorf("expected export format of %s or %s, got %s",
			constants.ExportFormatXLSX, constants.ExportFormatPDF, format)
	}
	return nil
}
