package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iwvelando/adu-proposal/pkg/constants"
)

// ValidatePricingStore checks the pricing store kind and its path.
func ValidatePricingStore(kind, path string) error {
	if kind != constants.PricingStoreFile && kind != constants.PricingStoreSQLite {
		return fmt.Errorf("expected pricing store of %s or %s, got %q",
			constants.PricingStoreFile, constants.PricingStoreSQLite, kind)
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("pricing store path is required for the %s store", kind)
	}
	return nil
}

// PricingStoreWarnings flags store settings that work but are probably
// unintended.
func PricingStoreWarnings(kind, path string) []string {
	var warnings []string
	ext := strings.ToLower(filepath.Ext(path))

	switch kind {
	case constants.PricingStoreFile:
		if ext != ".json" {
			warnings = append(warnings, fmt.Sprintf("pricing store file %q does not have a .json extension", path))
		}
	case constants.PricingStoreSQLite:
		if ext == ".json" {
			warnings = append(warnings, fmt.Sprintf("sqlite pricing store %q has a .json extension", path))
		}
	}
	return warnings
}
