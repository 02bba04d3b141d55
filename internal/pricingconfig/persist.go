package pricingconfig

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/adu-proposal/pkg/constants"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Marshal encodes the configuration as the persisted JSON document.
func Marshal(c Configuration) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode pricing configuration: %w", err)
	}
	return data, nil
}

// MarshalYAML encodes the configuration as YAML for human editing.
func MarshalYAML(c Configuration) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode pricing configuration as yaml: %w", err)
	}
	return data, nil
}

// Unmarshal strictly decodes and validates a current-version document.
func Unmarshal(data []byte) (Configuration, error) {
	var c Configuration
	if err := json.Unmarshal(data, &c); err != nil {
		return Configuration{}, fmt.Errorf("decode pricing configuration: %w", err)
	}
	if c.Version != constants.PricingConfigVersion {
		return Configuration{}, fmt.Errorf("pricing configuration version %q does not match %q", c.Version, constants.PricingConfigVersion)
	}
	if err := c.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("invalid pricing configuration: %w", err)
	}
	return c, nil
}

// Load decodes a persisted document without ever failing. A current,
// valid document is returned as is. Anything else is migrated: the defaults
// are overlaid with each recognized field that decodes and validates on its
// own. The returned notes describe every fallback taken.
func Load(logger *zap.Logger, data []byte, now time.Time) (Configuration, []string) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := Unmarshal(data)
	if err == nil {
		return c, nil
	}

	var raw map[string]json.RawMessage
	if jsonErr := json.Unmarshal(data, &raw); jsonErr != nil {
		note := fmt.Sprintf("stored pricing configuration is malformed, using defaults: %v", jsonErr)
		logger.Warn(note,
			zap.String("op", "pricingconfig.Load"),
		)
		defaults := Defaults()
		defaults.LastUpdated = now
		return defaults, []string{note}
	}

	logger.Info("migrating stored pricing configuration",
		zap.String("op", "pricingconfig.Load"),
		zap.String("reason", err.Error()),
	)
	migrated, notes := Migrate(raw, now)
	for _, note := range notes {
		logger.Warn(note,
			zap.String("op", "pricingconfig.Load"),
		)
	}
	return migrated, notes
}

// Migrate starts from Defaults and overlays recognized fields from raw. The
// result always carries the current version and now as LastUpdated.
func Migrate(raw map[string]json.RawMessage, now time.Time) (Configuration, []string) {
	c := Defaults()
	var notes []string

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw[key]
		var err error
		switch key {
		case "version", "lastUpdated":
			continue
		case "aduTypePricing":
			err = overlay(value, &c.ADUTypePricing, validateADUTypes)
		case "designServiceFee":
			err = overlay(value, &c.DesignServiceFee, func(v float64) []error { return single(validateDesignFee(v)) })
		case "utilityOptions":
			err = overlay(value, &c.UtilityOptions, validateUtilities)
		case "addOnOptions":
			err = overlay(value, &c.AddOnOptions, validateAddOns)
		case "businessSettings":
			err = overlayOnto(value, &c.BusinessSettings, validateBusinessSettings)
		case "discountRate":
			err = overlay(value, &c.DiscountRate, func(v float64) []error { return single(validateDiscountRate(v)) })
		case "milestones":
			err = overlay(value, &c.Milestones, validateMilestones)
		default:
			notes = append(notes, fmt.Sprintf("ignoring unrecognized pricing configuration field %q", key))
			continue
		}
		if err != nil {
			notes = append(notes, fmt.Sprintf("keeping default %s: %v", key, err))
		}
	}

	c.Version = constants.PricingConfigVersion
	c.LastUpdated = now
	return c, notes
}

// overlay decodes value into a fresh T and assigns it to dst when valid.
func overlay[T any](value json.RawMessage, dst *T, check func(T) []error) error {
	var decoded T
	if err := json.Unmarshal(value, &decoded); err != nil {
		return err
	}
	if errs := check(decoded); len(errs) > 0 {
		return errs[0]
	}
	*dst = decoded
	return nil
}

// overlayOnto decodes value over a copy of *dst so fields absent from the
// stored document keep their default.
func overlayOnto[T any](value json.RawMessage, dst *T, check func(T) []error) error {
	decoded := *dst
	if err := json.Unmarshal(value, &decoded); err != nil {
		return err
	}
	if errs := check(decoded); len(errs) > 0 {
		return errs[0]
	}
	*dst = decoded
	return nil
}

func single(err error) []error {
	if err == nil {
		return nil
	}
	return []error{err}
}
