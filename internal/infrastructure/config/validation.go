package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is a wrapper around go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func (v *Validator) formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrs {
			messages = append(messages, fmt.Sprintf(
				"field '%s' failed validation: %s (value: '%v')",
				e.Field(),
				e.Tag(),
				e.Value(),
			))
		}
		return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
	}
	return err
}

// ValidateConfig validates the full configuration, including the
// cross-field topology constraints the tag syntax cannot express
func ValidateConfig(cfg *Config) error {
	if err := NewValidator().Validate(cfg); err != nil {
		return err
	}

	inputs, outputs := 0, 0
	seen := make(map[string]bool)
	for _, spec := range cfg.World.Containers {
		if seen[spec.Name] {
			return fmt.Errorf("duplicate container name: %s", spec.Name)
		}
		seen[spec.Name] = true

		switch spec.Role {
		case "input":
			inputs++
		case "output":
			outputs++
		}
	}
	if inputs > 1 {
		return fmt.Errorf("at most one container may hold the input role, found %d", inputs)
	}
	if outputs > 1 {
		return fmt.Errorf("at most one container may hold the output role, found %d", outputs)
	}

	return nil
}
