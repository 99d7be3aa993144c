package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "scheduler.workers")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// ValidInputFormats returns the list of valid input formats ("" = detect)
func ValidInputFormats() []string {
	return []string{"", "steps", "yaml", "json", "hcl"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateScheduler()...)
	errors = append(errors, c.validateInput()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateState()...)

	return errors
}

func (c *Config) validateScheduler() []ValidationError {
	var errors []ValidationError

	if c.Scheduler.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.workers",
			Value:   c.Scheduler.Workers,
			Message: "must be at least 1",
		})
	}

	if c.Scheduler.BaseOffset < 0 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.base_offset",
			Value:   c.Scheduler.BaseOffset,
			Message: "must be non-negative",
		})
	}

	if c.Scheduler.DefaultDuration < 0 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.default_duration",
			Value:   c.Scheduler.DefaultDuration,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateInput() []ValidationError {
	if slices.Contains(ValidInputFormats(), c.Input.Format) {
		return nil
	}
	return []ValidationError{{
		Field:   "input.format",
		Value:   c.Input.Format,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidInputFormats()[1:], ", ")),
	}}
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.Format != "" && !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateState() []ValidationError {
	if strings.TrimSpace(c.State.Dir) == "" {
		return []ValidationError{{
			Field:   "state.dir",
			Value:   c.State.Dir,
			Message: "must not be empty",
		}}
	}
	return nil
}
