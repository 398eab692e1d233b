package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/actionqueue/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "queue.concurrency")
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

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateQueue()...)
	errors = append(errors, c.validateScaling()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateDemo()...)

	return errors
}

// validateQueue validates the QueueConfig
func (c *Config) validateQueue() []ValidationError {
	var errors []ValidationError

	if c.Queue.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "queue.concurrency",
			Value:   c.Queue.Concurrency,
			Message: "must be a positive integer",
		})
	}

	return errors
}

// validateScaling validates the ScalingConfig. Bounds are checked even when
// scaling is disabled so that enabling it later cannot surface old mistakes.
func (c *Config) validateScaling() []ValidationError {
	var errors []ValidationError
	s := c.Scaling

	if s.MinConcurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "scaling.min_concurrency",
			Value:   s.MinConcurrency,
			Message: "must be a positive integer",
		})
	}
	if s.MaxConcurrency < s.MinConcurrency {
		errors = append(errors, ValidationError{
			Field:   "scaling.max_concurrency",
			Value:   s.MaxConcurrency,
			Message: fmt.Sprintf("must be at least scaling.min_concurrency (%d)", s.MinConcurrency),
		})
	}
	if s.ScaleUpThreshold < 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.scale_up_threshold",
			Value:   s.ScaleUpThreshold,
			Message: "must be non-negative",
		})
	}
	if s.ScaleDownThreshold < 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.scale_down_threshold",
			Value:   s.ScaleDownThreshold,
			Message: "must be non-negative",
		})
	}
	if s.Cooldown < 0 {
		errors = append(errors, ValidationError{
			Field:   "scaling.cooldown",
			Value:   s.Cooldown,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.ToLower(strings.Join(logging.ValidLevels(), ", "))),
		})
	}

	return errors
}

// validateDemo validates the DemoConfig
func (c *Config) validateDemo() []ValidationError {
	var errors []ValidationError

	if c.Demo.Actions < 0 {
		errors = append(errors, ValidationError{
			Field:   "demo.actions",
			Value:   c.Demo.Actions,
			Message: "must be non-negative",
		})
	}
	if c.Demo.Delay < 0 {
		errors = append(errors, ValidationError{
			Field:   "demo.delay",
			Value:   c.Demo.Delay,
			Message: "must be non-negative",
		})
	}

	return errors
}
