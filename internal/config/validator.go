package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "launch.base_port")
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

const maxPort = 65535

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateAccounts()...)
	errors = append(errors, c.validatePaths()...)
	errors = append(errors, c.validateLaunch()...)
	errors = append(errors, c.validateInspector()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateAccounts validates the roster
func (c *Config) validateAccounts() []ValidationError {
	var errors []ValidationError

	if len(c.Accounts.Characters()) == 0 {
		errors = append(errors, ValidationError{
			Field:   "accounts",
			Value:   len(c.Accounts),
			Message: "must list at least one character",
		})
		return errors
	}

	seen := make(map[string]string)
	for _, acct := range c.Accounts {
		field := "accounts." + acct.Name
		if strings.TrimSpace(acct.Name) == "" {
			errors = append(errors, ValidationError{
				Field:   "accounts",
				Value:   acct.Name,
				Message: "account name must not be empty",
			})
		}
		for _, name := range acct.Characters {
			// Names are matched against ps output as a single token after --login.
			if name == "" || strings.HasPrefix(name, "-") || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
				errors = append(errors, ValidationError{
					Field:   field,
					Value:   name,
					Message: "character name must be one word not starting with '-'",
				})
				continue
			}
			key := strings.ToLower(name)
			if other, dup := seen[key]; dup {
				errors = append(errors, ValidationError{
					Field:   field,
					Value:   name,
					Message: fmt.Sprintf("character already listed under account %s", other),
				})
				continue
			}
			seen[key] = acct.Name
		}
	}

	return errors
}

// validatePaths validates the PathsConfig
func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	check := func(field, path string) {
		if path == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   path,
				Message: "is required",
			})
			return
		}
		if strings.ContainsRune(path, '\x00') {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   path,
				Message: "path contains invalid null character",
			})
			return
		}
		info, err := os.Stat(expandHome(path))
		if err != nil {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   path,
				Message: "file does not exist",
			})
			return
		}
		if info.IsDir() {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   path,
				Message: "must be a file, not a directory",
			})
		}
	}

	check("paths.lich_bin", c.Paths.LichBin)
	check("paths.profanity_bin", c.Paths.ProfanityBin)

	if strings.ContainsRune(c.Paths.StateDir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "paths.state_dir",
			Value:   c.Paths.StateDir,
			Message: "path contains invalid null character",
		})
	}

	return errors
}

// validateLaunch validates the LaunchConfig
func (c *Config) validateLaunch() []ValidationError {
	var errors []ValidationError
	l := c.Launch

	if l.BasePort < 1 || l.BasePort > maxPort {
		errors = append(errors, ValidationError{
			Field:   "launch.base_port",
			Value:   l.BasePort,
			Message: fmt.Sprintf("must be between 1 and %d", maxPort),
		})
	}

	nonNegative := []struct {
		field string
		value int
	}{
		{"launch.settle_delay_ms", l.SettleDelayMs},
		{"launch.ready_timeout_ms", l.ReadyTimeoutMs},
		{"launch.attach_backoff_ms", l.AttachBackoffMs},
	}
	for _, n := range nonNegative {
		if n.value < 0 {
			errors = append(errors, ValidationError{
				Field:   n.field,
				Value:   n.value,
				Message: "must be non-negative",
			})
		}
	}

	if l.ReadyPollIntervalMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "launch.ready_poll_interval_ms",
			Value:   l.ReadyPollIntervalMs,
			Message: "must be positive",
		})
	}

	const maxAttachAttempts = 100
	if l.AttachAttempts < 1 {
		errors = append(errors, ValidationError{
			Field:   "launch.attach_attempts",
			Value:   l.AttachAttempts,
			Message: "must be at least 1",
		})
	}
	if l.AttachAttempts > maxAttachAttempts {
		errors = append(errors, ValidationError{
			Field:   "launch.attach_attempts",
			Value:   l.AttachAttempts,
			Message: fmt.Sprintf("exceeds maximum of %d", maxAttachAttempts),
		})
	}

	return errors
}

// validateInspector validates the InspectorConfig
func (c *Config) validateInspector() []ValidationError {
	var errors []ValidationError

	if c.Inspector.TimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "inspector.timeout_ms",
			Value:   c.Inspector.TimeoutMs,
			Message: "must be positive",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
