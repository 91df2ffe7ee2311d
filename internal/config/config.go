// Package config loads sysledd options from a TOML file, SYSLEDD_*
// environment variables and command line flags, and watches the file for
// changes.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/casing"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smazurov/sysledd/internal/logging"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "SYSLEDD_"

var durationType = reflect.TypeOf(time.Duration(0))

// LoadConfig loads configuration with proper precedence: CLI args > env vars > config file.
// If cmd is provided, flags explicitly set via CLI will not be overwritten.
//
// opts must be a pointer to a flat struct. Fields carry a `toml` tag with
// the dotted path in the file and an `env` tag with the variable name
// without EnvPrefix. A field named Config holds the file path.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	// Build set of flags explicitly changed via CLI
	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	var configPath string
	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String {
		configPath = f.String()
	}

	// Load TOML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			var config map[string]any
			if err := toml.Unmarshal(data, &config); err != nil {
				return fmt.Errorf("failed to parse TOML config: %w", err)
			}

			for i := 0; i < v.NumField(); i++ {
				fieldType := t.Field(i)
				if changedFlags[fieldNameToFlag(fieldType.Name)] {
					continue
				}

				if tomlPath := fieldType.Tag.Get("toml"); tomlPath != "" {
					if value := getNestedValue(config, tomlPath); value != nil {
						if err := setFieldValue(v.Field(i), value); err != nil {
							return fmt.Errorf("%s: %w", tomlPath, err)
						}
					}
				}
			}
		}
	}

	// Apply environment variable overrides (skip CLI-set flags)
	for i := 0; i < v.NumField(); i++ {
		fieldType := t.Field(i)
		if changedFlags[fieldNameToFlag(fieldType.Name)] {
			continue
		}

		if envKey := fieldType.Tag.Get("env"); envKey != "" {
			if envValue := os.Getenv(EnvPrefix + envKey); envValue != "" {
				if err := setFieldValueFromString(v.Field(i), envValue); err != nil {
					return fmt.Errorf("%s%s: %w", EnvPrefix, envKey, err)
				}
			}
		}
	}

	return nil
}

// fieldNameToFlag returns the CLI flag humacli derives from a struct
// field name, e.g. "LoggingLevel" -> "logging-level" and
// "HardwareI2CAddr" -> "hardware-i2-c-addr".
func fieldNameToFlag(fieldName string) string {
	return casing.Kebab(fieldName)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			return nil
		}
	}
	return nil
}

// setFieldValue sets a field from a decoded TOML value.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	if field.Type() == durationType {
		switch d := value.(type) {
		case string:
			parsed, err := time.ParseDuration(d)
			if err != nil {
				return err
			}
			field.SetInt(int64(parsed))
		case int64:
			field.SetInt(d * int64(time.Second))
		}
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		switch s := value.(type) {
		case string:
			field.SetString(s)
		case []any:
			// Arrays land in comma-separated list options
			parts := make([]string, 0, len(s))
			for _, v := range s {
				if str, strOk := v.(string); strOk {
					parts = append(parts, str)
				}
			}
			field.SetString(strings.Join(parts, ","))
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int:
		switch i := value.(type) {
		case int64:
			field.SetInt(i)
		case int:
			field.SetInt(int64(i))
		case string:
			// Register addresses are usually written in hex
			parsed, err := strconv.ParseInt(i, 0, 64)
			if err != nil {
				return err
			}
			field.SetInt(parsed)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			if arr, ok := value.([]any); ok {
				slice := make([]string, len(arr))
				for i, v := range arr {
					if s, strOk := v.(string); strOk {
						slice[i] = s
					}
				}
				field.Set(reflect.ValueOf(slice))
			}
		}
	}
	return nil
}

// setFieldValueFromString sets a field value from string (for env vars).
func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int:
		i, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Parse comma-separated values for env vars
			parts := strings.Split(value, ",")
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
	return nil
}

// DefaultLoggingConfig is used when the file has no [logging] table.
func DefaultLoggingConfig() logging.Config {
	return logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}
}

// LoadLoggingConfig loads logging configuration from a TOML config file.
// Returns default config if file doesn't exist or can't be parsed.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg, err := ReadLoggingConfig(configPath)
	if err != nil {
		return DefaultLoggingConfig()
	}
	return cfg
}

// ReadLoggingConfig parses the [logging] table of the file at configPath.
// Module levels may be given either as keys of [logging] itself or under
// [logging.modules]. A missing file yields the defaults.
func ReadLoggingConfig(configPath string) (logging.Config, error) {
	cfg := DefaultLoggingConfig()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	var rawConfig struct {
		Logging map[string]any `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &rawConfig); err != nil {
		return cfg, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	// Extract level and format, rest are module-specific levels
	for key, value := range rawConfig.Logging {
		switch val := value.(type) {
		case string:
			switch key {
			case "level":
				cfg.Level = val
			case "format":
				cfg.Format = val
			default:
				cfg.Modules[key] = val
			}
		case map[string]any:
			if key != "modules" {
				continue
			}
			for module, level := range val {
				if s, ok := level.(string); ok {
					cfg.Modules[module] = s
				}
			}
		}
	}

	return cfg, nil
}

// LoggingOverrides collects the `logging.*` options of opts that were set
// on the command line or through the environment. The result holds only
// those values and is meant for MergeLogging.
func LoggingOverrides(opts any, cmd *cobra.Command) logging.Config {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()
	out := logging.Config{Modules: make(map[string]string)}

	for i := 0; i < v.NumField(); i++ {
		fieldType := t.Field(i)
		key, ok := strings.CutPrefix(fieldType.Tag.Get("toml"), "logging.")
		if !ok || v.Field(i).Kind() != reflect.String {
			continue
		}
		if !explicitlySet(fieldType, cmd) {
			continue
		}
		value := v.Field(i).String()
		switch key {
		case "level":
			out.Level = value
		case "format":
			out.Format = value
		default:
			out.Modules[key] = value
		}
	}
	return out
}

func explicitlySet(field reflect.StructField, cmd *cobra.Command) bool {
	if cmd != nil {
		if f := cmd.Flags().Lookup(fieldNameToFlag(field.Name)); f != nil && f.Changed {
			return true
		}
	}
	envKey := field.Tag.Get("env")
	return envKey != "" && os.Getenv(EnvPrefix+envKey) != ""
}

// MergeLogging returns base with every non-empty value of overrides
// applied on top.
func MergeLogging(base, overrides logging.Config) logging.Config {
	out := logging.Config{
		Level:   base.Level,
		Format:  base.Format,
		Modules: make(map[string]string, len(base.Modules)+len(overrides.Modules)),
	}
	for module, level := range base.Modules {
		out.Modules[module] = level
	}
	if overrides.Level != "" {
		out.Level = overrides.Level
	}
	if overrides.Format != "" {
		out.Format = overrides.Format
	}
	for module, level := range overrides.Modules {
		if level != "" {
			out.Modules[module] = level
		}
	}
	return out
}
