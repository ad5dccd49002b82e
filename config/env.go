package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
)

// envParser is a helper for parsing environment variables with validation
type envParser struct {
	errors []string
}

func (p *envParser) parseString(envName string, target *string) {
	if val := strings.TrimSpace(os.Getenv(envName)); val != "" {
		*target = val
	}
}

// parseList parses a comma-separated environment variable
func (p *envParser) parseList(envName string, target *[]string) {
	val := os.Getenv(envName)
	if strings.TrimSpace(val) == "" {
		return
	}

	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*target = items
}

// parseDuration parses a duration environment variable, ensuring it's positive
func (p *envParser) parseDuration(envName string, target *time.Duration) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("%s: invalid duration format (use '30s', '1m', etc.)", envName))
		return
	}

	if duration <= 0 {
		p.errors = append(p.errors, fmt.Sprintf("%s must be positive", envName))
		return
	}

	*target = duration
}

// parseEnum parses an enum environment variable from a set of valid values
func (p *envParser) parseEnum(envName string, target *string, valid []string, normalize func(string) string) {
	val := os.Getenv(envName)
	if val == "" {
		return
	}

	normalized := normalize(strings.TrimSpace(val))
	if !slices.Contains(valid, normalized) {
		p.errors = append(p.errors, fmt.Sprintf("%s must be one of: %s", envName, strings.Join(valid, ", ")))
		return
	}

	*target = normalized
}

func (p *envParser) err() error {
	if len(p.errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(p.errors, "\n  - "))
	}
	return nil
}
