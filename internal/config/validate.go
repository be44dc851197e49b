package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Validate checks the trees of cfg and joins every problem found.
func Validate(cfg *Config) error {
	var errs []error
	seen := make(map[string]bool, len(cfg.Trees))
	for i, tree := range cfg.Trees {
		field := fmt.Sprintf("trees[%d]", i)
		switch {
		case tree.name == "":
			errs = append(errs, &ValidationError{Field: field + ".name", Message: "is required"})
		case strings.ContainsAny(tree.name, `/\`):
			errs = append(errs, &ValidationError{Field: field + ".name", Message: fmt.Sprintf("%q must not contain path separators", tree.name)})
		case seen[tree.name]:
			errs = append(errs, &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate tree %q", tree.name)})
		}
		seen[tree.name] = true

		if tree.sourceDir == "" {
			errs = append(errs, &ValidationError{Field: field + ".sourcedir", Message: "is required"})
		}
	}
	return errors.Join(errs...)
}
