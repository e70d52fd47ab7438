// package validate
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validator is a function that validates a string and returns an error if invalid
type Validator func(value string) error

// Field creates a labeled validator with a custom name for better error messages
func Field(name string, validators ...Validator) Validator {
	return func(value string) error {
		for _, v := range validators {
			if err := v(value); err != nil {
				if !strings.Contains(err.Error(), name) {
					return fmt.Errorf("%s: %w", name, err)
				}
				return err
			}
		}
		return nil
	}
}

// Compose chains multiple validators — first error wins
func Compose(validators ...Validator) Validator {
	return func(value string) error {
		for _, v := range validators {
			if err := v(value); err != nil {
				return err
			}
		}
		return nil
	}
}

// Required ensures the field is not empty
func Required() Validator {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	}
}

// MinLength checks minimum length in runes
func MinLength(min int) Validator {
	return func(v string) error {
		if utf8.RuneCountInString(v) < min {
			return fmt.Errorf("must be at least %d characters", min)
		}
		return nil
	}
}

// MaxLength checks maximum length in runes
func MaxLength(max int) Validator {
	return func(v string) error {
		if utf8.RuneCountInString(v) > max {
			return fmt.Errorf("must be no more than %d characters", max)
		}
		return nil
	}
}
