// Package password checks candidate passwords against a configurable
// strength policy. Pure validation, no hashing.
package password

import (
	"errors"
	"fmt"
	"unicode"
)

// Violation is a policy failure. Its message is safe to show to the
// user, unlike infrastructure errors.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string { return v.Reason }

// IsViolation reports whether err is a policy violation rather than an
// infrastructure failure.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

func violationf(format string, args ...any) error {
	return &Violation{Reason: fmt.Sprintf(format, args...)}
}

// Requirements configures the policy. The zero value accepts everything;
// use DefaultRequirements for the production policy.
type Requirements struct {
	MinLength           int
	MaxLength           int
	RequireUppercase    bool
	RequireSymbol       bool
	RequireNumber       bool
	ASCIIOnly           bool
	NoSpecialCharacters bool
	NoWhitespace        bool
}

func DefaultRequirements() Requirements {
	return Requirements{
		MinLength:           8,
		MaxLength:           64,
		RequireUppercase:    true,
		RequireSymbol:       true,
		RequireNumber:       true,
		ASCIIOnly:           true,
		NoSpecialCharacters: true,
		NoWhitespace:        true,
	}
}

// Validate returns the first policy violation, or nil if the password is
// acceptable. Check order is fixed: encoding checks run before content
// checks so that error messages never describe non-printable input.
func (r Requirements) Validate(password string) error {
	if r.ASCIIOnly {
		for _, c := range password {
			if c > unicode.MaxASCII {
				return violationf("Password must contain only ASCII characters")
			}
		}
	}
	if r.NoSpecialCharacters {
		for _, c := range password {
			if c < ' ' || c > '~' {
				return violationf("Password must not contain any special characters")
			}
		}
	}
	if r.MinLength > 0 && len(password) < r.MinLength {
		return violationf("Password must be at least %d characters long", r.MinLength)
	}
	if r.MaxLength > 0 && len(password) > r.MaxLength {
		return violationf("Password is too long, maximum length is %d", r.MaxLength)
	}
	if r.NoWhitespace && containsFunc(password, unicode.IsSpace) {
		return violationf("Password must not contain any whitespaces")
	}
	if r.RequireUppercase && !containsFunc(password, unicode.IsUpper) {
		return violationf("Password must contain at least 1 uppercase character")
	}
	if r.RequireSymbol && !containsFunc(password, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c)
	}) {
		return violationf("Password must contain at least 1 symbol")
	}
	if r.RequireNumber && !containsFunc(password, unicode.IsNumber) {
		return violationf("Password must contain at least 1 number")
	}
	return nil
}

func containsFunc(s string, f func(rune) bool) bool {
	for _, c := range s {
		if f(c) {
			return true
		}
	}
	return false
}
