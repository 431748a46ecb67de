package flow

import (
	"regexp"
	"strings"

	"github.com/dmitrijs2005/gophprint/internal/common"
)

const (
	msgEmptyCredential   = "Please enter your email or phone number"
	msgInvalidCredential = "Please enter a valid email or phone number"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
)

// ValidateCredential trims input and checks it is an email or a phone
// number. The returned error matches common.ErrValidation and its text is
// the user-facing message.
func ValidateCredential(input string) (string, error) {
	c := strings.TrimSpace(input)
	if c == "" {
		return "", validationError(msgEmptyCredential)
	}
	if !emailRe.MatchString(c) && !phoneRe.MatchString(c) {
		return "", validationError(msgInvalidCredential)
	}
	return c, nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

func (e validationError) Unwrap() error { return common.ErrValidation }
