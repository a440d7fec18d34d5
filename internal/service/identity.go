package service

import (
	"errors"
	"fmt"
	"strings"

	apperrors "gift-exchange-backend/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Identity is the caller as vouched for by the identity provider
type Identity struct {
	UserID string
	Name   string
}

// IsAnonymous reports whether no user is attached
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

func (i Identity) require() error {
	if i.IsAnonymous() {
		return apperrors.ErrIdentityRequired
	}
	return nil
}

// displayName falls back to the user id when the provider sent no name
func (i Identity) displayName() string {
	if name := strings.TrimSpace(i.Name); name != "" {
		return name
	}
	return i.UserID
}

// validationError turns validator output into an apperrors.ValidationError
// naming the first failing field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidationError(strings.ToLower(fe.Field()), fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
	}
	return apperrors.NewValidationError("", err.Error())
}

// maxSecretBytes is the bcrypt input limit. The validator's max rule counts
// runes, so multibyte secrets are checked separately.
const maxSecretBytes = 72

func checkSecret(secret string) error {
	if len(secret) > maxSecretBytes {
		return apperrors.NewValidationError("secret", fmt.Sprintf("must be at most %d bytes", maxSecretBytes))
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
