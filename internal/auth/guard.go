package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/teslo-shop/apiserver/types"
)

// ErrMissingPrincipal means a role check ran without an authenticated user.
var ErrMissingPrincipal = errors.New("User not found")

// InsufficientRoleError means the principal holds none of the required roles.
type InsufficientRoleError struct {
	FullName string
	Required []string
}

func (e *InsufficientRoleError) Error() string {
	return fmt.Sprintf("User %s need a valid role: [%s]", e.FullName, strings.Join(e.Required, ","))
}

// CanAccess allows the principal when no roles are required or when it holds
// at least one of them.
func CanAccess(required []string, principal *types.User) error {
	if len(required) == 0 {
		return nil
	}
	if principal == nil {
		return ErrMissingPrincipal
	}
	for _, role := range principal.Roles {
		if slices.Contains(required, role) {
			return nil
		}
	}
	return &InsufficientRoleError{FullName: principal.FullName, Required: slices.Clone(required)}
}
