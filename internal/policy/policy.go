// Package policy holds the authorization predicates routes declare
// their access rules with. Predicates are evaluated by a single
// middleware against the identity resolved for the request, after
// authentication and before any domain operation runs.
package policy

import (
	"errors"

	"github.com/inkpress/apiserver/types"
)

var (
	// ErrUnauthorized means no credential was presented where one is
	// required. Maps to 401.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden means the caller is known but lacks the required
	// role or capability. Maps to 403.
	ErrForbidden = errors.New("permission denied")
)

// Predicate decides whether the resolved identity (nil for anonymous
// callers) may proceed. A nil return allows the request.
type Predicate func(user *types.User) error

// IsGuest allows only unauthenticated callers. It gates login: an
// already-authenticated caller may not log in again.
func IsGuest(user *types.User) error {
	if user != nil {
		return ErrForbidden
	}
	return nil
}

// IsAuthenticated allows any caller resolved to a real user.
func IsAuthenticated(user *types.User) error {
	if user == nil {
		return ErrUnauthorized
	}
	return nil
}

// IsAdmin allows authenticated callers with the admin role.
var IsAdmin = HasRole(types.RoleAdmin)

// IsAuthor allows authenticated callers with the author role.
var IsAuthor = HasRole(types.RoleAuthor)

// HasRole requires authentication first, so a missing credential is
// reported as 401 rather than 403.
func HasRole(role types.Role) Predicate {
	return func(user *types.User) error {
		if err := IsAuthenticated(user); err != nil {
			return err
		}
		if user.Role != role {
			return ErrForbidden
		}
		return nil
	}
}

// And allows only when every predicate allows; evaluation
// short-circuits on the first denial.
func And(predicates ...Predicate) Predicate {
	return func(user *types.User) error {
		for _, p := range predicates {
			if err := p(user); err != nil {
				return err
			}
		}
		return nil
	}
}

// Or allows when any predicate allows. When all deny, the denial is
// 403 if any predicate recognized the caller, 401 otherwise.
func Or(predicates ...Predicate) Predicate {
	return func(user *types.User) error {
		denial := ErrUnauthorized
		for _, p := range predicates {
			err := p(user)
			if err == nil {
				return nil
			}
			if errors.Is(err, ErrForbidden) {
				denial = ErrForbidden
			}
		}
		return denial
	}
}

// Not inverts a predicate; a caller the inner predicate would allow is
// denied with 403.
func Not(p Predicate) Predicate {
	return func(user *types.User) error {
		if p(user) == nil {
			return ErrForbidden
		}
		return nil
	}
}
