// Package access holds the staff role/scope model and the pure
// authorization predicates the HTTP layer applies before any usecase runs.
package access

import (
	"context"
	"slices"
)

type Role string

const (
	RoleTeller  Role = "teller"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTeller, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Staff is every role allowed to touch back-office operations.
var Staff = []Role{RoleTeller, RoleManager, RoleAdmin}

// ManagerOrAbove is used for read-wide and configuration operations.
var ManagerOrAbove = []Role{RoleManager, RoleAdmin}

type Scope string

const (
	ScopePawn        Scope = "pawn"
	ScopeGoldSavings Scope = "gold_savings"
)

func (s Scope) Valid() bool {
	return s == ScopePawn || s == ScopeGoldSavings
}

type Caller struct {
	UserID string
	Role   Role
	Scopes []Scope
	Branch string
}

func (c Caller) HasScope(s Scope) bool { return slices.Contains(c.Scopes, s) }

// Allow reports whether caller holds one of roles and the required scope.
// Admins still need the scope; scopes model which business a user works in.
func Allow(c Caller, roles []Role, scope Scope) bool {
	if c.UserID == "" || !c.Role.Valid() {
		return false
	}
	if !slices.Contains(roles, c.Role) {
		return false
	}
	return c.HasScope(scope)
}

// AllowAny is Allow over a set of acceptable scopes.
func AllowAny(c Caller, roles []Role, scopes ...Scope) bool {
	for _, s := range scopes {
		if Allow(c, roles, s) {
			return true
		}
	}
	return false
}

// CanAccessBranch: admins see every branch, everyone else only their own.
func CanAccessBranch(c Caller, branch string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.Branch != "" && c.Branch == branch
}

type callerKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
