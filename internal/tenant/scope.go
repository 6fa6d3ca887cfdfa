package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Scope identifies the tenant boundary of one operation. It is threaded as an
// explicit parameter through every repository and service call so that a new
// code path cannot forget to apply it. An unbound scope (no company id, not
// super admin) matches nothing; callers must branch on Bound() rather than
// treating absence as allow-all.
type Scope struct {
	companyID  *uuid.UUID
	superAdmin bool
}

// ForCompany returns a scope bound to a single company.
func ForCompany(companyID uuid.UUID) Scope {
	id := companyID
	return Scope{companyID: &id}
}

// SuperAdmin returns the designated bypass scope that may cross company
// boundaries.
func SuperAdmin() Scope {
	return Scope{superAdmin: true}
}

// Unbound returns a scope with no tenant attached. Reads and writes under it
// fail closed.
func Unbound() Scope {
	return Scope{}
}

// CompanyID returns the bound company id, if any.
func (s Scope) CompanyID() (uuid.UUID, bool) {
	if s.companyID == nil {
		return uuid.Nil, false
	}
	return *s.companyID, true
}

// Bound reports whether the scope can authorize any operation at all.
func (s Scope) Bound() bool {
	return s.superAdmin || s.companyID != nil
}

// IsSuperAdmin reports whether the scope bypasses company boundaries.
func (s Scope) IsSuperAdmin() bool {
	return s.superAdmin
}

// Allows reports whether a row owned by companyID is visible to this scope.
func (s Scope) Allows(companyID uuid.UUID) bool {
	if s.superAdmin {
		return true
	}
	if s.companyID == nil {
		return false
	}
	return *s.companyID == companyID
}

type ctxKey struct{}

// WithScope stashes the scope on the context for the HTTP layer. Domain code
// still receives the scope as an explicit argument.
func WithScope(ctx context.Context, scope Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, scope)
}

// FromContext returns the scope previously attached by WithScope.
func FromContext(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	scope, ok := ctx.Value(ctxKey{}).(Scope)
	return scope, ok
}
