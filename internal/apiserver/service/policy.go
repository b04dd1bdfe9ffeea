package service

import (
	"context"

	"github.com/amoylab/casamento/internal/apiserver/model"
	"github.com/amoylab/casamento/internal/common/errorx"
)

// Operation is one of the five CRUD operations
type Operation string

const (
	OpList     Operation = "list"
	OpCreate   Operation = "create"
	OpRetrieve Operation = "retrieve"
	OpUpdate   Operation = "update"
	OpDelete   Operation = "delete"
)

// Operations lists every operation
var Operations = []Operation{OpList, OpCreate, OpRetrieve, OpUpdate, OpDelete}

// Principal is the authenticated caller
type Principal struct {
	UserID   uint
	Username string
	Role     model.Role
}

// IsAdmin reports whether the caller bypasses row scoping
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == model.RoleAdmin
}

type principalKey struct{}

// WithPrincipal returns a context carrying the authenticated caller
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller carried by ctx, or nil for anonymous calls
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// Policy is the authentication gate evaluated before every operation
type Policy struct {
	anonymous map[Operation]bool
}

// Authenticated requires a caller for every operation
func Authenticated() Policy {
	return Policy{}
}

// AnonymousCan lets anonymous callers run ops; the rest require a caller
func AnonymousCan(ops ...Operation) Policy {
	p := Policy{anonymous: make(map[Operation]bool, len(ops))}
	for _, op := range ops {
		p.anonymous[op] = true
	}
	return p
}

// AllowsAnonymous reports whether op is open to anonymous callers
func (p Policy) AllowsAnonymous(op Operation) bool {
	return p.anonymous[op]
}

// Authorize fails with an AuthorizationError when ctx carries no caller
// and op requires one
func (p Policy) Authorize(ctx context.Context, op Operation) error {
	if p.anonymous[op] || PrincipalFrom(ctx) != nil {
		return nil
	}
	return &errorx.AuthorizationError{Authenticated: false}
}
