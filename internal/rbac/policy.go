// Package rbac maps token roles onto permissions for the operator API.
package rbac

import (
	"context"
	"net/http"
	"strings"
)

// Policy lists the grants of each role. A grant ending in "*" covers every
// permission with that prefix; "*" alone covers everything.
type Policy map[string][]string

func covers(grant, perm string) bool {
	if prefix, ok := strings.CutSuffix(grant, "*"); ok {
		return strings.HasPrefix(perm, prefix)
	}
	return grant == perm
}

// Allows reports whether role holds every one of perms. Unknown and empty
// roles hold nothing.
func (p Policy) Allows(role string, perms ...string) bool {
	grants, ok := p[role]
	if !ok || len(perms) == 0 {
		return false
	}
next:
	for _, perm := range perms {
		for _, g := range grants {
			if covers(g, perm) {
				continue next
			}
		}
		return false
	}
	return true
}

// Require rejects with 403 any request whose role (see WithRole) does not hold
// all of perms.
func (p Policy) Require(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !p.Allows(RoleFromContext(r.Context()), perms...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require is Default.Require.
func Require(perms ...string) func(http.Handler) http.Handler {
	return Default.Require(perms...)
}

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
