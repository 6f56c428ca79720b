// Package auth resolves request identity. Authentication itself is an
// external collaborator (an auth gateway or session service in front of
// this process); this adapter only maps its verdict onto a user record.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/scribefox/creditgate/ports"
)

// UserHeader carries the authenticated user ID, set by the fronting auth
// gateway. Requests without it are treated as guests.
const UserHeader = "X-Auth-User"

// HeaderIdentity resolves users from the trusted gateway header.
type HeaderIdentity struct {
	users ports.UserStore
}

// NewHeaderIdentity creates a header-based identity resolver.
func NewHeaderIdentity(users ports.UserStore) *HeaderIdentity {
	return &HeaderIdentity{users: users}
}

// UserFromRequest resolves the request's user, if any.
// Returns false for guests and for unknown or suspended users.
func (i *HeaderIdentity) UserFromRequest(ctx context.Context, r *http.Request) (ports.User, bool) {
	id := strings.TrimSpace(r.Header.Get(UserHeader))
	if id == "" {
		return ports.User{}, false
	}
	u, err := i.users.Get(ctx, id)
	if err != nil || u.Status != "active" {
		return ports.User{}, false
	}
	return u, true
}
