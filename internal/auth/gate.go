package auth

import "github.com/ovaphlow/pitchfork/service-todo-go/internal/auth/entity"

// Caller is the authenticated identity a request acts as, reconstructed
// from validated token claims on every request.
type Caller struct {
	UserID   int64
	Username string
	Role     string
}

func (c Caller) IsAdmin() bool { return c.Role == entity.RoleAdmin }

// Owns reports whether the caller may touch a resource owned by ownerID.
// Admins bypass the ownership filter.
func (c Caller) Owns(ownerID int64) bool {
	return c.IsAdmin() || c.UserID == ownerID
}

// RejectReason classifies why a request was short-circuited.
type RejectReason string

const (
	ReasonUnauthenticated RejectReason = "unauthenticated"
	ReasonForbidden       RejectReason = "forbidden"
)

// Decision is the outcome of the authorization gate: either the request
// proceeds as Caller, or it is rejected with a reason. The gate never
// mutates state.
type Decision struct {
	Allowed bool
	Caller  Caller
	Reason  RejectReason
}

// Decide derives a permission decision from validated claims. A nil claims
// value means no valid token was presented. When requireAdmin is set, any
// role other than admin is rejected; an absent role claim counts as
// insufficient privilege, not a distinct error.
func Decide(claims *Claims, requireAdmin bool) Decision {
	if claims == nil {
		return Decision{Reason: ReasonUnauthenticated}
	}
	caller := Caller{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}
	if requireAdmin && !caller.IsAdmin() {
		return Decision{Reason: ReasonForbidden}
	}
	return Decision{Allowed: true, Caller: caller}
}
