package shared

// AuthzStatus is the outcome of a privileged-operation authorization check.
// The check against the chat member list can itself fail (network, API error);
// that is a distinct outcome and must never be collapsed into "unauthorized".
type AuthzStatus int

const (
	// Authorized - the caller may perform the privileged operation.
	Authorized AuthzStatus = iota

	// Unauthorized - the caller was positively identified as not allowed.
	Unauthorized

	// CheckFailed - the authorization check could not be completed.
	CheckFailed
)

// String returns the string representation of the authz status.
func (s AuthzStatus) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	case CheckFailed:
		return "check_failed"
	default:
		return "unknown"
	}
}

// AuthzResult carries the authorization outcome plus the failure cause, if any.
type AuthzResult struct {
	Status AuthzStatus
	Err    error
}

// Allowed reports whether the operation may proceed.
func (r AuthzResult) Allowed() bool {
	return r.Status == Authorized
}
