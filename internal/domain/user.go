package domain

// GuestUserID owns body measurements recorded without an authenticated identity.
const GuestUserID = "guest"

// Identity is the authenticated user the sync layer acts for.
// A nil *Identity means guest mode: data stays local and remote sync is skipped.
type Identity struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
}

// OwnerID returns the id local user-scoped records are stored under.
func OwnerID(user *Identity) string {
	if user == nil || user.UserID == "" {
		return GuestUserID
	}
	return user.UserID
}
