package models

// Group represents a named collection of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Trip to Goa", "Flatmates").
	Name string

	// CreatedBy is the user ID of the group's creator. The creator is always a member.
	CreatedBy string

	// MemberIDs is the set of user IDs in this group. No duplicates.
	MemberIDs []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.MemberIDs {
		if m == userID {
			return true
		}
	}
	return false
}
