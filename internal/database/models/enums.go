package models

// MemberRole defines the role of a member within a group
type MemberRole string

const (
	MemberRoleCaptain MemberRole = "CAPTAIN"
	MemberRoleMember  MemberRole = "MEMBER"
)

// LifecycleState defines where a group is in its lifecycle
type LifecycleState string

const (
	LifecycleStateOpen     LifecycleState = "OPEN"
	LifecycleStateAssigned LifecycleState = "ASSIGNED"
	LifecycleStateRevealed LifecycleState = "REVEALED"
)

// DeriveState computes the lifecycle state of a group from its stored fields.
// A retired group has no rows and therefore no state.
func DeriveState(group *Group, members []Member) LifecycleState {
	if group.IsRevealed {
		return LifecycleStateRevealed
	}
	for i := range members {
		if members[i].HasRecipient() {
			return LifecycleStateAssigned
		}
	}
	return LifecycleStateOpen
}
