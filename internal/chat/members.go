package chat

import "github.com/samber/lo"

// MembershipResult is the tagged outcome of a membership mutation. Compare by
// value, never by identity.
type MembershipResult int

const (
	Added MembershipResult = iota
	AlreadyMember
	Removed
	NotAMember
	OperationFailed
)

func (r MembershipResult) String() string {
	switch r {
	case Added:
		return "added"
	case AlreadyMember:
		return "already_member"
	case Removed:
		return "removed"
	case NotAMember:
		return "not_a_member"
	case OperationFailed:
		return "operation_failed"
	default:
		return "unknown"
	}
}

// MembershipRegistry tracks a room's explicit members and decides room-type
// authorization. Like MessageStore it is unlocked; the owning Room serializes
// access. OperationFailed is never produced here; the Room layer maps a
// store fault on the triggered persist to it.
type MembershipRegistry struct {
	members []string
}

// Add registers an alias. Adding an existing member is an idempotent no-op
// reported as AlreadyMember.
func (r *MembershipRegistry) Add(alias string) MembershipResult {
	if lo.Contains(r.members, alias) {
		return AlreadyMember
	}
	r.members = append(r.members, alias)
	return Added
}

// Remove drops an alias, reporting NotAMember when it was never present.
func (r *MembershipRegistry) Remove(alias string) MembershipResult {
	if !lo.Contains(r.members, alias) {
		return NotAMember
	}
	r.members = lo.Without(r.members, alias)
	return Removed
}

// Contains reports explicit membership only; the owner is handled by
// Authorized.
func (r *MembershipRegistry) Contains(alias string) bool {
	return lo.Contains(r.members, alias)
}

// Authorized applies the room access predicate: public rooms admit anyone the
// API layer let through, and private rooms admit the owner plus explicit
// members.
func (r *MembershipRegistry) Authorized(alias string, roomType RoomType, ownerAlias string) bool {
	if roomType == RoomTypePublic {
		return true
	}
	if alias == ownerAlias {
		return true
	}
	return lo.Contains(r.members, alias)
}

// Aliases returns a copy of the member set in insertion order.
func (r *MembershipRegistry) Aliases() []string {
	out := make([]string, len(r.members))
	copy(out, r.members)
	return out
}

// Len returns the member count.
func (r *MembershipRegistry) Len() int {
	return len(r.members)
}
