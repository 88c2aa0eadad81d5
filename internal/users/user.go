package users

import (
	"time"

	"github.com/samber/lo"
)

// userDocument is the store shape of one registered user.
type userDocument struct {
	Alias      string    `json:"alias"`
	Email      string    `json:"email"`
	Blacklist  []string  `json:"blacklist"`
	Removed    bool      `json:"removed"`
	CreateTime time.Time `json:"create_time"`
	ModifyTime time.Time `json:"modify_time"`
}

// User is one registered alias. Deregistration only flips the removed flag;
// the record stays for restoration, mirroring message soft-deletes.
//
// Users are mutated exclusively through their owning UserList, which holds
// the registry lock; the methods here assume that lock is held.
type User struct {
	alias      string
	email      string
	blacklist  []string
	removed    bool
	dirty      bool
	createTime time.Time
	modifyTime time.Time
}

// newUser builds a fresh, dirty user. The blacklist is allocated per
// instance; two users never share the same backing slice.
func newUser(alias string) *User {
	now := time.Now()
	return &User{
		alias:      alias,
		blacklist:  make([]string, 0),
		dirty:      true,
		createTime: now,
		modifyTime: now,
	}
}

// userFromDocument hydrates a clean user from its store document.
func userFromDocument(doc userDocument) *User {
	return &User{
		alias:      doc.Alias,
		email:      doc.Email,
		blacklist:  append(make([]string, 0, len(doc.Blacklist)), doc.Blacklist...),
		removed:    doc.Removed,
		createTime: doc.CreateTime,
		modifyTime: doc.ModifyTime,
	}
}

func (u *User) document() userDocument {
	return userDocument{
		Alias:      u.alias,
		Email:      u.email,
		Blacklist:  append([]string(nil), u.blacklist...),
		Removed:    u.removed,
		CreateTime: u.createTime,
		ModifyTime: u.modifyTime,
	}
}

// Alias returns the user-facing unique identifier.
func (u *User) Alias() string {
	return u.alias
}

// Email returns the stored contact address, possibly empty.
func (u *User) Email() string {
	return u.email
}

// Removed reports whether the user has been soft-deregistered.
func (u *User) Removed() bool {
	return u.removed
}

// Blacklist returns a copy of the aliases this user has blocked.
func (u *User) Blacklist() []string {
	return append([]string(nil), u.blacklist...)
}

// addToBlacklist blocks target unless already blocked.
func (u *User) addToBlacklist(target string) bool {
	if lo.Contains(u.blacklist, target) {
		return false
	}
	u.blacklist = append(u.blacklist, target)
	u.markDirty()
	return true
}

// removeFromBlacklist unblocks target if it was blocked.
func (u *User) removeFromBlacklist(target string) bool {
	if !lo.Contains(u.blacklist, target) {
		return false
	}
	u.blacklist = lo.Without(u.blacklist, target)
	u.markDirty()
	return true
}

func (u *User) setRemoved(removed bool) {
	u.removed = removed
	u.markDirty()
}

func (u *User) markDirty() {
	u.dirty = true
	u.modifyTime = time.Now()
}
