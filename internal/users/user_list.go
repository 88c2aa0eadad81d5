package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"

	"chatroom-service/internal/observability"
	"chatroom-service/internal/store"
)

var (
	// ErrUserExists signals an alias collision on create or add.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound signals an absent (or deregistered) alias on a
	// mutation that needs an existing user.
	ErrUserNotFound = errors.New("user not found")
)

const (
	fieldListName = "list_name"
	fieldAlias    = "alias"
)

var tracer = otel.Tracer("chatroom-service/users")

// userListDocument is the store shape of the registry metadata.
type userListDocument struct {
	ListName    string    `json:"list_name"`
	UserAliases []string  `json:"user_aliases"`
	CreateTime  time.Time `json:"create_time"`
	ModifyTime  time.Time `json:"modify_time"`
}

// UserList is the registry of users keyed by alias. It follows the same
// restore-on-init, dirty-bit lazy-write discipline as the room registry: the
// metadata document names the aliases, each user has its own document, and
// persist flushes only what is dirty.
type UserList struct {
	mu  sync.Mutex
	col store.Collection
	log zerolog.Logger

	name  string
	users []*User

	dirty      bool
	createTime time.Time
	modifyTime time.Time
}

// NewUserList restores the registry and its users from the store, or starts
// fresh and dirty when no metadata document exists.
func NewUserList(ctx context.Context, col store.Collection, log zerolog.Logger, name string) (*UserList, error) {
	l := &UserList{
		col:  col,
		log:  log.With().Str("user_list", name).Logger(),
		name: name,
	}

	var doc userListDocument
	err := col.FindOne(ctx, fieldListName, name, &doc)
	switch {
	case errors.Is(err, store.ErrNotFound):
		now := time.Now()
		l.createTime = now
		l.modifyTime = now
		l.dirty = true
		l.log.Info().Msg("user list not found in store, starting fresh")
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("restore user list %s: %w", name, err)
	}

	l.createTime = doc.CreateTime
	l.modifyTime = doc.ModifyTime
	for _, alias := range doc.UserAliases {
		var userDoc userDocument
		err := col.FindOne(ctx, fieldAlias, alias, &userDoc)
		if errors.Is(err, store.ErrNotFound) {
			// Same consistency gap as the room registry: a listed alias
			// whose document never made it to the store.
			l.log.Warn().Str("alias", alias).Msg("listed user has no document in store, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("restore user %s: %w", alias, err)
		}
		l.users = append(l.users, userFromDocument(userDoc))
	}

	l.log.Info().Int("users", len(l.users)).Msg("restored user list from store")
	return l, nil
}

// Create builds a detached user, but only when the alias is unregistered.
func (l *UserList) Create(alias string) (*User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createLocked(alias)
}

// Add commits a detached user into the registry and flushes the registry.
func (l *UserList) Add(ctx context.Context, user *User) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addLocked(ctx, user)
}

// Register is the atomic insert-if-absent path: create plus add inside one
// critical section.
func (l *UserList) Register(ctx context.Context, alias string) (*User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, err := l.createLocked(alias)
	if err != nil {
		return nil, err
	}
	if err := l.addLocked(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (l *UserList) createLocked(alias string) (*User, error) {
	if l.getLocked(alias) != nil {
		return nil, fmt.Errorf("create user %s: %w", alias, ErrUserExists)
	}
	return newUser(alias), nil
}

func (l *UserList) addLocked(ctx context.Context, user *User) error {
	if l.getLocked(user.Alias()) != nil {
		return fmt.Errorf("add user %s: %w", user.Alias(), ErrUserExists)
	}
	l.users = append(l.users, user)
	l.markDirtyLocked()

	if err := l.persistLocked(ctx); err != nil {
		return err
	}
	observability.IncUserRegistered()
	l.log.Info().Str("alias", user.Alias()).Msg("user registered")
	return nil
}

// Get returns the user with the alias, deregistered ones included, or nil.
func (l *UserList) Get(alias string) *User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getLocked(alias)
}

func (l *UserList) getLocked(alias string) *User {
	for _, u := range l.users {
		if u.alias == alias {
			return u
		}
	}
	return nil
}

// Exists reports whether alias is a known, non-removed user. This is the
// predicate the API layer applies before calling into the room engine.
func (l *UserList) Exists(alias string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.getLocked(alias)
	return u != nil && !u.removed
}

// Aliases returns every non-removed alias in registration order.
func (l *UserList) Aliases() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	active := lo.Filter(l.users, func(u *User, _ int) bool { return !u.removed })
	return lo.Map(active, func(u *User, _ int) string { return u.alias })
}

// Len returns the number of registered users, deregistered ones included.
func (l *UserList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}

// Deregister soft-removes the alias and flushes the change. The record is
// retained; re-registering the alias is rejected as a duplicate.
func (l *UserList) Deregister(ctx context.Context, alias string) (*User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user := l.getLocked(alias)
	if user == nil {
		return nil, fmt.Errorf("deregister %s: %w", alias, ErrUserNotFound)
	}
	user.setRemoved(true)
	l.markDirtyLocked()
	if err := l.persistLocked(ctx); err != nil {
		return nil, err
	}
	l.log.Info().Str("alias", alias).Msg("user deregistered")
	return user, nil
}

// BlacklistAdd blocks target on behalf of alias. The change marks the user
// dirty and rides along on the next persist: this is the deliberately lazy
// write path of the gateway pattern.
func (l *UserList) BlacklistAdd(alias, target string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user := l.getLocked(alias)
	if user == nil || user.removed {
		return false, fmt.Errorf("blacklist add for %s: %w", alias, ErrUserNotFound)
	}
	return user.addToBlacklist(target), nil
}

// BlacklistRemove unblocks target on behalf of alias. Lazy like BlacklistAdd.
func (l *UserList) BlacklistRemove(alias, target string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user := l.getLocked(alias)
	if user == nil || user.removed {
		return false, fmt.Errorf("blacklist remove for %s: %w", alias, ErrUserNotFound)
	}
	return user.removeFromBlacklist(target), nil
}

// Persist flushes the registry metadata when dirty, then each dirty user,
// clearing each flag only after its own write succeeds.
func (l *UserList) Persist(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked(ctx)
}

func (l *UserList) persistLocked(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "userlist.persist")
	defer span.End()

	if l.dirty {
		doc := userListDocument{
			ListName:    l.name,
			UserAliases: lo.Map(l.users, func(u *User, _ int) string { return u.alias }),
			CreateTime:  l.createTime,
			ModifyTime:  l.modifyTime,
		}
		if err := l.col.Upsert(ctx, fieldListName, l.name, doc); err != nil {
			return fmt.Errorf("persist user list %s: %w", l.name, err)
		}
		l.dirty = false
	}

	for _, user := range l.users {
		if !user.dirty {
			continue
		}
		if err := l.col.Upsert(ctx, fieldAlias, user.alias, user.document()); err != nil {
			return fmt.Errorf("persist user %s: %w", user.alias, err)
		}
		user.dirty = false
	}
	return nil
}

func (l *UserList) markDirtyLocked() {
	l.dirty = true
	l.modifyTime = time.Now()
}
