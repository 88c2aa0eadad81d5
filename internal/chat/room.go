package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"chatroom-service/internal/observability"
	"chatroom-service/internal/store"
)

// Store document field names for the rooms collection. Room documents, the
// room-list document, and per-message documents share one collection and are
// told apart by which field keys them.
const (
	fieldListName  = "list_name"
	fieldRoomName  = "room_name"
	fieldMessageID = "message_id"
)

// roomDocument is the store shape of a room's metadata. Messages are keyed
// separately under fieldMessageID.
type roomDocument struct {
	Name       string    `json:"name"`
	OwnerAlias string    `json:"owner_alias"`
	RoomType   RoomType  `json:"room_type"`
	Members    []string  `json:"members"`
	CreateTime time.Time `json:"create_time"`
	ModifyTime time.Time `json:"modify_time"`
}

// Room is the aggregate for one chat room: message log, member set, and
// metadata, guarded together by one mutex. Every operation checks
// authorization against the room type before touching the log.
//
// A room restores itself from the store on construction and flushes dirty
// state back on every mutation. The metadata write and the per-message writes
// are not covered by one transaction; a fault between them can leave the
// store internally inconsistent until the next persist.
type Room struct {
	mu  sync.Mutex
	col store.Collection
	log zerolog.Logger

	name       string
	ownerAlias string
	roomType   RoomType
	members    MembershipRegistry
	messages   MessageStore

	dirty      bool
	createTime time.Time
	modifyTime time.Time
}

// NewRoom hydrates the room from the store when its document exists, or
// builds a fresh dirty room with the given owner and type when it does not.
func NewRoom(ctx context.Context, col store.Collection, log zerolog.Logger, name, ownerAlias string, roomType RoomType) (*Room, error) {
	room, err := loadRoom(ctx, col, log, name)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	room = &Room{
		col:        col,
		log:        log.With().Str("room", name).Logger(),
		name:       name,
		ownerAlias: ownerAlias,
		roomType:   roomType,
		dirty:      true,
		createTime: now,
		modifyTime: now,
	}
	room.log.Info().Str("owner", ownerAlias).Stringer("type", roomType).Msg("created fresh room")
	return room, nil
}

// loadRoom hydrates a room and its message log from the store. Returns
// store.ErrNotFound when no document carries the name.
func loadRoom(ctx context.Context, col store.Collection, log zerolog.Logger, name string) (*Room, error) {
	var doc roomDocument
	if err := col.FindOne(ctx, fieldRoomName, name, &doc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("restore room %s: %w", name, err)
	}

	room := &Room{
		col:        col,
		log:        log.With().Str("room", name).Logger(),
		name:       doc.Name,
		ownerAlias: doc.OwnerAlias,
		roomType:   doc.RoomType,
		members:    MembershipRegistry{members: append([]string(nil), doc.Members...)},
		createTime: doc.CreateTime,
		modifyTime: doc.ModifyTime,
	}

	raws, err := col.FindPrefix(ctx, fieldMessageID, messagePrefix(name))
	if err != nil {
		return nil, fmt.Errorf("restore room %s messages: %w", name, err)
	}
	for _, raw := range raws {
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("restore room %s messages: %w", name, err)
		}
		room.messages.Append(msg)
	}

	room.log.Info().Int("messages", room.messages.Len()).Int("members", room.members.Len()).Msg("restored room from store")
	return room, nil
}

// Send appends a message when fromAlias may write to the room. Unauthorized
// senders get (false, nil) and nothing is appended; a store fault during the
// triggered persist comes back as an error with the message retained in
// memory and still dirty.
func (r *Room) Send(ctx context.Context, text, fromAlias string, props MessageProperties) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.members.Authorized(fromAlias, r.roomType, r.ownerAlias) {
		r.log.Warn().Str("alias", fromAlias).Msg("send rejected: alias not authorized for room")
		return false, nil
	}

	r.messages.Append(Message{
		RoomName:  r.name,
		Sender:    fromAlias,
		Recipient: props.ToUser,
		Text:      text,
		Type:      props.Type,
		SentAt:    time.Now(),
		dirty:     true,
	})
	r.markDirtyLocked()

	if err := r.persistLocked(ctx); err != nil {
		return false, err
	}
	observability.IncMessageSent(r.roomType.String())
	r.log.Debug().Str("from", fromAlias).Str("to", props.ToUser).Msg("message sent")
	return true, nil
}

// Messages returns (texts, objects, count) for an authorized reader and an
// empty triple otherwise. Full message objects are only materialized when
// includeObjects is set.
func (r *Room) Messages(alias string, count int, includeObjects, includeRemoved bool) ([]string, []Message, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.members.Authorized(alias, r.roomType, r.ownerAlias) {
		r.log.Warn().Str("alias", alias).Msg("read rejected: alias not authorized for room")
		return []string{}, []Message{}, 0
	}

	entries := r.messages.List(count, includeRemoved)
	texts := lo.Map(entries, func(m Message, _ int) string { return m.Text })
	objects := []Message{}
	if includeObjects {
		objects = entries
	}
	return texts, objects, len(entries)
}

// EditMessage rewrites the most recent matching message authored by alias.
func (r *Room) EditMessage(ctx context.Context, alias, oldText, newText string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.members.Authorized(alias, r.roomType, r.ownerAlias) {
		return false, nil
	}
	if !r.messages.Edit(alias, oldText, newText) {
		return false, nil
	}
	r.markDirtyLocked()
	if err := r.persistLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveMessages soft-deletes every message where alias is sender or
// recipient. The entries stay in the log and can be restored.
func (r *Room) RemoveMessages(ctx context.Context, alias string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.members.Authorized(alias, r.roomType, r.ownerAlias) {
		return false, nil
	}
	if !r.messages.SoftDelete(alias) {
		return false, nil
	}
	r.markDirtyLocked()
	if err := r.persistLocked(ctx); err != nil {
		return false, err
	}
	r.log.Debug().Str("alias", alias).Msg("messages soft-deleted")
	return true, nil
}

// RestoreMessages undoes RemoveMessages for the same alias subset.
func (r *Room) RestoreMessages(ctx context.Context, alias string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.members.Authorized(alias, r.roomType, r.ownerAlias) {
		return false, nil
	}
	if !r.messages.Restore(alias) {
		return false, nil
	}
	r.markDirtyLocked()
	if err := r.persistLocked(ctx); err != nil {
		return false, err
	}
	r.log.Debug().Str("alias", alias).Msg("messages restored")
	return true, nil
}

// AddMember grants alias explicit membership. There is no authorization
// pre-check here; the API layer gates room administration on registered-user
// status. A store fault on the triggered persist is reported as
// OperationFailed alongside the error.
func (r *Room) AddMember(ctx context.Context, alias string) (MembershipResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.members.Add(alias)
	if result != Added {
		return result, nil
	}
	r.markDirtyLocked()
	if err := r.persistLocked(ctx); err != nil {
		return OperationFailed, err
	}
	r.log.Debug().Str("alias", alias).Msg("member added")
	return Added, nil
}

// RemoveMember revokes explicit membership.
func (r *Room) RemoveMember(ctx context.Context, alias string) (MembershipResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := r.members.Remove(alias)
	if result != Removed {
		return result, nil
	}
	r.markDirtyLocked()
	if err := r.persistLocked(ctx); err != nil {
		return OperationFailed, err
	}
	r.log.Debug().Str("alias", alias).Msg("member removed")
	return Removed, nil
}

// Persist flushes the room document and any dirty messages.
func (r *Room) Persist(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked(ctx)
}

// persistLocked writes the metadata document when the room is dirty, then
// each dirty message under its own key, clearing each flag only after its
// own write succeeds. No transaction spans the writes.
func (r *Room) persistLocked(ctx context.Context) error {
	if r.dirty {
		doc := roomDocument{
			Name:       r.name,
			OwnerAlias: r.ownerAlias,
			RoomType:   r.roomType,
			Members:    r.members.Aliases(),
			CreateTime: r.createTime,
			ModifyTime: r.modifyTime,
		}
		if err := r.col.Upsert(ctx, fieldRoomName, r.name, doc); err != nil {
			return fmt.Errorf("persist room %s: %w", r.name, err)
		}
		r.dirty = false
	}

	for i := range r.messages.entries {
		msg := &r.messages.entries[i]
		if !msg.dirty {
			continue
		}
		if err := r.col.Upsert(ctx, fieldMessageID, messageKey(r.name, i), msg); err != nil {
			return fmt.Errorf("persist room %s message %d: %w", r.name, i, err)
		}
		msg.dirty = false
	}
	return nil
}

func (r *Room) markDirtyLocked() {
	r.dirty = true
	r.modifyTime = time.Now()
}

// Name returns the room's unique name.
func (r *Room) Name() string {
	return r.name
}

// Owner returns the owning alias, an implicit permanent member.
func (r *Room) Owner() string {
	return r.ownerAlias
}

// Type returns the room type.
func (r *Room) Type() RoomType {
	return r.roomType
}

// Members returns a copy of the explicit member set.
func (r *Room) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members.Aliases()
}

// NumMessages returns the log length, removed entries included.
func (r *Room) NumMessages() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages.Len()
}
