package chat

// MessageStore is the append-only ordered log behind a room. It knows nothing
// about authorization or persistence; the owning Room guards it with the room
// mutex and flushes its dirty entries.
type MessageStore struct {
	entries []Message
}

// Append adds a message to the end of the log and returns its index.
func (s *MessageStore) Append(msg Message) int {
	s.entries = append(s.entries, msg)
	return len(s.entries) - 1
}

// Len returns the total number of entries, removed ones included.
func (s *MessageStore) Len() int {
	return len(s.entries)
}

// List returns messages in insertion order, skipping removed entries unless
// includeRemoved is set. maxCount of GetAllMessages (-1) returns everything;
// otherwise the most recent maxCount entries come back, still in original
// chronological order.
func (s *MessageStore) List(maxCount int, includeRemoved bool) []Message {
	visible := make([]Message, 0, len(s.entries))
	for _, m := range s.entries {
		if m.Removed && !includeRemoved {
			continue
		}
		visible = append(visible, m)
	}
	if maxCount >= 0 && len(visible) > maxCount {
		visible = visible[len(visible)-maxCount:]
	}
	return visible
}

// SoftDelete marks every message where alias is the sender or the intended
// recipient as removed. Returns whether any message matched.
func (s *MessageStore) SoftDelete(alias string) bool {
	matched := false
	for i := range s.entries {
		m := &s.entries[i]
		if m.Sender != alias && m.Recipient != alias {
			continue
		}
		matched = true
		if !m.Removed {
			m.Removed = true
			m.dirty = true
		}
	}
	return matched
}

// Restore clears the removed flag on the same subset SoftDelete targets.
// Returns whether any message matched.
func (s *MessageStore) Restore(alias string) bool {
	matched := false
	for i := range s.entries {
		m := &s.entries[i]
		if m.Sender != alias && m.Recipient != alias {
			continue
		}
		matched = true
		if m.Removed {
			m.Removed = false
			m.dirty = true
		}
	}
	return matched
}

// Edit replaces the text of the most recent non-removed message authored by
// alias whose text equals oldText. Sender, timestamp, and room never change.
// Returns false without mutating anything when no message matches.
func (s *MessageStore) Edit(alias, oldText, newText string) bool {
	for i := len(s.entries) - 1; i >= 0; i-- {
		m := &s.entries[i]
		if m.Removed || m.Sender != alias || m.Text != oldText {
			continue
		}
		m.Text = newText
		m.dirty = true
		return true
	}
	return false
}
