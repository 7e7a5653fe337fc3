package domain

import (
	"cmp"
	"slices"
)

// Tombstones records deleted message ids. A tombstone may precede the
// message it deletes.
type Tombstones map[MessageID]struct{}

func NewTombstones(ids ...MessageID) Tombstones {
	t := make(Tombstones, len(ids))
	for _, id := range ids {
		t[id] = struct{}{}
	}
	return t
}

func (t Tombstones) Has(id MessageID) bool {
	_, ok := t[id]
	return ok
}

func (t Tombstones) Add(id MessageID) {
	t[id] = struct{}{}
}

// MergeLog buffers live patches, one composed patch per id, in the order
// the ids were first seen.
type MergeLog struct {
	order   []MessageID
	patches map[MessageID]MessagePatch
}

func (l *MergeLog) Append(p MessagePatch) {
	if l.patches == nil {
		l.patches = make(map[MessageID]MessagePatch)
	}
	if prev, ok := l.patches[p.ID]; ok {
		l.patches[p.ID] = prev.Compose(p)
		return
	}
	l.order = append(l.order, p.ID)
	l.patches[p.ID] = p
}

func (l *MergeLog) Get(id MessageID) (MessagePatch, bool) {
	p, ok := l.patches[id]
	return p, ok
}

func (l *MergeLog) Len() int {
	return len(l.order)
}

func (l *MergeLog) Patches() []MessagePatch {
	out := make([]MessagePatch, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.patches[id])
	}
	return out
}

// Merge combines the history snapshot with live patches into one list
// ordered by SentAt, then by id. Deletion always wins regardless of when
// the tombstone was recorded. The inputs are not modified.
func Merge(history []Message, live []MessagePatch, tombstones Tombstones) []Message {
	byID := make(map[MessageID]Message, len(history)+len(live))
	for _, m := range history {
		byID[m.ID] = m.clone()
	}
	for _, p := range live {
		existing, ok := byID[p.ID]
		if !ok {
			existing = Message{ID: p.ID}
		}
		byID[p.ID] = p.Apply(existing)
	}

	out := make([]Message, 0, len(byID))
	for id, m := range byID {
		if m.IsDeleted || tombstones.Has(id) {
			m = m.tombstone()
		}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Message) int {
		if c := a.SentAt.Compare(b.SentAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
