package local

import (
	"alcyxob/myhealth/internal/domain"
	"alcyxob/myhealth/internal/storage"
	"context"
	"sync"
	"time"
)

// RecordPtr lets generic code reach the embedded Syncable of a value type.
type RecordPtr[T any] interface {
	*T
	domain.Record
}

// Collection is one JSON array of records in the store. Its mutex is held across
// every read-modify-write, so concurrent mutations of the same collection never
// lose each other's updates.
type Collection[T any, PT RecordPtr[T]] struct {
	mu    sync.Mutex
	key   string
	store *storage.Storage
}

func newCollection[T any, PT RecordPtr[T]](store *storage.Storage, key string) *Collection[T, PT] {
	return &Collection[T, PT]{key: key, store: store}
}

func state[T any, PT RecordPtr[T]](item *T) *domain.Syncable {
	return PT(item).SyncState()
}

// load reads the stored array. Absent or unreadable data reads as empty.
func (c *Collection[T, PT]) load(ctx context.Context) []T {
	var items []T
	if !c.store.GetItem(ctx, c.key, &items) || items == nil {
		return make([]T, 0)
	}
	return items
}

func (c *Collection[T, PT]) indexOf(items []T, id string) int {
	if id == "" {
		return -1
	}
	for i := range items {
		if state[T, PT](&items[i]).ID == id {
			return i
		}
	}
	return -1
}

// mutate runs fn on the stored records under the lock. The result is written back
// when fn reports a change.
func (c *Collection[T, PT]) mutate(ctx context.Context, fn func(items []T) ([]T, bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, changed, err := fn(c.load(ctx))
	if err != nil {
		return err
	}
	if changed {
		c.store.SetItem(ctx, c.key, out)
	}
	return nil
}

// All returns every stored record, soft-deleted ones included.
func (c *Collection[T, PT]) All(ctx context.Context) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Live returns the records that are not soft-deleted, in stored order.
func (c *Collection[T, PT]) Live(ctx context.Context) []T {
	return c.filter(ctx, func(s *domain.Syncable) bool { return !s.IsDeleted() })
}

// Pending returns the records awaiting a push, soft-deleted ones included.
func (c *Collection[T, PT]) Pending(ctx context.Context) []T {
	return c.filter(ctx, func(s *domain.Syncable) bool { return s.IsPending() })
}

func (c *Collection[T, PT]) filter(ctx context.Context, keep func(*domain.Syncable) bool) []T {
	items := c.All(ctx)
	out := make([]T, 0, len(items))
	for i := range items {
		if keep(state[T, PT](&items[i])) {
			out = append(out, items[i])
		}
	}
	return out
}

// Get returns the live record with id.
func (c *Collection[T, PT]) Get(ctx context.Context, id string) (T, bool) {
	items := c.All(ctx)
	if i := c.indexOf(items, id); i >= 0 && !state[T, PT](&items[i]).IsDeleted() {
		return items[i], true
	}
	var zero T
	return zero, false
}

// save stores item as a local mutation. A record with the same id is replaced in
// place (reviving it if it was soft-deleted) and keeps its remote acknowledgement;
// carry may copy further fields from the stored version. Anything else gets an id
// if it has none and is prepended.
func (c *Collection[T, PT]) save(ctx context.Context, item T, now time.Time, newID func() string, carry func(stored, incoming PT)) T {
	_ = c.mutate(ctx, func(items []T) ([]T, bool, error) {
		s := state[T, PT](&item)
		s.DeletedAt = nil
		if i := c.indexOf(items, s.ID); i >= 0 {
			stored := state[T, PT](&items[i])
			s.SyncedAt = stored.SyncedAt
			s.Revision = stored.Revision
			if carry != nil {
				carry(PT(&items[i]), PT(&item))
			}
			s.Touch(now)
			items[i] = item
			return items, true, nil
		}

		if s.ID == "" {
			s.ID = newID()
		}
		s.SyncedAt = nil
		s.Revision = 0
		s.Touch(now)
		return append([]T{item}, items...), true, nil
	})
	return item
}

// softDelete marks the live record with id as deleted.
func (c *Collection[T, PT]) softDelete(ctx context.Context, id string, now time.Time) error {
	return c.mutate(ctx, func(items []T) ([]T, bool, error) {
		i := c.indexOf(items, id)
		if i < 0 || state[T, PT](&items[i]).IsDeleted() {
			return items, false, ErrNotFound
		}
		state[T, PT](&items[i]).MarkDeleted(now)
		return items, true, nil
	})
}

// MarkPushed records that the remote store accepted revision pushedRev of localID. The server id replaces the local one when given. A record mutated again
// since the push keeps its pending status. adjust may update further fields.
// It reports whether the record was still present.
func (c *Collection[T, PT]) MarkPushed(ctx context.Context, localID string, pushedRev int64, remoteID string, now time.Time, adjust ...func(PT)) bool {
	found := false
	_ = c.mutate(ctx, func(items []T) ([]T, bool, error) {
		i := c.indexOf(items, localID)
		if i < 0 {
			return items, false, nil
		}
		found = true

		if remoteID != "" && remoteID != localID {
			// A pulled copy of the same remote record is superseded by this one
			if j := c.indexOf(items, remoteID); j >= 0 {
				items = append(items[:j], items[j+1:]...)
				if j < i {
					i--
				}
			}
			state[T, PT](&items[i]).ID = remoteID
		}

		s := state[T, PT](&items[i])
		ts := now.UnixMilli()
		s.SyncedAt = &ts
		if s.Revision == pushedRev {
			s.SyncStatus = domain.SyncSynced
		}
		for _, fn := range adjust {
			fn(PT(&items[i]))
		}
		return items, true, nil
	})
	return found
}

// Purge physically removes a soft-deleted record once its deletion is confirmed
// remotely (or it never reached the remote store). A record mutated since revision
// pushedRev is kept.
func (c *Collection[T, PT]) Purge(ctx context.Context, id string, pushedRev int64) bool {
	purged := false
	_ = c.mutate(ctx, func(items []T) ([]T, bool, error) {
		i := c.indexOf(items, id)
		if i < 0 {
			return items, false, nil
		}
		s := state[T, PT](&items[i])
		if !s.IsDeleted() || s.Revision != pushedRev {
			return items, false, nil
		}
		purged = true
		return append(items[:i], items[i+1:]...), true, nil
	})
	return purged
}

// MergePulled replaces the synced baseline with the remote records. Local pending
// records win over their remote copy; pending records the remote store does not know
// yet are kept ahead of the remote ones. Synced records missing remotely are dropped.
// It returns how many remote records were taken.
func (c *Collection[T, PT]) MergePulled(ctx context.Context, remote []T) int {
	return c.MergePulledWhere(ctx, remote, nil)
}

// MergePulledWhere is MergePulled restricted to the local records for which scope
// returns true. Records outside the scope are kept as they are, unless the remote set
// holds the same id. A nil scope covers every record.
func (c *Collection[T, PT]) MergePulledWhere(ctx context.Context, remote []T, scope func(T) bool) int {
	taken := 0
	_ = c.mutate(ctx, func(items []T) ([]T, bool, error) {
		remoteIDs := make(map[string]bool, len(remote))
		for i := range remote {
			remoteIDs[state[T, PT](&remote[i]).ID] = true
		}

		pending := make(map[string]T)
		merged := make([]T, 0, len(items)+len(remote))
		var untouched []T
		for i := range items {
			s := state[T, PT](&items[i])
			if scope != nil && !scope(items[i]) && !remoteIDs[s.ID] {
				untouched = append(untouched, items[i])
				continue
			}
			if !s.IsPending() {
				continue
			}
			if remoteIDs[s.ID] {
				pending[s.ID] = items[i]
				continue
			}
			merged = append(merged, items[i])
		}

		for i := range remote {
			s := state[T, PT](&remote[i])
			if local, ok := pending[s.ID]; ok {
				merged = append(merged, local)
				continue
			}
			if s.IsDeleted() {
				continue
			}
			merged = append(merged, remote[i])
			taken++
		}
		return append(merged, untouched...), true, nil
	})
	return taken
}
