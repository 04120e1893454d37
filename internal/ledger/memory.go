package ledger

import (
	"context"
	"sync"

	"github.com/bibliotecacth/sessiongate/internal/log"
)

// DefaultMemoryCapacity is the number of entries MemoryLedger keeps.
const DefaultMemoryCapacity = 1000

var _ Recorder = (*MemoryLedger)(nil)

// MemoryLedger logs every entry and keeps the most recent ones in memory.
type MemoryLedger struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// NewMemoryLedger creates a ledger holding at most capacity entries.
func NewMemoryLedger(capacity int) *MemoryLedger {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryLedger{capacity: capacity}
}

// Record implements Recorder
func (l *MemoryLedger) Record(_ context.Context, entry Entry) error {
	l.mu.Lock()
	if len(l.entries) == l.capacity {
		l.entries = append(l.entries[:0], l.entries[1:]...)
	}
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	log.LogInfoWithFields("ledger", "Prestamo/Devolucion", map[string]any{
		"id":       entry.ID,
		"by":       entry.By,
		"alumnoId": entry.StudentID,
		"libroId":  entry.BookID,
		"accion":   entry.Action,
		"at":       entry.At,
	})
	return nil
}

// List implements Recorder
func (l *MemoryLedger) List(_ context.Context, studentID string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	for _, entry := range l.entries {
		if entry.StudentID == studentID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Entries returns a copy of the retained entries, oldest first.
func (l *MemoryLedger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
