// Package ledger records library loans and returns made by signed-in staff.
package ledger

//go:generate go run go.uber.org/mock/mockgen -source=ledger.go -destination=mock_ledger.go -package=ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is a single loan or return.
type Entry struct {
	ID        string    `json:"id" firestore:"id"`
	By        string    `json:"by" firestore:"by"`
	StudentID string    `json:"alumnoId" firestore:"alumno_id"`
	BookID    string    `json:"libroId" firestore:"libro_id"`
	Action    string    `json:"accion" firestore:"accion"`
	At        time.Time `json:"at" firestore:"at"`
}

// NewEntry stamps a new entry with a random ID.
func NewEntry(by, studentID, bookID, action string, at time.Time) Entry {
	return Entry{
		ID:        uuid.NewString(),
		By:        by,
		StudentID: studentID,
		BookID:    bookID,
		Action:    action,
		At:        at.UTC(),
	}
}

// Recorder persists ledger entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	// List returns the entries for a student, oldest first.
	List(ctx context.Context, studentID string) ([]Entry, error)
}
