package ledger

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/bibliotecacth/sessiongate/internal/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrDuplicateEntry is returned when an entry ID is already stored.
var ErrDuplicateEntry = errors.New("ledger entry already exists")

var _ Recorder = (*FirestoreLedger)(nil)

// FirestoreLedger stores one document per entry, keyed by entry ID.
// Unlike session state, loans must survive restarts, so write errors are
// returned to the caller rather than swallowed.
type FirestoreLedger struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreLedger connects to Firestore
func NewFirestoreLedger(ctx context.Context, projectID, database, collection string) (*FirestoreLedger, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	var client *firestore.Client
	var err error
	if database != "" && database != "(default)" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, database)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	log.LogInfoWithFields("ledger", "Connected to Firestore", map[string]any{
		"project":    projectID,
		"database":   database,
		"collection": collection,
	})

	return NewFirestoreLedgerWithClient(client, collection), nil
}

// NewFirestoreLedgerWithClient wraps an existing client.
func NewFirestoreLedgerWithClient(client *firestore.Client, collection string) *FirestoreLedger {
	return &FirestoreLedger{client: client, collection: collection}
}

// Record implements Recorder
func (l *FirestoreLedger) Record(ctx context.Context, entry Entry) error {
	_, err := l.client.Collection(l.collection).Doc(entry.ID).Create(ctx, entry)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, entry.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to store ledger entry: %w", err)
	}

	log.LogInfoWithFields("ledger", "Prestamo/Devolucion stored", map[string]any{
		"id":       entry.ID,
		"by":       entry.By,
		"alumnoId": entry.StudentID,
		"libroId":  entry.BookID,
		"accion":   entry.Action,
	})
	return nil
}

// List implements Recorder
func (l *FirestoreLedger) List(ctx context.Context, studentID string) ([]Entry, error) {
	iter := l.client.Collection(l.collection).
		Where("alumno_id", "==", studentID).
		OrderBy("at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var entries []Entry
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list ledger entries: %w", err)
		}

		var entry Entry
		if err := doc.DataTo(&entry); err != nil {
			log.LogWarnWithFields("ledger", "Skipping undecodable entry", map[string]any{
				"id":    doc.Ref.ID,
				"error": err.Error(),
			})
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close closes the Firestore client
func (l *FirestoreLedger) Close() error {
	return l.client.Close()
}
