package ledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFirestoreLedger_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewFirestoreLedger(ctx, "", "(default)", "biblioteca_prestamos")
	assert.ErrorContains(t, err, "projectID is required")

	_, err = NewFirestoreLedger(ctx, "project", "(default)", "")
	assert.ErrorContains(t, err, "collection is required")
}

// Runs against the Firestore emulator when FIRESTORE_EMULATOR_HOST is set.
func TestFirestoreLedger_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	l, err := NewFirestoreLedger(ctx, "sessiongate-test", "(default)", "prestamos_"+time.Now().Format("150405.000000"))
	require.NoError(t, err)
	defer l.Close()

	first := NewEntry("a@theodoro.edu.co", "A-1", "L-1", "prestamo", time.Now().Add(-time.Minute))
	second := NewEntry("a@theodoro.edu.co", "A-1", "L-1", "devolucion", time.Now())
	require.NoError(t, l.Record(ctx, first))
	require.NoError(t, l.Record(ctx, second))

	err = l.Record(ctx, first)
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	entries, err := l.List(ctx, "A-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
}
