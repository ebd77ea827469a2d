package storage

import (
	"fmt"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tunemint/core/events"
	"tunemint/core/types"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	journal, err := OpenJournal(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(journal.Close)
	return journal
}

func TestJournalAppendAndRecent(t *testing.T) {
	journal := newTestJournal(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, journal.Append(&types.Event{
			Type:       "market.item.created",
			Attributes: map[string]string{"id": fmt.Sprint(i)},
		}))
	}

	count, err := journal.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(5), count)

	recent, err := journal.Recent(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// Newest first.
	require.Equal(t, "4", recent[0].Attributes["id"])
	require.Equal(t, "3", recent[1].Attributes["id"])
	require.Equal(t, "2", recent[2].Attributes["id"])

	all, err := journal.Recent(100)
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestJournalEmitStoresStructuredPayload(t *testing.T) {
	journal := newTestJournal(t)

	var creator [20]byte
	creator[19] = 0x01
	journal.Emit(events.ItemCreated{
		ID:        1,
		Title:     "First Pressing",
		Creator:   creator,
		UnitPrice: big.NewInt(950_000),
		MaxSupply: 100,
	})

	recent, err := journal.Recent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "market.item.created", recent[0].Type)
	require.Equal(t, "950000", recent[0].Attributes["price"])
}

func TestJournalSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")

	journal, err := OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, journal.Append(&types.Event{Type: "market.paused"}))
	journal.Close()

	reopened, err := OpenJournal(path)
	require.NoError(t, err)
	defer reopened.Close()
	recent, err := reopened.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "market.paused", recent[0].Type)
}

func TestJournalNilSafety(t *testing.T) {
	var journal *Journal
	journal.Emit(events.MarketPaused{})
	require.Error(t, journal.Append(&types.Event{Type: "x"}))
	_, err := journal.Recent(1)
	require.Error(t, err)
}
