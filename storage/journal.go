package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"tunemint/core/events"
	"tunemint/core/types"
)

var journalBucket = []byte("events")

// Journal is an append-only event log backed by bbolt. It implements
// events.Emitter so engines can stream directly into it; entries are keyed by
// a monotonically increasing sequence number.
type Journal struct {
	db *bolt.DB
}

// OpenJournal opens (or creates) the journal file at the supplied path.
func OpenJournal(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(journalBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: init bucket: %w", err)
	}
	return &Journal{db: db}, nil
}

// Emit implements events.Emitter. Events without a structured payload are
// journaled by type alone. Journal failures are swallowed: event emission is
// observational and must never abort a settlement.
func (j *Journal) Emit(evt events.Event) {
	if j == nil || evt == nil {
		return
	}
	record := &types.Event{Type: evt.EventType()}
	if payload, ok := evt.(events.Payload); ok {
		if structured := payload.Event(); structured != nil {
			record = structured
		}
	}
	_ = j.Append(record)
}

// Append writes a single structured event at the next sequence number.
func (j *Journal) Append(record *types.Event) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal: not open")
	}
	if record == nil {
		return nil
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("journal: encode event: %w", err)
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(journalBucket)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return bucket.Put(key[:], encoded)
	})
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(limit int) ([]*types.Event, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal: not open")
	}
	if limit <= 0 {
		return nil, nil
	}
	out := make([]*types.Event, 0, limit)
	err := j.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(journalBucket).Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < limit; k, v = cursor.Prev() {
			record := &types.Event{}
			if err := json.Unmarshal(v, record); err != nil {
				return fmt.Errorf("journal: decode event: %w", err)
			}
			out = append(out, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Len reports the number of journaled events.
func (j *Journal) Len() (uint64, error) {
	if j == nil || j.db == nil {
		return 0, fmt.Errorf("journal: not open")
	}
	var count uint64
	err := j.db.View(func(tx *bolt.Tx) error {
		count = uint64(tx.Bucket(journalBucket).Stats().KeyN)
		return nil
	})
	return count, err
}

// Close releases the underlying bbolt handle.
func (j *Journal) Close() {
	if j == nil || j.db == nil {
		return
	}
	_ = j.db.Close()
}
