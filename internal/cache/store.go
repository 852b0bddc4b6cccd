// Package cache keeps fetched language responses in memory for a bounded
// time, so repeated queries for the same language skip the network.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/hpungsan/langroutes/internal/country"
	"github.com/hpungsan/langroutes/internal/errors"
)

// Store is a TTL- and size-bounded response cache keyed by language.
// Entries older than ttl are misses; beyond maxEntries the least recently
// used entries are evicted. A zero ttl or maxEntries disables that bound.
type Store struct {
	db         *sql.DB
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu  sync.Mutex
	seq int64
}

// NewStore wraps an initialized cache database.
func NewStore(db *sql.DB, ttl time.Duration, maxEntries int) *Store {
	return &Store{
		db:         db,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *Store) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *Store) expired(fetchedAt int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().UnixNano()-fetchedAt >= s.ttl.Nanoseconds()
}

// Get returns the cached records for language. ok is false on a miss,
// including when the entry has expired (it is deleted).
func (s *Store) Get(ctx context.Context, language string) ([]country.RawRecord, bool, error) {
	var recordsJSON string
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT records_json, fetched_at FROM responses WHERE language = ?`,
		language,
	).Scan(&recordsJSON, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}

	if s.expired(fetchedAt) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE language = ?`, language); err != nil {
			return nil, false, errors.NewInternal(err)
		}
		return nil, false, nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE responses SET used_seq = ? WHERE language = ?`,
		s.nextSeq(), language,
	); err != nil {
		return nil, false, errors.NewInternal(err)
	}

	var records []country.RawRecord
	if err := json.Unmarshal([]byte(recordsJSON), &records); err != nil {
		return nil, false, errors.NewInternal(err)
	}
	return records, true, nil
}

// Put stores records for language, replacing any previous entry, then
// evicts least recently used entries beyond the size bound.
func (s *Store) Put(ctx context.Context, language string, records []country.RawRecord) error {
	if records == nil {
		records = []country.RawRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return errors.NewInternal(err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO responses (language, records_json, record_count, fetched_at, used_seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(language) DO UPDATE SET
			records_json = excluded.records_json,
			record_count = excluded.record_count,
			fetched_at   = excluded.fetched_at,
			used_seq     = excluded.used_seq
	`, language, string(data), len(records), s.now().UnixNano(), s.nextSeq())
	if err != nil {
		return errors.NewInternal(err)
	}

	if s.maxEntries > 0 {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM responses WHERE language NOT IN (
				SELECT language FROM responses ORDER BY used_seq DESC LIMIT ?
			)
		`, s.maxEntries)
		if err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().UnixNano() - s.ttl.Nanoseconds()
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE fetched_at <= ?`, cutoff)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM responses`); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Entry describes one cached language.
type Entry struct {
	Language    string    `json:"language"`
	RecordCount int       `json:"record_count"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Entries lists cached languages, most recently used first.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT language, record_count, fetched_at FROM responses ORDER BY used_seq DESC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var fetchedAt int64
		if err := rows.Scan(&e.Language, &e.RecordCount, &fetchedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		e.FetchedAt = time.Unix(0, fetchedAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}
