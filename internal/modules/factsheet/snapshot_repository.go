package factsheet

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotRepository stores performance snapshots in the factsheets database
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("component", "snapshot_repo").Logger(),
	}
}

// Save persists a snapshot. If the snapshot has no ID, one is assigned.
func (r *SnapshotRepository) Save(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if s.Symbol == "" {
		return fmt.Errorf("snapshot symbol is required")
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	payload, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", s.Symbol, err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO snapshots (id, symbol, created_at, start_date, end_date, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.Symbol, s.CreatedAt.Unix(), s.StartDate.Unix(), s.EndDate.Unix(), payload)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", s.Symbol, err)
	}

	r.log.Debug().Str("symbol", s.Symbol).Str("id", s.ID).Msg("Snapshot saved")
	return nil
}

// Get fetches a snapshot by ID. Returns nil if not found.
func (r *SnapshotRepository) Get(id string) (*Snapshot, error) {
	var payload []byte
	err := r.db.QueryRow(`SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot %s: %w", id, err)
	}

	return decodeSnapshot(payload)
}

// GetLatest fetches the most recent snapshot for a symbol. Returns nil if none exist.
func (r *SnapshotRepository) GetLatest(symbol string) (*Snapshot, error) {
	var payload []byte
	err := r.db.QueryRow(`
		SELECT payload FROM snapshots
		WHERE symbol = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, symbol).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot for %s: %w", symbol, err)
	}

	return decodeSnapshot(payload)
}

// List fetches up to limit snapshots for a symbol, most recent first
func (r *SnapshotRepository) List(symbol string, limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT payload FROM snapshots
		WHERE symbol = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for %s: %w", symbol, err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s, err := decodeSnapshot(payload)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

// DeleteOlderThan removes snapshots created before the cutoff.
// Returns the number of deleted rows.
func (r *SnapshotRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted snapshots: %w", err)
	}
	return deleted, nil
}

func decodeSnapshot(payload []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
