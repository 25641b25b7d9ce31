// Package sqlstore is the SQL-backed alternate C2 implementation:
// events, their order index, and the genesis pointer as tables behind
// database/sql, instead of bbolt's embedded KV file. Grounded on the
// teacher's internal/storage/sqlite package (schema-as-migrations,
// connection-string builder) but driven through
// github.com/dolthub/driver (a Dolt server) or
// github.com/go-sql-driver/mysql (a plain MySQL-protocol server),
// chosen over sqlite because the teacher's own connstring.go already
// exists as a single-node embedded story that boltstore covers; the
// SQL backend's reason to exist is a *shared, network-reachable*
// store for a cluster of nodes pointed at one server, which only a
// client/server SQL driver provides.
package sqlstore

import (
	"database/sql"
	"fmt"

	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/darkfi-go/eventgraph/internal/xerrors"
)

const schema = `
CREATE TABLE IF NOT EXISTS eventgraph_events (
	id         VARBINARY(32) PRIMARY KEY,
	layer      BIGINT UNSIGNED NOT NULL,
	timestamp  BIGINT NOT NULL,
	parents    BLOB NOT NULL,
	payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_eventgraph_events_layer ON eventgraph_events (layer, id);
CREATE TABLE IF NOT EXISTS eventgraph_meta (
	k VARCHAR(64) PRIMARY KEY,
	v VARBINARY(32) NOT NULL
);
`

const genesisKey = "genesis"

// Store is the database/sql-backed C2 implementation. Safe for
// concurrent readers; writers must be externally serialized per the
// store.Store contract.
type Store struct {
	db *sql.DB
}

// Open connects to driverName/dataSourceName (e.g. "mysql" with a
// go-sql-driver/mysql DSN, or "dolt" with a dolthub/driver DSN) and
// ensures the schema exists.
func Open(driverName, dataSourceName string) (*Store, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driverName, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", driverName, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put inserts e, ignoring the insert if its id already exists.
func (s *Store) Put(e types.Event) error {
	id := e.ID()
	_, err := s.db.Exec(
		`INSERT INTO eventgraph_events (id, layer, timestamp, parents, payload)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE id = id`,
		id[:], e.Layer, e.Timestamp, encodeParents(e.Parents), e.Payload,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: put %s: %w", id, err)
	}
	return nil
}

// Get returns the event for id, or ok=false if absent.
func (s *Store) Get(id types.ID) (types.Event, bool, error) {
	var layer uint64
	var timestamp int64
	var parents, payload []byte
	row := s.db.QueryRow(
		`SELECT layer, timestamp, parents, payload FROM eventgraph_events WHERE id = ?`, id[:],
	)
	switch err := row.Scan(&layer, &timestamp, &parents, &payload); {
	case err == sql.ErrNoRows:
		return types.Event{}, false, nil
	case err != nil:
		return types.Event{}, false, fmt.Errorf("sqlstore: get %s: %w", id, err)
	}
	ps, err := decodeParents(parents)
	if err != nil {
		return types.Event{}, false, fmt.Errorf("sqlstore: get %s: %w", id, err)
	}
	return types.Event{Parents: ps, Payload: payload, Timestamp: timestamp, Layer: layer}, true, nil
}

// Has reports whether id is stored.
func (s *Store) Has(id types.ID) (bool, error) {
	var one int
	row := s.db.QueryRow(`SELECT 1 FROM eventgraph_events WHERE id = ?`, id[:])
	switch err := row.Scan(&one); {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("sqlstore: has %s: %w", id, err)
	}
	return true, nil
}

// ScanFromLayer returns every stored id at layer >= layer, ascending
// (layer, id).
func (s *Store) ScanFromLayer(layer uint64) ([]types.ID, error) {
	rows, err := s.db.Query(
		`SELECT id FROM eventgraph_events WHERE layer >= ? ORDER BY layer ASC, id ASC`, layer,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: scan from layer %d: %w", layer, err)
	}
	defer rows.Close()

	var out []types.ID
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("sqlstore: scan from layer %d: %w", layer, err)
		}
		var id types.ID
		copy(id[:], raw)
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: scan from layer %d: %w", layer, err)
	}
	return out, nil
}

// DeleteBatch removes ids in one transaction.
func (s *Store) DeleteBatch(ids []types.ID) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlstore: delete batch: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM eventgraph_events WHERE id = ?`, id[:]); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlstore: delete %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: delete batch commit: %w", err)
	}
	return nil
}

// SetGenesis updates the well-known genesis pointer.
func (s *Store) SetGenesis(id types.ID) error {
	_, err := s.db.Exec(
		`INSERT INTO eventgraph_meta (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)`,
		genesisKey, id[:],
	)
	if err != nil {
		return fmt.Errorf("sqlstore: set genesis: %w", err)
	}
	return nil
}

// Genesis returns the current genesis id, or xerrors.ErrNotFound.
func (s *Store) Genesis() (types.ID, error) {
	var raw []byte
	row := s.db.QueryRow(`SELECT v FROM eventgraph_meta WHERE k = ?`, genesisKey)
	switch err := row.Scan(&raw); {
	case err == sql.ErrNoRows:
		return types.ID{}, xerrors.ErrNotFound
	case err != nil:
		return types.ID{}, fmt.Errorf("sqlstore: genesis: %w", err)
	}
	var id types.ID
	copy(id[:], raw)
	return id, nil
}

// encodeParents/decodeParents store a parent list as a flat
// concatenation of 32-byte ids, matching the wire codec's length-free
// fixed-width convention for id lists within a single column.
func encodeParents(parents []types.ID) []byte {
	out := make([]byte, 0, len(parents)*types.IDSize)
	for _, p := range parents {
		out = append(out, p[:]...)
	}
	return out
}

func decodeParents(raw []byte) ([]types.ID, error) {
	if len(raw)%types.IDSize != 0 {
		return nil, fmt.Errorf("sqlstore: malformed parents column (%d bytes)", len(raw))
	}
	n := len(raw) / types.IDSize
	if n == 0 {
		return nil, nil
	}
	out := make([]types.ID, n)
	for i := 0; i < n; i++ {
		copy(out[i][:], raw[i*types.IDSize:(i+1)*types.IDSize])
	}
	return out, nil
}
