package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/lib/pq"
)

const insertMessage = `INSERT INTO messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Store persists audit records in the messages table.
type Store struct {
	db *sql.DB
}

// NewStore opens the audit database at url. An empty url disables
// persistence and returns a nil Store.
func NewStore(url string) (*Store, error) {
	if url == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an open connection.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts rec. The structured data is stored as JSON.
func (s *Store) Save(ctx context.Context, rec Record) error {
	sdata, err := json.Marshal(rec.Event.StructuredData())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, insertMessage,
		rec.Event.Facility(),
		int(rec.Event.Severity()),
		rec.Time.UTC(),
		rec.Hostname,
		AppName,
		rec.PID,
		rec.Event.MessageID(),
		sdata,
		rec.Event.Message(),
	)
	return err
}
