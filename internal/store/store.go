package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	subject TEXT NOT NULL,
	body TEXT NOT NULL,
	recipients TEXT NOT NULL,
	send_days TEXT NOT NULL,
	send_time TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS suppliers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	campaign_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	selectors TEXT NOT NULL,
	last_scraped_at INTEGER,
	last_result TEXT,
	FOREIGN KEY (campaign_id) REFERENCES campaigns (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS email_config (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	smtp_server TEXT NOT NULL,
	smtp_port INTEGER NOT NULL,
	email_address TEXT NOT NULL,
	email_password TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS email_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	campaign_id INTEGER NOT NULL,
	sent_at INTEGER NOT NULL,
	status TEXT NOT NULL,
	message TEXT NOT NULL,
	FOREIGN KEY (campaign_id) REFERENCES campaigns (id)
);
`

// Store is the durable backing for campaigns, suppliers, the email
// configuration and the dispatch log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at the given
// path and ensures the schema exists. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; serializing through one
	// connection avoids SQLITE_BUSY under concurrent sends
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
