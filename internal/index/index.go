// Package index keeps loaded conversations searchable through an
// in-memory sqlite FTS5 database. The database always opens at :memory:
// and lives only as long as the process; nothing is ever written to disk.
package index

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mkarpel/convoview/internal/convo"
)

const schema = `
CREATE TABLE conversations (
    conv_id    TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    source     TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL DEFAULT '',
    msg_count  INTEGER NOT NULL DEFAULT 0,
    deleted    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE messages (
    conv_id TEXT NOT NULL,
    msg_idx INTEGER NOT NULL,
    role    TEXT NOT NULL,
    kind    TEXT NOT NULL DEFAULT 'text',
    ts      TEXT NOT NULL DEFAULT '',
    text    TEXT NOT NULL,
    PRIMARY KEY (conv_id, msg_idx)
);

CREATE VIRTUAL TABLE messages_fts USING fts5(
    text,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;
`

type DB struct {
	db *sql.DB
}

// Open creates a fresh in-memory index.
func Open() (*DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	// the index is built once and queried by one process; a single
	// connection keeps the :memory: database from being duplicated
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Add indexes one normalized conversation, replacing any previous entry
// with the same id.
func (d *DB) Add(c convo.Conversation) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE conv_id = ?", c.ID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM conversations WHERE conv_id = ?", c.ID); err != nil {
		return err
	}

	deleted := 0
	if c.SoftDeleted() {
		deleted = 1
	}
	_, err = tx.Exec(
		`INSERT INTO conversations (conv_id, title, source, created_at, updated_at, msg_count, deleted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Source,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
		len(c.Messages), deleted,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (conv_id, msg_idx, role, kind, ts, text)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range c.Messages {
		kind := m.Kind
		if kind == "" {
			kind = "text"
		}
		if _, err := stmt.Exec(c.ID, i, string(m.Role), kind, formatTime(m.Time), m.Text); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AddAll indexes a batch of conversations.
func (d *DB) AddAll(cs []convo.Conversation) error {
	for _, c := range cs {
		if err := d.Add(c); err != nil {
			return fmt.Errorf("index %s: %w", c.ID, err)
		}
	}
	return nil
}

// ConversationCount returns the number of indexed conversations.
func (d *DB) ConversationCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&n)
	return n, err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
