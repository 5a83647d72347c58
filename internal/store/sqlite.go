package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with initialization logic.
type DB struct {
	*sql.DB
}

// Open creates or opens the SQLite database at the given path, runs schema
// initialization, and configures WAL mode for concurrent reads.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS interactions (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  question TEXT,
  response TEXT,
  attachments TEXT,
  agent_name TEXT,
  plan TEXT,
  title TEXT,
  mode TEXT,
  required_revisions TEXT,
  status TEXT
);

CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at);
CREATE INDEX IF NOT EXISTS idx_interactions_kind_status ON interactions(kind, status);

CREATE TABLE IF NOT EXISTS task_lists (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  closed INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

-- Task ids are list-scoped (task_1, task_2, ...), so the key is composite.
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT NOT NULL,
  list_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  position INTEGER NOT NULL,
  PRIMARY KEY (list_id, id),
  FOREIGN KEY (list_id) REFERENCES task_lists(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tasks_list ON tasks(list_id, position);

CREATE TABLE IF NOT EXISTS task_comments (
  id TEXT PRIMARY KEY,
  list_id TEXT NOT NULL,
  task_id TEXT NOT NULL,
  revised_part TEXT,
  revisor_instructions TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at INTEGER NOT NULL,
  FOREIGN KEY (list_id) REFERENCES task_lists(id) ON DELETE CASCADE,
  FOREIGN KEY (list_id, task_id) REFERENCES tasks(list_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_task_comments_list ON task_comments(list_id, status);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	return nil
}
