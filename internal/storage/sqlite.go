package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS folder_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_groups_name ON folder_groups(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Folder groups
func (s *SQLiteStorage) ListGroups() ([]FolderGroup, error) {
	rows, err := s.db.Query(`
		SELECT id, name, slug, color, created_at, updated_at
		FROM folder_groups ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []FolderGroup
	for rows.Next() {
		var g FolderGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug, &g.Color, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

func (s *SQLiteStorage) GetGroup(id string) (*FolderGroup, error) {
	row := s.db.QueryRow(`
		SELECT id, name, slug, color, created_at, updated_at
		FROM folder_groups WHERE id = ?
	`, id)

	var g FolderGroup
	err := row.Scan(&g.ID, &g.Name, &g.Slug, &g.Color, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &g, nil
}

func (s *SQLiteStorage) GetGroupBySlug(slug string) (*FolderGroup, error) {
	row := s.db.QueryRow(`
		SELECT id, name, slug, color, created_at, updated_at
		FROM folder_groups WHERE slug = ?
	`, slug)

	var g FolderGroup
	err := row.Scan(&g.ID, &g.Name, &g.Slug, &g.Color, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &g, nil
}

func (s *SQLiteStorage) CreateGroup(g *FolderGroup) error {
	_, err := s.db.Exec(`
		INSERT INTO folder_groups (id, name, slug, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, g.ID, g.Name, g.Slug, g.Color, g.CreatedAt, g.UpdatedAt)

	return err
}

func (s *SQLiteStorage) UpdateGroup(g *FolderGroup) error {
	_, err := s.db.Exec(`
		UPDATE folder_groups SET
			name = ?,
			slug = ?,
			color = ?,
			updated_at = ?
		WHERE id = ?
	`, g.Name, g.Slug, g.Color, time.Now(), g.ID)

	return err
}

func (s *SQLiteStorage) DeleteGroup(id string) error {
	_, err := s.db.Exec("DELETE FROM folder_groups WHERE id = ?", id)
	return err
}
