package matrix

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/coursecompass/decision-engine/internal/criteria"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS matrix_versions (
	version_id    TEXT PRIMARY KEY,
	catalog_hash  TEXT NOT NULL,
	course_count  INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS course_scores (
	version_id    TEXT NOT NULL,
	position      INTEGER NOT NULL,
	course        TEXT NOT NULL,
	scores_json   TEXT NOT NULL,
	PRIMARY KEY (version_id, course),
	FOREIGN KEY (version_id) REFERENCES matrix_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_matrix (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES matrix_versions(version_id)
);

CREATE TABLE IF NOT EXISTS rebuild_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id    TEXT NOT NULL,
	trigger_type  TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES matrix_versions(version_id)
);
`

// #endregion schema

// ErrNoActiveMatrix is returned when the cache holds no active version yet.
var ErrNoActiveMatrix = errors.New("no active matrix version")

// #region store-struct

// Store persists matrix versions in SQLite. The cache is regenerable at any
// time from the catalog; it is never the source of truth.
type Store struct {
	db *sql.DB
}

// Version describes one cached matrix build.
type Version struct {
	VersionID   string
	CatalogHash string
	CourseCount int
	CreatedAt   time.Time
	Trigger     string
	Reason      string
}

// #endregion store-struct

// #region constructor

// NewStore opens the SQLite cache and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region save

// Save writes a new matrix version, flips the active pointer, and records
// the rebuild in the audit log, all in one transaction.
func (s *Store) Save(m *AttributeMatrix, catalogHash, trigger, reason string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO matrix_versions (version_id, catalog_hash, course_count, created_at)
		 VALUES (?, ?, ?, ?)`,
		id, catalogHash, m.Len(), now,
	)
	if err != nil {
		return "", fmt.Errorf("insert version: %w", err)
	}

	for pos, course := range m.Courses() {
		v, _ := m.Get(course)
		scoresJSON, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("marshal scores for %s: %w", course, err)
		}
		_, err = tx.Exec(
			`INSERT INTO course_scores (version_id, position, course, scores_json)
			 VALUES (?, ?, ?, ?)`,
			id, pos, course, string(scoresJSON),
		)
		if err != nil {
			return "", fmt.Errorf("insert scores: %w", err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO active_matrix (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		id,
	)
	if err != nil {
		return "", fmt.Errorf("set active: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO rebuild_log (version_id, trigger_type, reason, created_at)
		 VALUES (?, ?, ?, ?)`,
		id, trigger, reason, now,
	)
	if err != nil {
		return "", fmt.Errorf("log rebuild: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// #endregion save

// #region load

// LoadActive reads the active matrix version and its catalog hash.
func (s *Store) LoadActive() (*AttributeMatrix, string, error) {
	var versionID, hash string
	err := s.db.QueryRow(
		`SELECT am.version_id, mv.catalog_hash
		 FROM active_matrix am JOIN matrix_versions mv ON mv.version_id = am.version_id
		 WHERE am.id = 1`,
	).Scan(&versionID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNoActiveMatrix
	}
	if err != nil {
		return nil, "", fmt.Errorf("get active: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT course, scores_json FROM course_scores
		 WHERE version_id = ? ORDER BY position`, versionID,
	)
	if err != nil {
		return nil, "", fmt.Errorf("load scores: %w", err)
	}
	defer rows.Close()

	m := NewAttributeMatrix()
	for rows.Next() {
		var course, scoresJSON string
		if err := rows.Scan(&course, &scoresJSON); err != nil {
			return nil, "", fmt.Errorf("scan row: %w", err)
		}
		var v criteria.ScoreVector
		if err := json.Unmarshal([]byte(scoresJSON), &v); err != nil {
			return nil, "", fmt.Errorf("unmarshal scores for %s: %w", course, err)
		}
		m.Set(course, v)
	}
	return m, hash, rows.Err()
}

// ActiveHash returns the catalog hash of the active version, or
// ErrNoActiveMatrix when the cache is empty.
func (s *Store) ActiveHash() (string, error) {
	var hash string
	err := s.db.QueryRow(
		`SELECT mv.catalog_hash
		 FROM active_matrix am JOIN matrix_versions mv ON mv.version_id = am.version_id
		 WHERE am.id = 1`,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoActiveMatrix
	}
	if err != nil {
		return "", fmt.Errorf("active hash: %w", err)
	}
	return hash, nil
}

// #endregion load

// #region list-versions

// ListVersions returns the most recent matrix builds with their audit fields.
func (s *Store) ListVersions(limit int) ([]Version, error) {
	rows, err := s.db.Query(
		`SELECT mv.version_id, mv.catalog_hash, mv.course_count, mv.created_at,
		        COALESCE(rl.trigger_type, ''), COALESCE(rl.reason, '')
		 FROM matrix_versions mv
		 LEFT JOIN rebuild_log rl ON rl.version_id = mv.version_id
		 ORDER BY mv.created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		var createdStr string
		if err := rows.Scan(&v.VersionID, &v.CatalogHash, &v.CourseCount, &createdStr, &v.Trigger, &v.Reason); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		v.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// #endregion list-versions

// #region ensure

// Ensure returns the active matrix, rebuilding it from courses only when the
// catalog hash changed or the cache is empty. Idempotent for an unchanged
// catalog.
func (s *Store) Ensure(courses []string, catalogHash, trigger string) (*AttributeMatrix, bool, error) {
	activeHash, err := s.ActiveHash()
	if err == nil && activeHash == catalogHash {
		m, _, err := s.LoadActive()
		if err != nil {
			return nil, false, err
		}
		return m, false, nil
	}
	if err != nil && !errors.Is(err, ErrNoActiveMatrix) {
		return nil, false, err
	}

	m := Build(courses)
	reason := "catalog hash changed"
	if errors.Is(err, ErrNoActiveMatrix) {
		reason = "empty cache"
	}
	if _, err := s.Save(m, catalogHash, trigger, reason); err != nil {
		return nil, false, fmt.Errorf("save rebuilt matrix: %w", err)
	}
	return m, true, nil
}

// #endregion ensure
