// Package store persists assessments and their question records in SQLite.
// Question records are stored as raw JSON exactly as the generation layer
// produced them; the normalizer is the only component that interprets their
// shape.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/quizsmith/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		grade_level TEXT NOT NULL DEFAULT '',
		standards TEXT NOT NULL DEFAULT '[]',
		cognitive_framework TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assessment_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		raw TEXT NOT NULL,
		FOREIGN KEY (assessment_id) REFERENCES assessments(id)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateAssessment stores assessment metadata and returns its id.
func (s *Store) CreateAssessment(a model.Assessment) (int64, error) {
	standards, err := json.Marshal(a.Standards)
	if err != nil {
		return 0, fmt.Errorf("marshal standards: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO assessments (title, subject, grade_level, standards, cognitive_framework, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.Title, a.Subject, a.GradeLevel, string(standards), a.CognitiveFramework, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAssessment returns assessment metadata by id. Questions are loaded
// separately via ListQuestionRaws and normalized by the caller.
func (s *Store) GetAssessment(id int64) (model.Assessment, error) {
	var a model.Assessment
	var standards string
	err := s.db.QueryRow(
		`SELECT id, title, subject, grade_level, standards, cognitive_framework FROM assessments WHERE id = ?`, id,
	).Scan(&a.ID, &a.Title, &a.Subject, &a.GradeLevel, &standards, &a.CognitiveFramework)
	if err != nil {
		return a, err
	}
	if err := json.Unmarshal([]byte(standards), &a.Standards); err != nil {
		return a, fmt.Errorf("unmarshal standards: %w", err)
	}
	return a, nil
}

// ListAssessments returns metadata for all assessments, newest first.
func (s *Store) ListAssessments() ([]model.Assessment, error) {
	rows, err := s.db.Query(
		`SELECT id, title, subject, grade_level, standards, cognitive_framework FROM assessments ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Assessment
	for rows.Next() {
		var a model.Assessment
		var standards string
		if err := rows.Scan(&a.ID, &a.Title, &a.Subject, &a.GradeLevel, &standards, &a.CognitiveFramework); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(standards), &a.Standards); err != nil {
			return nil, fmt.Errorf("unmarshal standards: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertQuestionRaw appends one raw question record to an assessment at the
// given 0-based storage position.
func (s *Store) InsertQuestionRaw(assessmentID int64, position int, raw map[string]any) (int64, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return 0, fmt.Errorf("marshal raw question: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO questions (assessment_id, position, raw) VALUES (?, ?, ?)`,
		assessmentID, position, string(data),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListQuestionRaws returns an assessment's raw question records in storage
// order. This order is what normalization derives ordinals from.
func (s *Store) ListQuestionRaws(assessmentID int64) ([]map[string]any, error) {
	rows, err := s.db.Query(
		`SELECT raw FROM questions WHERE assessment_id = ? ORDER BY position, id`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []map[string]any
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return nil, fmt.Errorf("unmarshal raw question: %w", err)
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}

// QuestionCount returns the number of questions in an assessment.
func (s *Store) QuestionCount(assessmentID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions WHERE assessment_id = ?`, assessmentID).Scan(&count)
	return count, err
}

// SaveAssessment stores an assessment and its questions in one transaction.
// Canonical questions are persisted in their JSON form, which normalizes back
// to an equivalent canonical question on load.
func (s *Store) SaveAssessment(a model.Assessment) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	standards, err := json.Marshal(a.Standards)
	if err != nil {
		return 0, fmt.Errorf("marshal standards: %w", err)
	}
	res, err := tx.Exec(
		`INSERT INTO assessments (title, subject, grade_level, standards, cognitive_framework, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.Title, a.Subject, a.GradeLevel, string(standards), a.CognitiveFramework, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, q := range a.Questions {
		data, err := json.Marshal(q)
		if err != nil {
			return 0, fmt.Errorf("marshal question %d: %w", i+1, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO questions (assessment_id, position, raw) VALUES (?, ?, ?)`,
			id, i, string(data),
		); err != nil {
			return 0, err
		}
	}

	return id, tx.Commit()
}

// GetImportedFileHash returns the recorded content hash for a previously
// imported file path, or empty string when the path was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the content hash of an imported file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = ?`,
		path, hash, hash,
	)
	return err
}
