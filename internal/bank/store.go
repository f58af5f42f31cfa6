// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bank persists converted question records in a searchable
// SQLite question bank.
package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/question-engine/pkg/types"
)

const (
	dbFile      = "bank.db"
	resultsFile = "questions_structured.json"
)

// Store manages the question bank SQLite database.
type Store struct {
	db         *sql.DB
	bankDir    string
	resultsDir string
	maxResults int
}

// NewStore opens or creates the question bank database at
// cfg.BankDir/bank.db, creating the schema if it does not exist.
func NewStore(cfg types.BankConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.BankDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating bank directory: %w", err)
	}

	dbPath := filepath.Join(cfg.BankDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		bankDir:    cfg.BankDir,
		resultsDir: cfg.ResultsDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			source_path TEXT,
			question_count INTEGER,
			image_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL REFERENCES documents(id),
			position INTEGER NOT NULL,
			question_number INTEGER NOT NULL,
			question TEXT NOT NULL,
			question_images TEXT,
			option_images TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_doc_id ON questions(doc_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_number ON questions(question_number)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			doc_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='questions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE questions_fts USING fts5(question, content=questions, content_rowid=rowid)`,
			`CREATE TRIGGER questions_ai AFTER INSERT ON questions BEGIN
				INSERT INTO questions_fts(rowid, question) VALUES (new.rowid, new.question);
			END`,
			`CREATE TRIGGER questions_ad AFTER DELETE ON questions BEGIN
				INSERT INTO questions_fts(questions_fts, rowid, question) VALUES('delete', old.rowid, old.question);
			END`,
			`CREATE TRIGGER questions_au AFTER UPDATE ON questions BEGIN
				INSERT INTO questions_fts(questions_fts, rowid, question) VALUES('delete', old.rowid, old.question);
				INSERT INTO questions_fts(rowid, question) VALUES (new.rowid, new.question);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from a bank indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest scans the results directory for converted documents (one
// subdirectory per document, each holding a questions_structured.json)
// and populates the database incrementally: unchanged files are skipped,
// changed ones replace their previous rows.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	entries, err := os.ReadDir(s.resultsDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading results directory %s: %w", s.resultsDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		docID := entry.Name()
		jsonPath := filepath.Join(s.resultsDir, docID, resultsFile)

		info, err := os.Stat(jsonPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE doc_id = ?`, docID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", docID)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(jsonPath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		var recs []types.QuestionRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestDocument(ctx, docID, jsonPath, recs, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", docID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d questions)\n", docID, len(recs))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d questions)\n", docID, len(recs))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, docID, sourcePath string, recs []types.QuestionRecord, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE doc_id = ?`, docID); err != nil {
			return fmt.Errorf("deleting old questions: %w", err)
		}
	}

	imageCount := 0
	for _, rec := range recs {
		imageCount += len(rec.QuestionImages) + len(rec.OptionImages)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, source_path, question_count, image_count)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source_path=excluded.source_path,
			question_count=excluded.question_count,
			image_count=excluded.image_count`,
		docID, sourcePath, len(recs), imageCount,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO questions (doc_id, position, question_number, question, question_images, option_images)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for pos, rec := range recs {
		qImagesJSON, _ := json.Marshal(rec.QuestionImages)
		oImagesJSON, _ := json.Marshal(rec.OptionImages)
		_, err := stmt.ExecContext(ctx,
			docID, pos, rec.QuestionNumber, rec.Question,
			string(qImagesJSON), string(oImagesJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting question %d: %w", rec.QuestionNumber, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (doc_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		docID, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}
