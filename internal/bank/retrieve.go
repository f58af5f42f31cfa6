// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/question-engine/pkg/types"
)

// QueryOptions holds parameters for question bank queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over question text.
	Query string

	// DocID filters by source document.
	DocID string

	// Number filters by question number. Zero means no filter.
	Number int

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.DocID == "" && q.Number == 0
}

// QueryResult is a stored question with its source document.
type QueryResult struct {
	types.QuestionRecord `yaml:",inline"`
	DocID                string `json:"doc_id" yaml:"doc_id"`
}

// Retrieve queries the question bank with optional full-text search and
// structured filters. Full-text queries are ranked by relevance;
// structured-only queries come back in document order.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT q.doc_id, q.question_number, q.question, q.question_images, q.option_images
			FROM questions_fts
			JOIN questions q ON q.rowid = questions_fts.rowid
			WHERE questions_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT q.doc_id, q.question_number, q.question, q.question_images, q.option_images
			FROM questions q
			WHERE 1=1`)
	}

	if opts.DocID != "" {
		qb.WriteString(` AND q.doc_id = ?`)
		args = append(args, opts.DocID)
	}

	if opts.Number != 0 {
		qb.WriteString(` AND q.question_number = ?`)
		args = append(args, opts.Number)
	}

	if useFTS {
		qb.WriteString(` ORDER BY questions_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY q.doc_id, q.position`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying question bank: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			qImagesJSON sql.NullString
			oImagesJSON sql.NullString
		)

		if err := rows.Scan(
			&qr.DocID, &qr.QuestionNumber, &qr.Question, &qImagesJSON, &oImagesJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.QuestionImages = []string{}
		qr.OptionImages = []string{}
		if qImagesJSON.Valid {
			json.Unmarshal([]byte(qImagesJSON.String), &qr.QuestionImages)
		}
		if oImagesJSON.Valid {
			json.Unmarshal([]byte(oImagesJSON.String), &qr.OptionImages)
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}

// Documents lists the indexed documents with their question and image
// counts, ordered by ID.
func (s *Store) Documents(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_path, question_count, image_count FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.ID, &d.SourcePath, &d.Questions, &d.Images); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DocumentInfo summarizes one indexed document.
type DocumentInfo struct {
	ID         string `json:"id" yaml:"id"`
	SourcePath string `json:"source_path" yaml:"source_path"`
	Questions  int    `json:"questions" yaml:"questions"`
	Images     int    `json:"images" yaml:"images"`
}
