package library

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// InsertDocument inserts a document. Returns false if a document with the
// same source URL already exists (dedupe, not an error).
func (db *DB) InsertDocument(doc Document) (bool, error) {
	if doc.ID == "" {
		return false, fmt.Errorf("document id is required")
	}
	if doc.Author == "" {
		doc.Author = "Unknown Author"
	}

	_, err := db.conn.Exec(
		`INSERT INTO documents (id, title, author, published_date, full_text, source_tag, source_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Author, doc.PublishedDate, doc.FullText, doc.SourceTag, doc.SourceURL,
	)
	if err != nil {
		// Unique constraint on id or source_url means we already have it.
		if strings.Contains(err.Error(), "UNIQUE") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetDocument returns a single document by id, or nil if not found.
func (db *DB) GetDocument(id string) (*Document, error) {
	row := db.conn.QueryRow(
		`SELECT id, title, author, published_date, full_text, source_tag, source_url, added_at
		FROM documents WHERE id = ?`, id,
	)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetDocumentsByIDs returns the documents matching the given ids, ordered by id.
// Missing ids are silently skipped.
func (db *DB) GetDocumentsByIDs(ids []string, limit int) ([]Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.Query(
		`SELECT id, title, author, published_date, full_text, source_tag, source_url, added_at
		FROM documents WHERE id IN (`+placeholders+`) ORDER BY id`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// SearchDocuments returns documents whose title, text, or author match the
// query terms, most recent first.
func (db *DB) SearchDocuments(query string, limit int) ([]Document, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return db.RecentDocuments(limit)
	}

	var conds []string
	var args []any
	for _, term := range terms {
		pattern := "%" + term + "%"
		conds = append(conds, "(lower(title) LIKE ? OR lower(full_text) LIKE ? OR lower(author) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	args = append(args, limit)

	rows, err := db.conn.Query(
		`SELECT id, title, author, published_date, full_text, source_tag, source_url, added_at
		FROM documents WHERE `+strings.Join(conds, " OR ")+`
		ORDER BY added_at DESC, id LIMIT ?`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// RecentDocuments returns the most recently added documents.
func (db *DB) RecentDocuments(limit int) ([]Document, error) {
	rows, err := db.conn.Query(
		`SELECT id, title, author, published_date, full_text, source_tag, source_url, added_at
		FROM documents ORDER BY added_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Retrieve implements the engine's retrieval collaborator contract: explicit
// ids win over a query; with neither, a recent sample of the library is used.
func (db *DB) Retrieve(ctx context.Context, query string, ids []string, max int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		return db.GetDocumentsByIDs(ids, max)
	}
	if strings.TrimSpace(query) != "" {
		return db.SearchDocuments(query, max)
	}
	return db.RecentDocuments(max)
}

// GetStats returns library-wide counts.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	err := db.conn.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT author), COUNT(DISTINCT source_tag) FROM documents`,
	).Scan(&s.TotalDocuments, &s.TotalAuthors, &s.TotalSources)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.Title, &doc.Author, &doc.PublishedDate,
		&doc.FullText, &doc.SourceTag, &doc.SourceURL, &doc.AddedAt)
	return doc, err
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
