package sqlite

import (
	"context"
	"fmt"

	"github.com/tleai/thomas/store"
)

func (d *DB) CreateDocument(ctx context.Context, create *store.CreateDocument) (*store.Document, error) {
	query := `
		INSERT INTO document (title, filename, external_file_id, status, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	document := store.Document{
		Title:          create.Title,
		Filename:       create.Filename,
		ExternalFileID: create.ExternalFileID,
		Status:         create.Status,
		CreatedTs:      create.CreatedTs,
		UpdatedTs:      create.CreatedTs,
	}
	if err := d.db.QueryRowContext(ctx, query,
		create.Title,
		create.Filename,
		create.ExternalFileID,
		create.Status,
		create.CreatedTs,
		create.CreatedTs,
	).Scan(&document.ID); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return &document, nil
}

func (d *DB) ListDocuments(ctx context.Context, find *store.FindDocument) ([]*store.Document, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.ExternalFileID != nil {
		where, args = append(where, "external_file_id = ?"), append(args, *find.ExternalFileID)
	}
	if find.Status != nil {
		where, args = append(where, "status = ?"), append(args, *find.Status)
	}

	query := `
		SELECT id, title, filename, external_file_id, status, created_ts, updated_ts
		FROM document
		WHERE ` + joinAnd(where) + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var list []*store.Document
	for rows.Next() {
		var document store.Document
		if err := rows.Scan(
			&document.ID,
			&document.Title,
			&document.Filename,
			&document.ExternalFileID,
			&document.Status,
			&document.CreatedTs,
			&document.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		list = append(list, &document)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateDocument(ctx context.Context, update *store.UpdateDocument) (*store.Document, error) {
	set, args := []string{}, []any{}
	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.Status != nil {
		set, args = append(set, "status = ?"), append(args, *update.Status)
	}
	if update.ExternalFileID != nil {
		set, args = append(set, "external_file_id = ?"), append(args, *update.ExternalFileID)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID)

	query := `
		UPDATE document SET ` + joinComma(set) + ` WHERE id = ?
		RETURNING id, title, filename, external_file_id, status, created_ts, updated_ts
	`
	var document store.Document
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&document.ID,
		&document.Title,
		&document.Filename,
		&document.ExternalFileID,
		&document.Status,
		&document.CreatedTs,
		&document.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return &document, nil
}
