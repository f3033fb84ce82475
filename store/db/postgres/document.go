package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/tleai/thomas/store"
)

func (d *DB) CreateDocument(ctx context.Context, create *store.CreateDocument) (*store.Document, error) {
	query := `
		INSERT INTO document (title, filename, external_file_id, status, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
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
		args = append(args, *find.ID)
		where = append(where, fmt.Sprintf("id = $%d", len(args)))
	}
	if find.ExternalFileID != nil {
		args = append(args, *find.ExternalFileID)
		where = append(where, fmt.Sprintf("external_file_id = $%d", len(args)))
	}
	if find.Status != nil {
		args = append(args, *find.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `
		SELECT id, title, filename, external_file_id, status, created_ts, updated_ts
		FROM document
		WHERE ` + strings.Join(where, " AND ") + `
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
		args = append(args, *update.Title)
		set = append(set, fmt.Sprintf("title = $%d", len(args)))
	}
	if update.Status != nil {
		args = append(args, *update.Status)
		set = append(set, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.ExternalFileID != nil {
		args = append(args, *update.ExternalFileID)
		set = append(set, fmt.Sprintf("external_file_id = $%d", len(args)))
	}
	if update.UpdatedTs != nil {
		args = append(args, *update.UpdatedTs)
		set = append(set, fmt.Sprintf("updated_ts = $%d", len(args)))
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID)

	query := `
		UPDATE document SET ` + strings.Join(set, ", ") + fmt.Sprintf(" WHERE id = $%d", len(args)) + `
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
