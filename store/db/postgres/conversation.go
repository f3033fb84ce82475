package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/tleai/thomas/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	query := `
		INSERT INTO conversation (uid, creator_id, title, title_source, pinned, row_status, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, query,
		create.UID,
		create.CreatorID,
		create.Title,
		create.TitleSource,
		create.Pinned,
		create.RowStatus,
		create.CreatedTs,
		create.UpdatedTs,
	).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		args = append(args, *find.ID)
		where = append(where, fmt.Sprintf("c.id = $%d", len(args)))
	}
	if find.UID != nil {
		args = append(args, *find.UID)
		where = append(where, fmt.Sprintf("c.uid = $%d", len(args)))
	}
	if find.CreatorID != nil {
		args = append(args, *find.CreatorID)
		where = append(where, fmt.Sprintf("c.creator_id = $%d", len(args)))
	}
	if find.Pinned != nil {
		args = append(args, *find.Pinned)
		where = append(where, fmt.Sprintf("c.pinned = $%d", len(args)))
	}
	if find.RowStatus != nil {
		args = append(args, *find.RowStatus)
		where = append(where, fmt.Sprintf("c.row_status = $%d", len(args)))
	}

	query := `
		SELECT
			c.id, c.uid, c.creator_id, c.title, c.title_source, c.pinned, c.row_status,
			c.created_ts, c.updated_ts,
			COUNT(m.id) AS message_count
		FROM conversation c
		LEFT JOIN message m ON m.conversation_id = c.id
		WHERE ` + strings.Join(where, " AND ") + `
		GROUP BY c.id
		ORDER BY c.pinned DESC, c.updated_ts DESC
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var list []*store.Conversation
	for rows.Next() {
		var conversation store.Conversation
		if err := rows.Scan(
			&conversation.ID,
			&conversation.UID,
			&conversation.CreatorID,
			&conversation.Title,
			&conversation.TitleSource,
			&conversation.Pinned,
			&conversation.RowStatus,
			&conversation.CreatedTs,
			&conversation.UpdatedTs,
			&conversation.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		list = append(list, &conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	set, args := []string{}, []any{}
	if update.Title != nil {
		args = append(args, *update.Title)
		set = append(set, fmt.Sprintf("title = $%d", len(args)))
	}
	if update.TitleSource != nil {
		args = append(args, *update.TitleSource)
		set = append(set, fmt.Sprintf("title_source = $%d", len(args)))
	}
	if update.Pinned != nil {
		args = append(args, *update.Pinned)
		set = append(set, fmt.Sprintf("pinned = $%d", len(args)))
	}
	if update.RowStatus != nil {
		args = append(args, *update.RowStatus)
		set = append(set, fmt.Sprintf("row_status = $%d", len(args)))
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
		UPDATE conversation SET ` + strings.Join(set, ", ") + fmt.Sprintf(" WHERE id = $%d", len(args)) + `
		RETURNING id, uid, creator_id, title, title_source, pinned, row_status, created_ts, updated_ts
	`
	var conversation store.Conversation
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&conversation.ID,
		&conversation.UID,
		&conversation.CreatorID,
		&conversation.Title,
		&conversation.TitleSource,
		&conversation.Pinned,
		&conversation.RowStatus,
		&conversation.CreatedTs,
		&conversation.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return &conversation, nil
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM conversation WHERE id = $1`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
