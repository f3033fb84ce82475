package sqlite

import (
	"context"
	"fmt"

	"github.com/tleai/thomas/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	query := `
		INSERT INTO conversation (uid, creator_id, title, title_source, pinned, row_status, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
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
		where, args = append(where, "c.id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "c.uid = ?"), append(args, *find.UID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "c.creator_id = ?"), append(args, *find.CreatorID)
	}
	if find.Pinned != nil {
		where, args = append(where, "c.pinned = ?"), append(args, *find.Pinned)
	}
	if find.RowStatus != nil {
		where, args = append(where, "c.row_status = ?"), append(args, *find.RowStatus)
	}

	query := `
		SELECT
			c.id, c.uid, c.creator_id, c.title, c.title_source, c.pinned, c.row_status,
			c.created_ts, c.updated_ts,
			COUNT(m.id) AS message_count
		FROM conversation c
		LEFT JOIN message m ON m.conversation_id = c.id
		WHERE ` + joinAnd(where) + `
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
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.TitleSource != nil {
		set, args = append(set, "title_source = ?"), append(args, *update.TitleSource)
	}
	if update.Pinned != nil {
		set, args = append(set, "pinned = ?"), append(args, *update.Pinned)
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = ?"), append(args, *update.RowStatus)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID)

	query := `
		UPDATE conversation SET ` + joinComma(set) + ` WHERE id = ?
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
	if _, err := d.db.ExecContext(ctx, `DELETE FROM conversation WHERE id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func joinAnd(parts []string) string {
	result := parts[0]
	for _, part := range parts[1:] {
		result += " AND " + part
	}
	return result
}

func joinComma(parts []string) string {
	result := parts[0]
	for _, part := range parts[1:] {
		result += ", " + part
	}
	return result
}
