package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tleai/thomas/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.CreateMessage) (*store.Message, error) {
	citations := create.Citations
	if citations == nil {
		citations = []store.Citation{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal citations: %w", err)
	}

	query := `
		INSERT INTO message (conversation_id, role, content, citations, created_ts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	message := store.Message{
		ConversationID: create.ConversationID,
		Role:           create.Role,
		Content:        create.Content,
		Citations:      citations,
		CreatedTs:      create.CreatedTs,
	}
	if err := d.db.QueryRowContext(ctx, query,
		create.ConversationID,
		create.Role,
		create.Content,
		string(citationsJSON),
		create.CreatedTs,
	).Scan(&message.ID); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &message, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ConversationID != nil {
		args = append(args, *find.ConversationID)
		where = append(where, fmt.Sprintf("conversation_id = $%d", len(args)))
	}
	if find.Role != nil {
		args = append(args, *find.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}

	order := "ASC"
	if find.OrderDesc {
		order = "DESC"
	}
	query := `
		SELECT id, conversation_id, role, content, citations, created_ts
		FROM message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ` + order + `, id ` + order
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var list []*store.Message
	for rows.Next() {
		var message store.Message
		var citationsJSON string
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.Role,
			&message.Content,
			&citationsJSON,
			&message.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(citationsJSON), &message.Citations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal citations: %w", err)
		}
		list = append(list, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) CountMessages(ctx context.Context, conversationID int32) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM message WHERE conversation_id = $1`, conversationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
