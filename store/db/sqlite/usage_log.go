package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tleai/thomas/store"
)

func (d *DB) CreateUsageLog(ctx context.Context, create *store.CreateUsageLog) (*store.UsageLog, error) {
	query := `
		INSERT INTO usage_log (user_id, conversation_id, query_text, input_tokens, output_tokens, cost, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	var conversationID sql.NullInt32
	if create.ConversationID != nil {
		conversationID = sql.NullInt32{Int32: *create.ConversationID, Valid: true}
	}

	usageLog := store.UsageLog{
		UserID:         create.UserID,
		ConversationID: create.ConversationID,
		QueryText:      create.QueryText,
		InputTokens:    create.InputTokens,
		OutputTokens:   create.OutputTokens,
		Cost:           create.Cost,
		CreatedTs:      create.CreatedTs,
	}
	if err := d.db.QueryRowContext(ctx, query,
		create.UserID,
		conversationID,
		create.QueryText,
		create.InputTokens,
		create.OutputTokens,
		create.Cost,
		create.CreatedTs,
	).Scan(&usageLog.ID); err != nil {
		return nil, fmt.Errorf("failed to create usage log: %w", err)
	}
	return &usageLog, nil
}

func (d *DB) ListUsageLogs(ctx context.Context, find *store.FindUsageLog) ([]*store.UsageLog, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = ?"), append(args, *find.ConversationID)
	}

	query := `
		SELECT id, user_id, conversation_id, query_text, input_tokens, output_tokens, cost, created_ts
		FROM usage_log
		WHERE ` + joinAnd(where) + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage logs: %w", err)
	}
	defer rows.Close()

	var list []*store.UsageLog
	for rows.Next() {
		var usageLog store.UsageLog
		var conversationID sql.NullInt32
		if err := rows.Scan(
			&usageLog.ID,
			&usageLog.UserID,
			&conversationID,
			&usageLog.QueryText,
			&usageLog.InputTokens,
			&usageLog.OutputTokens,
			&usageLog.Cost,
			&usageLog.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage log: %w", err)
		}
		if conversationID.Valid {
			id := conversationID.Int32
			usageLog.ConversationID = &id
		}
		list = append(list, &usageLog)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
