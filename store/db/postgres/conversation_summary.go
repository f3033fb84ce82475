package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/tleai/thomas/store"
)

func (d *DB) CreateConversationSummary(ctx context.Context, create *store.CreateConversationSummary) (*store.ConversationSummary, error) {
	query := `
		INSERT INTO conversation_summary (conversation_id, summary_text, covered_until_ts, created_ts)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	summary := store.ConversationSummary{
		ConversationID: create.ConversationID,
		SummaryText:    create.SummaryText,
		CoveredUntilTs: create.CoveredUntilTs,
		CreatedTs:      create.CreatedTs,
	}
	if err := d.db.QueryRowContext(ctx, query,
		create.ConversationID,
		create.SummaryText,
		create.CoveredUntilTs,
		create.CreatedTs,
	).Scan(&summary.ID); err != nil {
		return nil, fmt.Errorf("failed to create conversation summary: %w", err)
	}
	return &summary, nil
}

func (d *DB) ListConversationSummaries(ctx context.Context, find *store.FindConversationSummary) ([]*store.ConversationSummary, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ConversationID != nil {
		args = append(args, *find.ConversationID)
		where = append(where, fmt.Sprintf("conversation_id = $%d", len(args)))
	}

	query := `
		SELECT id, conversation_id, summary_text, covered_until_ts, created_ts
		FROM conversation_summary
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation summaries: %w", err)
	}
	defer rows.Close()

	var list []*store.ConversationSummary
	for rows.Next() {
		var summary store.ConversationSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.ConversationID,
			&summary.SummaryText,
			&summary.CoveredUntilTs,
			&summary.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation summary: %w", err)
		}
		list = append(list, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
