package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/tleai/thomas/ai"
	"github.com/tleai/thomas/store"
)

// ResolveCitations maps grounding annotations, already deduplicated in
// first-seen order, to citation records. Each file reference is looked up in
// the local document catalog; a missing entry falls back to the filename the
// annotation reported, then to a synthetic "File <id>" label. Resolution never
// fails the turn: lookup errors degrade to the fallback label.
func ResolveCitations(ctx context.Context, s ConversationStore, annotations []ai.FileAnnotation) []store.Citation {
	citations := make([]store.Citation, 0, len(annotations))
	for _, annotation := range annotations {
		citation := store.Citation{
			FileID:   annotation.FileID,
			Filename: annotation.Filename,
		}
		document, err := s.GetDocumentByFileID(ctx, annotation.FileID)
		switch {
		case err == nil:
			citation.DocumentTitle = document.Title
		case annotation.Filename != "":
			citation.DocumentTitle = annotation.Filename
		default:
			citation.DocumentTitle = fmt.Sprintf("File %s", annotation.FileID)
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Warn("chat: citation lookup failed, using fallback label",
				"file_id", annotation.FileID,
				"error", err,
			)
		}
		citations = append(citations, citation)
	}
	return citations
}
