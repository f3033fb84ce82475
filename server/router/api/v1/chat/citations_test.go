package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tleai/thomas/ai"
	"github.com/tleai/thomas/store"
)

func TestResolveCitationsFromCatalog(t *testing.T) {
	ms := &mockStore{
		documents: []*store.Document{
			{ID: 1, Title: "Tex. Civ. Prac. Code", Filename: "tcpc.pdf", ExternalFileID: "file-123"},
		},
	}
	citations := ResolveCitations(context.Background(), ms, []ai.FileAnnotation{
		{FileID: "file-123", Filename: "tcpc.pdf"},
	})
	require.Len(t, citations, 1)
	assert.Equal(t, "file-123", citations[0].FileID)
	assert.Equal(t, "Tex. Civ. Prac. Code", citations[0].DocumentTitle)
	assert.Equal(t, "tcpc.pdf", citations[0].Filename)
}

func TestResolveCitationsFilenameFallback(t *testing.T) {
	ms := &mockStore{}
	citations := ResolveCitations(context.Background(), ms, []ai.FileAnnotation{
		{FileID: "file-456", Filename: "family_code.pdf"},
	})
	require.Len(t, citations, 1)
	assert.Equal(t, "family_code.pdf", citations[0].DocumentTitle)
}

func TestResolveCitationsSyntheticFallback(t *testing.T) {
	ms := &mockStore{}
	citations := ResolveCitations(context.Background(), ms, []ai.FileAnnotation{
		{FileID: "file-789"},
	})
	require.Len(t, citations, 1)
	assert.Equal(t, "File file-789", citations[0].DocumentTitle)
}

func TestResolveCitationsPreservesOrder(t *testing.T) {
	ms := &mockStore{
		documents: []*store.Document{
			{ID: 1, Title: "Penal Code", ExternalFileID: "file-b"},
		},
	}
	citations := ResolveCitations(context.Background(), ms, []ai.FileAnnotation{
		{FileID: "file-a", Filename: "a.pdf"},
		{FileID: "file-b"},
		{FileID: "file-c"},
	})
	require.Len(t, citations, 3)
	assert.Equal(t, "a.pdf", citations[0].DocumentTitle)
	assert.Equal(t, "Penal Code", citations[1].DocumentTitle)
	assert.Equal(t, "File file-c", citations[2].DocumentTitle)
}

func TestResolveCitationsEmpty(t *testing.T) {
	citations := ResolveCitations(context.Background(), &mockStore{}, nil)
	assert.Empty(t, citations)
}
