package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tleai/thomas/store"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// The stream framing is a fixed client contract; assert it byte for byte.
func TestSSEWriterFraming(t *testing.T) {
	c, rec := newTestContext(t)
	w := &sseWriter{resp: c.Response()}

	require.NoError(t, w.Token("The"))
	require.NoError(t, w.Citations([]store.Citation{
		{FileID: "file-123", DocumentTitle: "Tex. Civ. Prac. Code"},
	}))
	require.NoError(t, w.Error("upstream 503"))
	require.NoError(t, w.Done())

	expected := "data: {\"token\":\"The\"}\n\n" +
		"data: {\"citations\":[{\"file_id\":\"file-123\",\"document_title\":\"Tex. Civ. Prac. Code\"}]}\n\n" +
		"data: {\"error\":\"upstream 503\"}\n\n" +
		"data: [DONE]\n\n"
	assert.Equal(t, expected, rec.Body.String())
}

func TestSSEWriterCitationFilenameOmitted(t *testing.T) {
	c, rec := newTestContext(t)
	w := &sseWriter{resp: c.Response()}

	require.NoError(t, w.Citations([]store.Citation{
		{FileID: "file-9", DocumentTitle: "Family Code", Filename: "family.pdf"},
	}))
	assert.Contains(t, rec.Body.String(), `"filename":"family.pdf"`)
}

func TestUserIDFromRequest(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(userIDHeader, "42")
	c := e.NewContext(req, httptest.NewRecorder())
	id, err := userIDFromRequest(c)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	_, err = userIDFromRequest(c)
	require.Error(t, err)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(userIDHeader, "not-a-number")
	c = e.NewContext(req, httptest.NewRecorder())
	_, err = userIDFromRequest(c)
	require.Error(t, err)
}

func TestUserLimitersBurstThenThrottle(t *testing.T) {
	limiters := newUserLimiters()
	for i := 0; i < 5; i++ {
		assert.True(t, limiters.allow(1), "burst request %d should pass", i)
	}
	assert.False(t, limiters.allow(1))
	// Independent per user.
	assert.True(t, limiters.allow(2))
}
