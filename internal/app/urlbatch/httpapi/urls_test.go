package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urlindex.local/gee"
)

func newURLEngine() *gee.Engine {
	r := gee.New()
	RegisterURLRoutes(r.Group("/api/v1"), nil)
	return r
}

func postJSON(t *testing.T, h http.Handler, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestParseEndpoint(t *testing.T) {
	w := postJSON(t, newURLEngine(), "/api/v1/urls/parse",
		`{"input":"https://a.com\nexample.com\n\nhttps://b.comhttps://c.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"https://a.com", "https://b.com", "https://c.com"}, resp.URLs)
	assert.True(t, resp.HasErrors)
	assert.Equal(t, []string{"example.com", "https://b.comhttps://c.com"}, resp.InvalidLines)
	assert.Equal(t, "https://a.com\nexample.com\n\nhttps://b.com\nhttps://c.com", resp.CorrectedInput)
	require.Len(t, resp.Lines, 3)
	assert.Equal(t, 1, resp.Lines[1].Index)
	assert.Contains(t, w.Body.String(), `"outcome":"bare_domain_invalid"`)
	assert.Equal(t, "Invalid URLs: example.com, https://b.comhttps://c.com", resp.InvalidSummary)
}

func TestParseEndpointEmptyInput(t *testing.T) {
	w := postJSON(t, newURLEngine(), "/api/v1/urls/parse", `{"input":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"urls":[]`)
	assert.Contains(t, w.Body.String(), `"has_errors":false`)
}

func TestParseEndpointRejectsBadJSON(t *testing.T) {
	w := postJSON(t, newURLEngine(), "/api/v1/urls/parse", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCleanEndpoint(t *testing.T) {
	w := postJSON(t, newURLEngine(), "/api/v1/urls/clean",
		`{"input":"https://a.com foo https://b.com\nexample.com bar"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CleanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://a.com https://b.com\n", resp.Cleaned)
}

func TestDedupeEndpoint(t *testing.T) {
	w := postJSON(t, newURLEngine(), "/api/v1/urls/dedupe",
		`{"urls":["https://A.com","https://a.com","https://a.com/"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp DedupeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"https://A.com", "https://a.com/"}, resp.UniqueURLs)
	assert.Equal(t, 1, resp.DuplicateCount)
}
