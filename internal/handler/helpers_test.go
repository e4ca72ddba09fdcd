package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eatmeetclub/api/internal/middleware"
	"github.com/eatmeetclub/api/internal/model"
)

// ============================================================================
// Test Helpers
// ============================================================================

func makeJSONRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withUser(req *http.Request, userID string, role model.UserRole) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), userID, role))
}

func withPath(req *http.Request, kv ...string) *http.Request {
	for i := 0; i+1 < len(kv); i += 2 {
		req.SetPathValue(kv[i], kv[i+1])
	}
	return req
}

func parseProblem(t *testing.T, rr *httptest.ResponseRecorder) *model.ProblemDetails {
	t.Helper()
	var problem model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem), rr.Body.String())
	return &problem
}

// decodeData unmarshals the data member of a {data, _links} body into v
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) map[string]string {
	t.Helper()
	var body struct {
		Data  json.RawMessage   `json:"data"`
		Links map[string]string `json:"_links"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	if v != nil {
		require.NoError(t, json.Unmarshal(body.Data, v))
	}
	return body.Links
}

func decodeCollection(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) *PaginationInfo {
	t.Helper()
	var body struct {
		Data       json.RawMessage `json:"data"`
		Pagination *PaginationInfo `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	require.NoError(t, json.Unmarshal(body.Data, v))
	return body.Pagination
}
