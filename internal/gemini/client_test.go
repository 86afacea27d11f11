package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replyassist/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	return NewClient(cfg, nil), server
}

func TestGenerate_Success(t *testing.T) {
	var gotPath string
	var gotReq Request
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := Response{}
		resp.Candidates = []Candidate{{}}
		resp.Candidates[0].Content.Parts = []Part{{Text: "hey!\nnot much"}}
		json.NewEncoder(w).Encode(resp)
	})

	resp, err := client.Generate(context.Background(), "test-key", "say hi")
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "hey!\nnot much", resp.Candidates[0].Content.Parts[0].Text)

	assert.Equal(t, "/models/gemini-2.5-flash:generateContent?key=test-key", gotPath)
	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "say hi", gotReq.Contents[0].Parts[0].Text)
	assert.InDelta(t, 0.8, gotReq.GenerationConfig.Temperature, 0.001)
	assert.Equal(t, 200, gotReq.GenerationConfig.MaxOutputTokens)
	assert.NotEmpty(t, gotReq.SafetySettings)
}

func TestGenerate_BlankAPIKey(t *testing.T) {
	client := NewClient(DefaultConfig(), nil)
	_, err := client.Generate(context.Background(), "   ", "prompt")
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestGenerate_StatusTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "400 invalid request",
			status: http.StatusBadRequest,
			body:   `{"error":{"message":"API key not valid"}}`,
			check: func(t *testing.T, err error) {
				var e *types.InvalidRequestError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "API key not valid", e.Message)
			},
		},
		{
			name:   "403 permission",
			status: http.StatusForbidden,
			body:   `{"error":{"message":"forbidden"}}`,
			check: func(t *testing.T, err error) {
				var e *types.PermissionError
				require.ErrorAs(t, err, &e)
			},
		},
		{
			name:   "429 rate limit",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"quota exceeded"}}`,
			check: func(t *testing.T, err error) {
				var e *types.RateLimitError
				require.ErrorAs(t, err, &e)
			},
		},
		{
			name:   "500 api error with structured body",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"backend exploded"}}`,
			check: func(t *testing.T, err error) {
				var e *types.APIError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
				assert.Equal(t, "backend exploded", e.Message)
			},
		},
		{
			name:   "503 api error with plain body",
			status: http.StatusServiceUnavailable,
			body:   "service unavailable",
			check: func(t *testing.T, err error) {
				var e *types.APIError
				require.ErrorAs(t, err, &e)
				assert.Equal(t, "service unavailable", e.Message)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := client.Generate(context.Background(), "k", "prompt")
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestGenerate_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	client := NewClient(cfg, nil)

	_, err := client.Generate(context.Background(), "k", "prompt")
	var nerr *types.NetworkError
	require.ErrorAs(t, err, &nerr)
}

func TestGenerate_CallerDeadlineSurfaces(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, "k", "prompt")
	var nerr *types.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "deadline must be visible through Unwrap")
}
