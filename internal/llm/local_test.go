package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type generateBody struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system"`
	Stream *bool  `json:"stream"`
}

func newLocal(t *testing.T, srv *httptest.Server) *LocalBackend {
	t.Helper()
	b, err := NewLocalBackend(srv.URL+"/", "llama3:8b", srv.Client())
	require.NoError(t, err)
	return b
}

func TestLocalBackendComplete(t *testing.T) {
	type request struct {
		method, path string
		body         []byte
	}
	captured := make(chan request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured <- request{method: r.Method, path: r.URL.Path, body: body}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3:8b","response":"I'm here for you.","done":true}` + "\n"))
	}))
	defer srv.Close()

	b := newLocal(t, srv)
	require.Equal(t, BackendLocal, b.Name())

	reply, err := b.Complete(context.Background(), sampleMessages())
	require.NoError(t, err)
	require.Equal(t, "I'm here for you.", reply)

	req := <-captured
	require.Equal(t, http.MethodPost, req.method)
	require.Equal(t, "/api/generate", req.path)

	var body generateBody
	require.NoError(t, json.Unmarshal(req.body, &body))
	require.Equal(t, "llama3:8b", body.Model)
	require.NotNil(t, body.Stream)
	require.False(t, *body.Stream)
	require.Equal(t, "be kind", body.System)
	require.Equal(t, "be kind\nearlier\nreply\nI feel anxious today", body.Prompt)
}

func TestLocalBackendErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("{}\n"))
			},
			check: func(t *testing.T, err error) {
				var statusErr *HTTPStatusError
				require.ErrorAs(t, err, &statusErr)
				require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
				require.Equal(t, BackendLocal, statusErr.Backend)
			},
		},
		{
			name: "server error with message",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"model \"llama3:8b\" not found"}` + "\n"))
			},
			check: func(t *testing.T, err error) {
				require.ErrorContains(t, err, "not found")
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("{not json\n"))
			},
			check: func(t *testing.T, err error) {
				var statusErr *HTTPStatusError
				require.False(t, errors.As(err, &statusErr))
				require.NotErrorIs(t, err, ErrEmptyReply)
			},
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"response":"","done":true}` + "\n"))
			},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrEmptyReply)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			_, err := newLocal(t, srv).Complete(context.Background(), sampleMessages())
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestLocalBackendHonorsContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newLocal(t, srv).Complete(ctx, sampleMessages())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewLocalBackendRejectsBadURL(t *testing.T) {
	_, err := NewLocalBackend("http://[::1", "m", nil)
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	local, err := NewLocalBackend("http://x", "m", nil)
	require.NoError(t, err)
	r := NewRegistry(local)
	r.Register(NewHostedBackend(stubCompletionClient{}, "m"))
	require.Equal(t, []string{BackendHosted, BackendLocal}, r.Names())

	b, err := r.Get(BackendLocal)
	require.NoError(t, err)
	require.Equal(t, BackendLocal, b.Name())

	_, err = r.Get("gemini")
	require.Error(t, err)
}
