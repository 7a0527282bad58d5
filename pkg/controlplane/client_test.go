package controlplane

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
	RawLen int
}

type fakeControlPlane struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func (f *fakeControlPlane) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	req := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		RawLen: len(raw),
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &req.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	status, response := f.status, f.response
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(response))
}

func (f *fakeControlPlane) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "expected a request to the control plane")
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, status int, response string) (*Client, *fakeControlPlane) {
	t.Helper()
	fake := &fakeControlPlane{status: status, response: response}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", server.Client()), fake
}

func TestClient_RequestShapes(t *testing.T) {
	ctx := context.Background()
	ok := `{"success": true, "message": "done"}`

	tests := []struct {
		name       string
		call       func(c *Client) mo.Result[Ack]
		wantMethod string
		wantPath   string
		wantBody   map[string]any
	}{
		{
			name:       "start on all profiles",
			call:       func(c *Client) mo.Result[Ack] { return c.StartLink(ctx, "3", mo.None[string]()) },
			wantMethod: http.MethodPost,
			wantPath:   "/start",
			wantBody:   map[string]any{"link": "3", "profile_id": nil, "all_profiles": true},
		},
		{
			name:       "start on one profile",
			call:       func(c *Client) mo.Result[Ack] { return c.StartLink(ctx, "3", mo.Some("1")) },
			wantMethod: http.MethodPost,
			wantPath:   "/start",
			wantBody:   map[string]any{"link": "3", "profile_id": "1", "all_profiles": false},
		},
		{
			name:       "stop everything",
			call:       func(c *Client) mo.Result[Ack] { return c.StopLink(ctx, mo.None[string](), mo.None[string]()) },
			wantMethod: http.MethodPost,
			wantPath:   "/stop",
			wantBody:   map[string]any{},
		},
		{
			name:       "stop link everywhere",
			call:       func(c *Client) mo.Result[Ack] { return c.StopLink(ctx, mo.Some("2"), mo.None[string]()) },
			wantMethod: http.MethodPost,
			wantPath:   "/stop",
			wantBody:   map[string]any{"link": "2"},
		},
		{
			name:       "stop link in profile",
			call:       func(c *Client) mo.Result[Ack] { return c.StopLink(ctx, mo.Some("2"), mo.Some("0")) },
			wantMethod: http.MethodPost,
			wantPath:   "/stop",
			wantBody:   map[string]any{"link": "2", "profile_id": "0"},
		},
		{
			name: "add link with name",
			call: func(c *Client) mo.Result[Ack] {
				return c.AddLink(ctx, "https://example.com/live", mo.Some("MyStream"))
			},
			wantMethod: http.MethodPost,
			wantPath:   "/links",
			wantBody:   map[string]any{"url": "https://example.com/live", "name": "MyStream"},
		},
		{
			name: "add link without name",
			call: func(c *Client) mo.Result[Ack] {
				return c.AddLink(ctx, "https://example.com/live", mo.None[string]())
			},
			wantMethod: http.MethodPost,
			wantPath:   "/links",
			wantBody:   map[string]any{"url": "https://example.com/live", "name": nil},
		},
		{
			name:       "remove link",
			call:       func(c *Client) mo.Result[Ack] { return c.RemoveLink(ctx, "https://example.com/live") },
			wantMethod: http.MethodDelete,
			wantPath:   "/links",
			wantBody:   map[string]any{"link": "https://example.com/live"},
		},
		{
			name:       "set interval forwards raw token",
			call:       func(c *Client) mo.Result[Ack] { return c.SetCheckInterval(ctx, "five") },
			wantMethod: http.MethodPut,
			wantPath:   "/interval",
			wantBody:   map[string]any{"minutes": "five"},
		},
		{
			name:       "restart",
			call:       func(c *Client) mo.Result[Ack] { return c.Restart(ctx) },
			wantMethod: http.MethodPost,
			wantPath:   "/restart",
		},
		{
			name:       "reposition",
			call:       func(c *Client) mo.Result[Ack] { return c.Reposition(ctx) },
			wantMethod: http.MethodPost,
			wantPath:   "/reposition",
		},
		{
			name:       "open",
			call:       func(c *Client) mo.Result[Ack] { return c.OpenLink(ctx, "1", "2") },
			wantMethod: http.MethodPost,
			wantPath:   "/open",
			wantBody:   map[string]any{"link": "1", "profile_id": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t, http.StatusOK, ok)

			res := tt.call(client)
			require.True(t, res.IsOk(), "unexpected error: %v", res.Error())
			assert.Equal(t, "done", res.MustGet().Message)

			req := fake.last(t)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantPath, req.Path)
			if tt.wantBody == nil {
				assert.Zero(t, req.RawLen, "expected no request body")
			} else {
				assert.Equal(t, tt.wantBody, req.Body)
			}
		})
	}
}

func TestClient_Status(t *testing.T) {
	client, fake := newTestClient(t, http.StatusOK, `{
		"success": true,
		"active_count": 1,
		"total_count": 4,
		"check_interval": 5,
		"active_links": [{"id": "2", "name": "Main", "url": "https://kick.com/main", "status": "active", "profile_id": 0, "profile_name": "Default"}],
		"last_status_check": 1718000000.5
	}`)

	res := client.Status(context.Background())
	require.True(t, res.IsOk())

	status := res.MustGet()
	assert.Equal(t, 1, status.ActiveCount)
	assert.Equal(t, 4, status.TotalCount)
	assert.Equal(t, 5, status.CheckInterval)
	require.Len(t, status.ActiveLinks, 1)
	assert.Equal(t, ActiveLink{ID: "2", Name: "Main", URL: "https://kick.com/main", ProfileID: "0", ProfileName: "Default"}, status.ActiveLinks[0])
	assert.InDelta(t, 1718000000.5, status.LastStatusCheck, 0.001)

	req := fake.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/status", req.Path)
}

func TestClient_Lists(t *testing.T) {
	ctx := context.Background()

	t.Run("links", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusOK, `{"success": true, "links": [{"id": 1, "name": "A", "url": "https://a", "status": "error"}]}`)
		res := client.Links(ctx)
		require.True(t, res.IsOk())
		assert.Equal(t, []Link{{ID: "1", Name: "A", URL: "https://a", Status: LinkError}}, res.MustGet())
	})

	t.Run("profiles", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusOK, `{"success": true, "profiles": [{"id": "0", "name": "Main", "path": "C:\\Edge\\Main"}]}`)
		res := client.Profiles(ctx)
		require.True(t, res.IsOk())
		assert.Equal(t, []Profile{{ID: "0", Name: "Main", Path: `C:\Edge\Main`}}, res.MustGet())
	})

	t.Run("logs", func(t *testing.T) {
		client, fake := newTestClient(t, http.StatusOK, `{"success": true, "logs": ["a", "b"]}`)
		res := client.Logs(ctx, 25)
		require.True(t, res.IsOk())
		assert.Equal(t, []string{"a", "b"}, res.MustGet())

		req := fake.last(t)
		assert.Equal(t, "/logs", req.Path)
		assert.Equal(t, "lines=25", req.Query)
	})
}

func TestClient_RemoteFailure(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"success": false, "message": "Link not found"}`)

	res := client.RemoveLink(context.Background(), "9")
	require.True(t, res.IsError())

	var remote *RemoteError
	require.ErrorAs(t, res.Error(), &remote)
	assert.Equal(t, "removelink", remote.Op)
	assert.Equal(t, "Link not found", res.Error().Error())
}

func TestClient_RemoteFailureWithoutMessage(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `{"success": false}`)

	res := client.Restart(context.Background())
	require.True(t, res.IsError())
	assert.Equal(t, "unknown error", res.Error().Error())
}

func TestClient_NonSuccessStatus(t *testing.T) {
	t.Run("with message", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusBadRequest, `{"success": false, "message": "Invalid value"}`)
		res := client.SetCheckInterval(context.Background(), "0")
		require.True(t, res.IsError())
		assert.Equal(t, "Invalid value", res.Error().Error())
	})

	t.Run("without message", func(t *testing.T) {
		client, _ := newTestClient(t, http.StatusInternalServerError, `{}`)
		res := client.Restart(context.Background())
		require.True(t, res.IsError())
		assert.ErrorIs(t, res.Error(), ErrUnreachable)
	})
}

func TestClient_MalformedResponse(t *testing.T) {
	client, _ := newTestClient(t, http.StatusOK, `<html>proxy error</html>`)

	res := client.Status(context.Background())
	require.True(t, res.IsError())
	assert.ErrorIs(t, res.Error(), ErrUnreachable)
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(baseURL, nil)
	ctx := context.Background()

	results := map[string]error{
		"status":      client.Status(ctx).Error(),
		"links":       client.Links(ctx).Error(),
		"start":       client.StartLink(ctx, "1", mo.None[string]()).Error(),
		"stop":        client.StopLink(ctx, mo.None[string](), mo.None[string]()).Error(),
		"addlink":     client.AddLink(ctx, "https://a", mo.None[string]()).Error(),
		"removelink":  client.RemoveLink(ctx, "1").Error(),
		"setinterval": client.SetCheckInterval(ctx, "5").Error(),
		"restart":     client.Restart(ctx).Error(),
		"reposition":  client.Reposition(ctx).Error(),
		"profiles":    client.Profiles(ctx).Error(),
		"logs":        client.Logs(ctx, 10).Error(),
		"open":        client.OpenLink(ctx, "1", "0").Error(),
	}

	for op, err := range results {
		require.Error(t, err, op)
		assert.ErrorIs(t, err, ErrUnreachable, op)
		assert.NotEmpty(t, err.Error(), op)
	}
}

func TestID_UnmarshalJSON(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`["a", 7, null]`), &ids))
	assert.Equal(t, []ID{"a", "7", ""}, ids)

	var bad ID
	assert.Error(t, json.Unmarshal([]byte(`{"x": 1}`), &bad))
}
