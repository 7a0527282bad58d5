// Package controlplane is the HTTP client for the stream link control plane.
//
// Every method returns a mo.Result. Transport failures, unreadable bodies
// and remote "success": false answers all become the Err variant, and the
// error text is safe to show to a chat user as-is. Each call is a single
// attempt; nothing is retried here.
package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"github.com/edgestream/linkbot/pkg/logger"
)

const maxResponseSize = 4 << 20

// ErrUnreachable is the Err value for any failure that is not a reply from
// the control plane itself.
var ErrUnreachable = errors.New("could not reach the control plane")

// RemoteError carries the explanation the control plane gave for a failed
// operation.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "unknown error"
	}
	return e.Message
}

type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the control plane at baseURL. A nil
// httpClient means http.DefaultClient semantics: no timeout besides the
// caller's context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type startRequest struct {
	Link        string            `json:"link"`
	ProfileID   mo.Option[string] `json:"profile_id"`
	AllProfiles bool              `json:"all_profiles"`
}

// stopRequest sends only the keys the caller supplied.
type stopRequest struct {
	Link      mo.Option[string] `json:"link,omitzero"`
	ProfileID mo.Option[string] `json:"profile_id,omitzero"`
}

type addLinkRequest struct {
	URL  string            `json:"url"`
	Name mo.Option[string] `json:"name"`
}

type linkRequest struct {
	Link string `json:"link"`
}

type intervalRequest struct {
	Minutes string `json:"minutes"`
}

type openRequest struct {
	Link      string `json:"link"`
	ProfileID string `json:"profile_id"`
}

func (c *Client) Status(ctx context.Context) mo.Result[Status] {
	return call[Status](ctx, c, "status", http.MethodGet, "/status", nil, nil)
}

func (c *Client) Links(ctx context.Context) mo.Result[[]Link] {
	res := call[linksPayload](ctx, c, "links", http.MethodGet, "/links", nil, nil)
	return mapResult(res, func(p linksPayload) []Link { return p.Links })
}

// StartLink starts link in one profile, or in every profile when profile is
// absent.
func (c *Client) StartLink(ctx context.Context, link string, profile mo.Option[string]) mo.Result[Ack] {
	body := startRequest{
		Link:        link,
		ProfileID:   profile,
		AllProfiles: profile.IsAbsent(),
	}
	return call[Ack](ctx, c, "start", http.MethodPost, "/start", nil, body)
}

// StopLink stops everything when link is absent, link in every profile when
// profile is absent, and link in one profile otherwise.
func (c *Client) StopLink(ctx context.Context, link, profile mo.Option[string]) mo.Result[Ack] {
	body := stopRequest{Link: link, ProfileID: profile}
	return call[Ack](ctx, c, "stop", http.MethodPost, "/stop", nil, body)
}

func (c *Client) AddLink(ctx context.Context, linkURL string, name mo.Option[string]) mo.Result[Ack] {
	body := addLinkRequest{URL: linkURL, Name: name}
	return call[Ack](ctx, c, "addlink", http.MethodPost, "/links", nil, body)
}

func (c *Client) RemoveLink(ctx context.Context, link string) mo.Result[Ack] {
	return call[Ack](ctx, c, "removelink", http.MethodDelete, "/links", nil, linkRequest{Link: link})
}

// SetCheckInterval forwards minutes untouched; the control plane owns its
// validation.
func (c *Client) SetCheckInterval(ctx context.Context, minutes string) mo.Result[Ack] {
	return call[Ack](ctx, c, "setinterval", http.MethodPut, "/interval", nil, intervalRequest{Minutes: minutes})
}

func (c *Client) Restart(ctx context.Context) mo.Result[Ack] {
	return call[Ack](ctx, c, "restart", http.MethodPost, "/restart", nil, nil)
}

func (c *Client) Reposition(ctx context.Context) mo.Result[Ack] {
	return call[Ack](ctx, c, "reposition", http.MethodPost, "/reposition", nil, nil)
}

func (c *Client) Profiles(ctx context.Context) mo.Result[[]Profile] {
	res := call[profilesPayload](ctx, c, "profiles", http.MethodGet, "/profiles", nil, nil)
	return mapResult(res, func(p profilesPayload) []Profile { return p.Profiles })
}

func (c *Client) Logs(ctx context.Context, lines int) mo.Result[[]string] {
	query := url.Values{"lines": []string{strconv.Itoa(lines)}}
	res := call[logsPayload](ctx, c, "logs", http.MethodGet, "/logs", query, nil)
	return mapResult(res, func(p logsPayload) []string { return p.Logs })
}

func (c *Client) OpenLink(ctx context.Context, link, profile string) mo.Result[Ack] {
	body := openRequest{Link: link, ProfileID: profile}
	return call[Ack](ctx, c, "open", http.MethodPost, "/open", nil, body)
}

func mapResult[T, U any](r mo.Result[T], f func(T) U) mo.Result[U] {
	v, err := r.Get()
	if err != nil {
		return mo.Err[U](err)
	}
	return mo.Ok(f(v))
}

func call[T any](ctx context.Context, c *Client, op, method, path string, query url.Values, body any) mo.Result[T] {
	raw, status, err := c.do(ctx, method, path, query, body)
	if err != nil {
		logger.ErrorCF("controlplane", "Request failed", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
		return mo.Err[T](ErrUnreachable)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.ErrorCF("controlplane", "Unreadable response", map[string]any{
			"op":     op,
			"status": status,
			"error":  err.Error(),
		})
		return mo.Err[T](ErrUnreachable)
	}

	if status < 200 || status > 299 {
		if env.Message == "" {
			logger.ErrorCF("controlplane", "Unexpected status", map[string]any{
				"op":     op,
				"status": status,
			})
			return mo.Err[T](ErrUnreachable)
		}
		return mo.Err[T](&RemoteError{Op: op, Message: env.Message})
	}

	if !env.Success {
		logger.DebugCF("controlplane", "Operation rejected", map[string]any{
			"op":      op,
			"message": env.Message,
		})
		return mo.Err[T](&RemoteError{Op: op, Message: env.Message})
	}

	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.ErrorCF("controlplane", "Unexpected payload", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
		return mo.Err[T](ErrUnreachable)
	}

	return mo.Ok(payload)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, int, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return data, resp.StatusCode, nil
}
