// Package client is a traced client for a recall server.  Every operation
// opens its own span, and the underlying transport propagates trace context
// so server-side spans join the same trace.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recall/domain"
	"recall/tracing"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Client struct {
	base   string
	http   *http.Client
	tracer trace.Tracer
}

func New(baseUrl string) *Client {
	return &Client{
		base: strings.TrimSuffix(baseUrl, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		tracer: otel.Tracer("recall/client"),
	}
}

type addRequest struct {
	UserID   string          `json:"user_id"`
	Content  string          `json:"content"`
	Metadata domain.Metadata `json:"metadata,omitempty"`
}

func (c *Client) Add(ctx context.Context, userID, content string, meta domain.Metadata) (*domain.Memory, error) {
	ctx, span := c.tracer.Start(ctx, "memory.add",
		trace.WithAttributes(tracing.HashedString("user.id", userID)),
	)
	defer span.End()

	mem := &domain.Memory{}
	if err := c.do(ctx, http.MethodPost, "/v1/memories", addRequest{userID, content, meta}, mem); err != nil {
		return nil, tracing.Error(span, err)
	}

	span.SetAttributes(attribute.String("memory.id", mem.ID))
	return mem, nil
}

type searchRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
}

func (c *Client) Search(ctx context.Context, userID, query string, limit int) ([]domain.SearchResult, error) {
	ctx, span := c.tracer.Start(ctx, "memory.search",
		trace.WithAttributes(tracing.HashedString("user.id", userID)),
	)
	defer span.End()

	results := []domain.SearchResult{}
	if err := c.do(ctx, http.MethodPost, "/v1/search", searchRequest{userID, query, limit}, &results); err != nil {
		return nil, tracing.Error(span, err)
	}

	span.SetAttributes(attribute.Int("memory.results", len(results)))
	return results, nil
}

func (c *Client) GetAll(ctx context.Context, userID string) ([]*domain.Memory, error) {
	ctx, span := c.tracer.Start(ctx, "memory.get_all",
		trace.WithAttributes(tracing.HashedString("user.id", userID)),
	)
	defer span.End()

	memories := []*domain.Memory{}
	if err := c.do(ctx, http.MethodGet, "/v1/memories?user_id="+url.QueryEscape(userID), nil, &memories); err != nil {
		return nil, tracing.Error(span, err)
	}

	span.SetAttributes(attribute.Int("memory.results", len(memories)))
	return memories, nil
}

func (c *Client) Get(ctx context.Context, id string) (*domain.Memory, error) {
	ctx, span := c.tracer.Start(ctx, "memory.get",
		trace.WithAttributes(attribute.String("memory.id", id)),
	)
	defer span.End()

	mem := &domain.Memory{}
	if err := c.do(ctx, http.MethodGet, "/v1/memories/"+id, nil, mem); err != nil {
		return nil, tracing.Error(span, err)
	}

	return mem, nil
}

type updateRequest struct {
	Content  string          `json:"content"`
	Metadata domain.Metadata `json:"metadata,omitempty"`
}

func (c *Client) Update(ctx context.Context, id, content string, meta domain.Metadata) (*domain.Memory, error) {
	ctx, span := c.tracer.Start(ctx, "memory.update",
		trace.WithAttributes(attribute.String("memory.id", id)),
	)
	defer span.End()

	mem := &domain.Memory{}
	if err := c.do(ctx, http.MethodPut, "/v1/memories/"+id, updateRequest{content, meta}, mem); err != nil {
		return nil, tracing.Error(span, err)
	}

	return mem, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "memory.delete",
		trace.WithAttributes(attribute.String("memory.id", id)),
	)
	defer span.End()

	if err := c.do(ctx, http.MethodDelete, "/v1/memories/"+id, nil, nil); err != nil {
		return tracing.Error(span, err)
	}

	return nil
}

func (c *Client) History(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	ctx, span := c.tracer.Start(ctx, "memory.history",
		trace.WithAttributes(attribute.String("memory.id", id)),
	)
	defer span.End()

	entries := []domain.HistoryEntry{}
	if err := c.do(ctx, http.MethodGet, "/v1/memories/"+id+"/history", nil, &entries); err != nil {
		return nil, tracing.Error(span, err)
	}

	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))

		switch res.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", domain.ErrNotFound, strings.TrimSpace(string(msg)))
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", domain.ErrInvalid, strings.TrimSpace(string(msg)))
		default:
			return fmt.Errorf("%s %s returned %d: %s", method, path, res.StatusCode, strings.TrimSpace(string(msg)))
		}
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(out)
}
