// Package rest talks to a PostgREST compatible endpoint, the REST face of a
// hosted Postgres such as Supabase.
package rest

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

	"github.com/timada-org/taskflow/internal/store"
	"github.com/timada-org/taskflow/pkg/todo"
)

const restPath = "/rest/v1/"

type Options struct {
	URL     string
	Key     string
	Timeout time.Duration
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

type Store struct {
	endpoint string
	key      string
	http     *http.Client
}

func New(options Options) (*Store, error) {
	if options.URL == "" || options.Key == "" {
		return nil, store.ErrNotConfigured
	}

	u, err := url.Parse(options.URL)
	if err != nil {
		return nil, fmt.Errorf("rest: parse url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("rest: unsupported scheme %q", u.Scheme)
	}

	client := options.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: options.Timeout}
	}

	return &Store{
		endpoint: strings.TrimRight(u.String(), "/") + restPath + todo.Table,
		key:      options.Key,
		http:     client,
	}, nil
}

// row is what gets inserted: the id is left to the database.
type row struct {
	Title      string    `json:"title"`
	Completed  bool      `json:"completed"`
	OwnerEmail string    `json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (s *Store) Select(ctx context.Context, q store.Query) ([]todo.Todo, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	params := encode(q)
	params.Set("select", "*")

	var todos []todo.Todo
	if err := s.do(ctx, "select", http.MethodGet, params, nil, &todos); err != nil {
		return nil, err
	}

	if todos == nil {
		todos = []todo.Todo{}
	}

	return todos, nil
}

func (s *Store) Insert(ctx context.Context, rows ...todo.Todo) ([]todo.Todo, error) {
	if len(rows) == 0 {
		return []todo.Todo{}, nil
	}

	body := make([]row, 0, len(rows))
	for _, r := range rows {
		body = append(body, row{
			Title:      r.Title,
			Completed:  r.Completed,
			OwnerEmail: r.OwnerEmail,
			CreatedAt:  r.CreatedAt.UTC(),
			UpdatedAt:  r.UpdatedAt.UTC(),
		})
	}

	var todos []todo.Todo
	if err := s.do(ctx, "insert", http.MethodPost, url.Values{"select": {"*"}}, body, &todos); err != nil {
		return nil, err
	}

	return todos, nil
}

func (s *Store) Update(ctx context.Context, q store.Query, patch todo.Patch) error {
	if err := q.ValidateMutation(); err != nil {
		return err
	}

	if patch.IsEmpty() {
		return nil
	}

	return s.do(ctx, "update", http.MethodPatch, encode(q), patch.Columns(), nil)
}

func (s *Store) Delete(ctx context.Context, q store.Query) error {
	if err := q.ValidateMutation(); err != nil {
		return err
	}

	return s.do(ctx, "delete", http.MethodDelete, encode(q), nil, nil)
}

func (s *Store) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

func encode(q store.Query) url.Values {
	params := url.Values{}

	for _, f := range q.Filters {
		params.Add(f.Column, "eq."+fmt.Sprint(f.Value))
	}

	if q.Order != nil {
		params.Set("order", q.Order.Column+"."+q.Order.Direction.String())
	}

	return params
}

func (s *Store) do(ctx context.Context, op, method string, params url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &store.Error{Op: op, Message: err.Error(), Err: err}
		}

		body = bytes.NewReader(b)
	}

	target := s.endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &store.Error{Op: op, Message: err.Error(), Err: err}
	}

	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if out != nil {
		req.Header.Set("Prefer", "return=representation")
	} else {
		req.Header.Set("Prefer", "return=minimal")
	}

	res, err := s.http.Do(req)
	if err != nil {
		return &store.Error{Op: op, Message: err.Error(), Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return &store.Error{Op: op, Message: err.Error(), Err: err}
	}

	if res.StatusCode >= http.StatusMultipleChoices {
		return responseError(op, res.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &store.Error{Op: op, Message: "unexpected response from database", Err: err}
	}

	return nil
}

func responseError(op string, status int, data []byte) error {
	statusErr := fmt.Errorf("http status %d", status)

	var body apiError
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(status)
		}

		return &store.Error{Op: op, Message: msg, Err: statusErr}
	}

	if body.Code != "" {
		statusErr = fmt.Errorf("http status %d, code %s", status, body.Code)
	}

	return &store.Error{Op: op, Message: body.Message, Err: statusErr}
}
