// Пакет client тонкий HTTP клиент REST API items.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Osdague92/fullstack-docker/domain"
)

const defaultTimeout = 10 * time.Second

// APIError ответ сервера с кодом не 2xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("items api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("items api: status %d: %s", e.StatusCode, e.Message)
}

// Is позволяет проверять 404 через errors.Is(err, domain.ErrNotFound).
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrBadInput:
		return e.StatusCode == http.StatusBadRequest
	case domain.ErrInternal:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// Client обращается к ресурсу items по базовому URL вида
// http://host:port/api/items.
type Client struct {
	baseURL string
	http    *http.Client
}

// New создаёт клиента. hc может быть nil.
func New(baseURL string, hc *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("client: base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("client: bad base URL: %w", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, http: hc}, nil
}

// Items возвращает все объекты.
func (c *Client) Items(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if err := c.do(ctx, http.MethodGet, "", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

// Item возвращает объект по id.
func (c *Client) Item(ctx context.Context, id string) (domain.Item, error) {
	var it domain.Item
	return it, c.do(ctx, http.MethodGet, "/"+url.PathEscape(id), nil, &it)
}

// CreateItem создаёт объект и возвращает его с новым id.
func (c *Client) CreateItem(ctx context.Context, in domain.ItemInput) (domain.Item, error) {
	var it domain.Item
	return it, c.do(ctx, http.MethodPost, "", in, &it)
}

// ReplaceItem перезаписывает объект, возвращает сообщение сервера
// (domain.MsgItemUpdated или domain.MsgItemNoChange).
func (c *Client) ReplaceItem(ctx context.Context, id string, in domain.ItemInput) (string, error) {
	var msg domain.Message
	return msg.Message, c.do(ctx, http.MethodPut, "/"+url.PathEscape(id), in, &msg)
}

// DeleteItem удаляет объект.
func (c *Client) DeleteItem(ctx context.Context, id string) (string, error) {
	var msg domain.Message
	return msg.Message, c.do(ctx, http.MethodDelete, "/"+url.PathEscape(id), nil, &msg)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("client: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, req.URL.Path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&eb) == nil {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
