package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/exp/slog"

	"technoplus/internal/domain/record"
)

const userAgent = "Technoplus-Client/1.0"

// Client - HTTP-реализация record.Backend поверх API сервера.
type Client struct {
	client  *http.Client
	log     *slog.Logger
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &Client{
		client:  client,
		log:     log.With(slog.String("component", "remote_client")),
		baseURL: baseURL,
	}
}

type selectResponse struct {
	Rows []record.Record `json:"rows"`
}

type insertRequest struct {
	Key  string          `json:"key,omitempty"`
	Data json.RawMessage `json:"data"`
}

type updateRequest struct {
	Data json.RawMessage `json:"data"`
}

type decrementRequest struct {
	Field  string  `json:"field"`
	Amount float64 `json:"amount"`
	Key    string  `json:"key,omitempty"`
}

// errorResponse - тело ошибки в формате huma (RFC 9457)
type errorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Ping проверяет доступность сервера
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return err
	}
	return c.parseResponse(resp, nil)
}

func (c *Client) Select(ctx context.Context, collection string, q record.Query) ([]record.Record, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, rowsPath(collection)+"/select", q)
	if err != nil {
		return nil, err
	}

	var out selectResponse
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	if out.Rows == nil {
		out.Rows = []record.Record{}
	}

	return out.Rows, nil
}

func (c *Client) Insert(ctx context.Context, collection, key string, data json.RawMessage) (record.Record, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, rowsPath(collection), insertRequest{Key: key, Data: data})
	if err != nil {
		return record.Record{}, err
	}

	var rec record.Record
	if err := c.parseResponse(resp, &rec); err != nil {
		return record.Record{}, err
	}

	return rec, nil
}

func (c *Client) Update(ctx context.Context, collection, id string, patch json.RawMessage) (record.Record, error) {
	resp, err := c.doRequest(ctx, http.MethodPatch, rowsPath(collection)+"/"+url.PathEscape(id), updateRequest{Data: patch})
	if err != nil {
		return record.Record{}, err
	}

	var rec record.Record
	if err := c.parseResponse(resp, &rec); err != nil {
		return record.Record{}, err
	}

	return rec, nil
}

func (c *Client) Decrement(ctx context.Context, collection, id, field string, amount float64, key string) (record.Record, error) {
	body := decrementRequest{Field: field, Amount: amount, Key: key}
	resp, err := c.doRequest(ctx, http.MethodPost, rowsPath(collection)+"/"+url.PathEscape(id)+"/decrement", body)
	if err != nil {
		return record.Record{}, err
	}

	var rec record.Record
	if err := c.parseResponse(resp, &rec); err != nil {
		return record.Record{}, err
	}

	return rec, nil
}

func rowsPath(collection string) string {
	return "/api/v1/rows/" + url.PathEscape(collection)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", record.ErrUnavailable, err)
	}

	return resp, nil
}

// parseResponse разбирает ответ. Ошибки сети и 5xx считаются временными,
// остальные 4xx означают, что сервер отклонил запрос.
func (c *Client) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: ошибка чтения ответа: %v", record.ErrUnavailable, err)
	}

	c.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, body)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("%w: ошибка парсинга ответа: %v", record.ErrUnavailable, err)
		}
	}

	return nil
}

func statusError(status int, body []byte) error {
	msg := http.StatusText(status)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
		msg = errResp.Detail
	}

	switch {
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: статус %d: %s", record.ErrUnavailable, status, msg)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %w: %s", record.ErrRejected, record.ErrNotFound, msg)
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return fmt.Errorf("%w: %w: %s", record.ErrRejected, record.ErrInvalidData, msg)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: статус %d: %s", record.ErrUnavailable, status, msg)
	default:
		return fmt.Errorf("%w: статус %d: %s", record.ErrRejected, status, msg)
	}
}
