package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	v1 "github.com/shenikar/incident_tracking_system/internal/handler/http/v1"
	"github.com/shenikar/incident_tracking_system/internal/models"
)

// Client - типизированный клиент REST API инцидентов
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError - ошибка, возвращенная сервером в теле ответа
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	return e.Message
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// do выполняет запрос и декодирует ответ; не-2xx статус превращается в APIError
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(payload)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with status %d", resp.StatusCode),
		}
		// Тело ошибки может отсутствовать или быть не-JSON; тогда остается общее сообщение
		var errBody v1.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil && errBody.Message != "" {
			apiErr.Message = errBody.Message
			apiErr.Details = errBody.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// CreateIncident создает новый инцидент
func (c *Client) CreateIncident(ctx context.Context, req v1.CreateIncidentRequest) (*models.Incident, error) {
	incident := &models.Incident{}
	if err := c.do(ctx, http.MethodPost, "/incidents", req, incident); err != nil {
		return nil, err
	}
	return incident, nil
}

// ListIncidents возвращает инциденты; status пустой - без фильтра
func (c *Client) ListIncidents(ctx context.Context, status string) ([]models.Incident, error) {
	path := "/incidents"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	incidents := []models.Incident{}
	if err := c.do(ctx, http.MethodGet, path, nil, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

// GetIncident возвращает инцидент по id
func (c *Client) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	incident := &models.Incident{}
	if err := c.do(ctx, http.MethodGet, "/incidents/"+id.String(), nil, incident); err != nil {
		return nil, err
	}
	return incident, nil
}

// UpdateIncident применяет частичное обновление
func (c *Client) UpdateIncident(ctx context.Context, id uuid.UUID, req v1.UpdateIncidentRequest) (*models.Incident, error) {
	incident := &models.Incident{}
	if err := c.do(ctx, http.MethodPut, "/incidents/"+id.String(), req, incident); err != nil {
		return nil, err
	}
	return incident, nil
}

// CloseIncident закрывает инцидент; при пустом endDate сервер подставит текущий момент
func (c *Client) CloseIncident(ctx context.Context, id uuid.UUID, endDate string) (*models.Incident, error) {
	var body any
	if endDate != "" {
		body = v1.CloseIncidentRequest{IncidentEndDate: endDate}
	}
	incident := &models.Incident{}
	if err := c.do(ctx, http.MethodPatch, "/incidents/"+id.String()+"/close", body, incident); err != nil {
		return nil, err
	}
	return incident, nil
}
