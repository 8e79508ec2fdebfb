package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shenikar/incident_tracking_system/internal/models"
	"github.com/shenikar/incident_tracking_system/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestHandler создает новый экземпляр Handler с мокированным сервисом
func newTestHandler(t *testing.T) (*Handler, *mocks.MockIncidentService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockIncidentService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	handler := NewHandler(mockService, logger)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api")
	handler.RegisterRoutes(api)

	return handler, mockService, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	reqBody := CreateIncidentRequest{
		Type:              "Power outage",
		IncidentStartDate: "2024-03-10",
		Description:       "Datacenter lost power",
		Remarks:           "Generator failed to start",
	}

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) error {
			// Симулируем работу сервиса и БД: ID, статус, таймстемпы
			inc.ID = incidentID
			inc.Status = models.StatusOpen
			inc.CreatedAt = time.Now()
			inc.UpdatedAt = inc.CreatedAt
			return nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, reqBody.Type, resp.Type)
	assert.Equal(t, string(models.StatusOpen), resp.Status)
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/incidents", bytes.NewBufferString(`{"type": "test"`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIncident_MissingRequiredFields(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{ // Отсутствуют type и incidentStartDate
		Description: "Description only",
	}

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "type, incidentStartDate, and description are required")
}

func TestCreateIncident_InvalidStartDate(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{
		Type:              "Outage",
		IncidentStartDate: "10.03.2024", // Неподдерживаемый формат
		Description:       "desc",
	}

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "incidentStartDate")
}

func TestCreateIncident_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{
		Type:              "Outage",
		IncidentStartDate: "2024-03-10",
		Description:       "desc",
	}
	serviceError := errors.New("connection refused")

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		Return(serviceError).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Server error")
}

func TestListIncidents_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	expectedIncidents := []*models.Incident{
		{ID: uuid.New(), Type: "Incident 1", Status: models.StatusOpen},
		{ID: uuid.New(), Type: "Incident 2", Status: models.StatusClosed},
	}

	mockService.EXPECT().ListIncidents(gomock.Any(), models.ListFilter{}).Return(expectedIncidents, nil).Times(1)

	w := makeRequest(router, "GET", "/api/incidents", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, expectedIncidents[0].Type, resp[0].Type)
}

func TestListIncidents_WithStatusFilter(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	status := models.StatusOpen
	expectedIncidents := []*models.Incident{
		{ID: uuid.New(), Type: "Open incident", Status: models.StatusOpen},
	}

	mockService.EXPECT().
		ListIncidents(gomock.Any(), models.ListFilter{Status: &status}).
		Return(expectedIncidents, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/incidents?status=open", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Len(t, resp, 1)
}

func TestListIncidents_InvalidStatusFilter(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ListIncidents(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/incidents?status=pending", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "status must be 'open' or 'closed'")
}

func TestListIncidents_Empty(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	// Пустой результат сериализуется как [], а не null
	mockService.EXPECT().ListIncidents(gomock.Any(), models.ListFilter{}).Return(nil, nil).Times(1)

	w := makeRequest(router, "GET", "/api/incidents", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestListIncidents_ServiceError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	serviceError := errors.New("db connection lost")

	mockService.EXPECT().ListIncidents(gomock.Any(), models.ListFilter{}).Return(nil, serviceError).Times(1)

	w := makeRequest(router, "GET", "/api/incidents", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Server error")
}

func TestGetIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	expectedIncident := &models.Incident{
		ID:          incidentID,
		Type:        "Retrieved Incident",
		StartDate:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: "desc",
		Status:      models.StatusOpen,
	}

	mockService.EXPECT().GetIncident(gomock.Any(), incidentID).Return(expectedIncident, nil).Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/incidents/%s", incidentID.String()), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, expectedIncident.Type, resp.Type)
}

func TestGetIncident_InvalidID(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "GET", "/api/incidents/invalid-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		GetIncident(gomock.Any(), incidentID).
		Return(nil, fmt.Errorf("service: could not get incident: %w", models.ErrIncidentNotFound)).
		Times(1)

	w := makeRequest(router, "GET", fmt.Sprintf("/api/incidents/%s", incidentID.String()), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Incident not found")
}

func TestUpdateIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	newType := "Updated Type"
	newDescription := "Updated Description"
	reqBody := UpdateIncidentRequest{
		Type:        &newType,
		Description: &newDescription,
	}
	updatedIncident := &models.Incident{
		ID:          incidentID,
		Type:        newType,
		StartDate:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Description: newDescription,
		Status:      models.StatusOpen,
	}

	mockService.EXPECT().
		UpdateIncident(gomock.Any(), incidentID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, update models.IncidentUpdate) (*models.Incident, error) {
			require.NotNil(t, update.Type)
			assert.Equal(t, newType, *update.Type)
			// Непереданные поля не попадают в частичное обновление
			assert.Nil(t, update.StartDate)
			assert.Nil(t, update.Status)
			return updatedIncident, nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PUT", fmt.Sprintf("/api/incidents/%s", incidentID.String()), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, newType, resp.Type)
}

func TestUpdateIncident_InvalidID(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	newType := "Updated Type"
	reqBody := UpdateIncidentRequest{Type: &newType}

	mockService.EXPECT().UpdateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PUT", "/api/incidents/invalid-uuid", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestUpdateIncident_NotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	newType := "Updated Type"
	reqBody := UpdateIncidentRequest{Type: &newType}

	mockService.EXPECT().
		UpdateIncident(gomock.Any(), incidentID, gomock.Any()).
		Return(nil, fmt.Errorf("service: incident %s not found for update: %w", incidentID, models.ErrIncidentNotFound)).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PUT", fmt.Sprintf("/api/incidents/%s", incidentID.String()), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Incident not found")
}

func TestUpdateIncident_RejectsReopen(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	newStatus := "open"
	reqBody := UpdateIncidentRequest{Status: &newStatus}

	mockService.EXPECT().
		UpdateIncident(gomock.Any(), incidentID, gomock.Any()).
		Return(nil, models.NewValidationError("status", "cannot reopen a closed incident")).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PUT", fmt.Sprintf("/api/incidents/%s", incidentID.String()), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot reopen")
}

func TestUpdateIncident_InvalidStatusValue(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	badStatus := "pending"
	reqBody := UpdateIncidentRequest{Status: &badStatus}

	mockService.EXPECT().UpdateIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PUT", fmt.Sprintf("/api/incidents/%s", incidentID.String()), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "oneof")
}

func TestCloseIncident_Success_EmptyBody(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	endDate := time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC)
	closedIncident := &models.Incident{
		ID:        incidentID,
		Type:      "Outage",
		StartDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   &endDate,
		Status:    models.StatusClosed,
	}

	// PATCH без тела: сервис получает nil и подставляет текущий момент
	mockService.EXPECT().
		CloseIncident(gomock.Any(), incidentID, nil).
		Return(closedIncident, nil).
		Times(1)

	w := makeRequest(router, "PATCH", fmt.Sprintf("/api/incidents/%s/close", incidentID.String()), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusClosed), resp.Status)
	assert.NotNil(t, resp.IncidentEndDate)
}

func TestCloseIncident_Success_WithEndDate(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()
	endDate := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	closedIncident := &models.Incident{
		ID:      incidentID,
		EndDate: &endDate,
		Status:  models.StatusClosed,
	}

	mockService.EXPECT().
		CloseIncident(gomock.Any(), incidentID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, end *time.Time) (*models.Incident, error) {
			require.NotNil(t, end)
			assert.Equal(t, endDate, *end)
			return closedIncident, nil
		}).Times(1)

	bodyBytes, _ := json.Marshal(CloseIncidentRequest{IncidentEndDate: "2024-03-12"})
	w := makeRequest(router, "PATCH", fmt.Sprintf("/api/incidents/%s/close", incidentID.String()), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCloseIncident_InvalidEndDate(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().CloseIncident(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	bodyBytes, _ := json.Marshal(CloseIncidentRequest{IncidentEndDate: "12.03.2024"})
	w := makeRequest(router, "PATCH", fmt.Sprintf("/api/incidents/%s/close", incidentID.String()), bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incidentEndDate")
}

func TestCloseIncident_NotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	incidentID := uuid.New()

	mockService.EXPECT().
		CloseIncident(gomock.Any(), incidentID, nil).
		Return(nil, fmt.Errorf("service: incident %s not found for close: %w", incidentID, models.ErrIncidentNotFound)).
		Times(1)

	w := makeRequest(router, "PATCH", fmt.Sprintf("/api/incidents/%s/close", incidentID.String()), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Incident not found")
}

func TestHealthCheck_Success(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
