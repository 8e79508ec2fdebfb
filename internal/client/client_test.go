package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	v1 "github.com/shenikar/incident_tracking_system/internal/handler/http/v1"
	"github.com/shenikar/incident_tracking_system/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, 5*time.Second)
}

func TestCreateIncident_SendsRequestAndDecodesResponse(t *testing.T) {
	incidentID := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/incidents", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req v1.CreateIncidentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Power outage", req.Type)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Incident{
			ID:     incidentID,
			Type:   req.Type,
			Status: models.StatusOpen,
		})
	})

	incident, err := client.CreateIncident(context.Background(), v1.CreateIncidentRequest{
		Type:              "Power outage",
		IncidentStartDate: "2024-03-10",
		Description:       "Datacenter lost power",
	})

	require.NoError(t, err)
	assert.Equal(t, incidentID, incident.ID)
	assert.Equal(t, models.StatusOpen, incident.Status)
}

func TestListIncidents_PassesStatusFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/incidents", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.Incident{
			{ID: uuid.New(), Type: "First", Status: models.StatusOpen},
			{ID: uuid.New(), Type: "Second", Status: models.StatusOpen},
		})
	})

	incidents, err := client.ListIncidents(context.Background(), "open")

	require.NoError(t, err)
	assert.Len(t, incidents, 2)
}

func TestCloseIncident_EmptyBodyWhenNoEndDate(t *testing.T) {
	incidentID := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/incidents/"+incidentID.String()+"/close", r.URL.Path)

		var buf [1]byte
		n, _ := r.Body.Read(buf[:])
		assert.Zero(t, n, "expected empty request body")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Incident{ID: incidentID, Status: models.StatusClosed})
	})

	incident, err := client.CloseIncident(context.Background(), incidentID, "")

	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, incident.Status)
}

func TestAPIError_DecodedFromErrorBody(t *testing.T) {
	incidentID := uuid.New()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(v1.ErrorResponse{Message: "Incident not found"})
	})

	incident, err := client.GetIncident(context.Background(), incidentID)

	require.Error(t, err)
	assert.Nil(t, incident)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Incident not found", apiErr.Error())
}

func TestAPIError_FallbackMessageForNonJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	})

	_, err := client.ListIncidents(context.Background(), "")

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "request failed with status 502", apiErr.Error())
}
