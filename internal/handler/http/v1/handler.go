package v1

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/incident_tracking_system/internal/models"
	"github.com/shenikar/incident_tracking_system/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	incidentService service.IncidentService
	logger          *logrus.Logger
	validate        *validator.Validate
}

func NewHandler(incidentService service.IncidentService, logger *logrus.Logger) *Handler {
	return &Handler{
		incidentService: incidentService,
		logger:          logger,
		validate:        validator.New(),
	}
}

// respondServiceError переводит ошибку сервиса в HTTP-статус и единую форму тела
func (h *Handler) respondServiceError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, models.ErrIncidentNotFound):
		log.WithError(err).Warn("Incident not found")
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Incident not found"})
	case models.IsValidation(err):
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	default:
		log.WithError(err).Error("Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Server error", Error: err.Error()})
	}
}

// @Summary Create a new incident
// @Description Create a new incident record. Status is always 'open' at creation.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid request body or validation error"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	log := h.logger.WithField("method", "createIncident")

	var input CreateIncidentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Error: err.Error()})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "type, incidentStartDate, and description are required", Error: err.Error()})
		return
	}

	model, err := CreateRequestToModel(input)
	if err != nil {
		log.WithError(err).Warn("Failed to parse incident dates")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	if err := h.incidentService.CreateIncident(c.Request.Context(), model); err != nil {
		h.respondServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(model))
}

// @Summary Get a list of incidents
// @Description List incidents newest-first, optionally filtered by status.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param status query string false "Filter by status" Enums(open, closed)
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid status value"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	log := h.logger.WithField("method", "listIncidents")

	var filter models.ListFilter
	if raw, ok := c.GetQuery("status"); ok && raw != "" {
		status := models.Status(raw)
		if !status.IsValid() {
			log.WithField("status", raw).Warn("Invalid status filter")
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "status must be 'open' or 'closed'"})
			return
		}
		filter.Status = &status
	}

	incidents, err := h.incidentService.ListIncidents(c.Request.Context(), filter)
	if err != nil {
		h.respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid incident ID"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Update an existing incident
// @Description Apply a partial update to an incident. Omitted fields are left unchanged; id and timestamps are immutable. Reopening a closed incident is rejected.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param incident body UpdateIncidentRequest true "Incident update request"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid incident ID or request body"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents/{id} [put]
func (h *Handler) updateIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "updateIncident").WithField("id", id)

	var input UpdateIncidentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Error: err.Error()})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	update, err := UpdateRequestToPartial(input)
	if err != nil {
		log.WithError(err).Warn("Failed to parse incident dates")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	incident, err := h.incidentService.UpdateIncident(c.Request.Context(), id, update)
	if err != nil {
		h.respondServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Close an incident
// @Description Set status to 'closed' and the end date to the supplied value, or to now when the body is empty.
// @Tags Incidents
// @Accept json
// @Produce json
// @Param id path string true "Incident ID"
// @Param close body CloseIncidentRequest false "Optional end date"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid incident ID or end date"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents/{id}/close [patch]
func (h *Handler) closeIncident(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "closeIncident").WithField("id", id)

	// Тело запроса необязательно: PATCH без тела закрывает инцидент "сейчас"
	var input CloseIncidentRequest
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Error: err.Error()})
		return
	}

	var endDate *time.Time
	if input.IncidentEndDate != "" {
		parsed, err := parseDate(input.IncidentEndDate)
		if err != nil {
			log.WithError(err).Warn("Failed to parse end date")
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid incidentEndDate", Error: err.Error()})
			return
		}
		endDate = &parsed
	}

	incident, err := h.incidentService.CloseIncident(c.Request.Context(), id, endDate)
	if err != nil {
		h.respondServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
