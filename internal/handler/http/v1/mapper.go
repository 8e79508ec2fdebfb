package v1

import (
	"fmt"
	"time"

	"github.com/shenikar/incident_tracking_system/internal/models"
)

const dateOnlyLayout = "2006-01-02"

// parseDate принимает дату формы ('2006-01-02') или полный RFC 3339 таймстемп
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateOnlyLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected '2006-01-02' or RFC 3339, got %q", value)
	}
	return t, nil
}

// CreateRequestToModel преобразует DTO создания в доменную модель
func CreateRequestToModel(dto CreateIncidentRequest) (*models.Incident, error) {
	startDate, err := parseDate(dto.IncidentStartDate)
	if err != nil {
		return nil, models.NewValidationError("incidentStartDate", err.Error())
	}

	incident := &models.Incident{
		Type:        dto.Type,
		StartDate:   startDate,
		Description: dto.Description,
		Remarks:     dto.Remarks,
	}

	if dto.IncidentEndDate != "" {
		endDate, err := parseDate(dto.IncidentEndDate)
		if err != nil {
			return nil, models.NewValidationError("incidentEndDate", err.Error())
		}
		incident.EndDate = &endDate
	}

	return incident, nil
}

// UpdateRequestToPartial преобразует DTO обновления в типизированное частичное обновление
func UpdateRequestToPartial(dto UpdateIncidentRequest) (models.IncidentUpdate, error) {
	update := models.IncidentUpdate{
		Type:        dto.Type,
		Description: dto.Description,
		Remarks:     dto.Remarks,
	}

	if dto.IncidentStartDate != nil {
		startDate, err := parseDate(*dto.IncidentStartDate)
		if err != nil {
			return models.IncidentUpdate{}, models.NewValidationError("incidentStartDate", err.Error())
		}
		update.StartDate = &startDate
	}
	if dto.IncidentEndDate != nil && *dto.IncidentEndDate != "" {
		endDate, err := parseDate(*dto.IncidentEndDate)
		if err != nil {
			return models.IncidentUpdate{}, models.NewValidationError("incidentEndDate", err.Error())
		}
		update.EndDate = &endDate
	}
	if dto.Status != nil {
		status := models.Status(*dto.Status)
		update.Status = &status
	}

	return update, nil
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:                model.ID,
		Type:              model.Type,
		IncidentStartDate: model.StartDate,
		IncidentEndDate:   model.EndDate,
		Description:       model.Description,
		Remarks:           model.Remarks,
		Status:            string(model.Status),
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}
