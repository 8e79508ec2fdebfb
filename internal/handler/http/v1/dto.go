package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateIncidentRequest DTO для создания инцидента.
// Даты принимаются строками: '2006-01-02' или RFC 3339.
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Type              string `json:"type" validate:"required"`
	IncidentStartDate string `json:"incidentStartDate" validate:"required"`
	IncidentEndDate   string `json:"incidentEndDate,omitempty"`
	Description       string `json:"description" validate:"required"`
	Remarks           string `json:"remarks,omitempty"`
}

// UpdateIncidentRequest DTO для частичного обновления: nil-поле не трогает запись
// @Description DTO для частичного обновления инцидента
type UpdateIncidentRequest struct {
	Type              *string `json:"type,omitempty" validate:"omitempty,min=1"`
	IncidentStartDate *string `json:"incidentStartDate,omitempty"`
	IncidentEndDate   *string `json:"incidentEndDate,omitempty"`
	Description       *string `json:"description,omitempty" validate:"omitempty,min=1"`
	Remarks           *string `json:"remarks,omitempty"`
	Status            *string `json:"status,omitempty" validate:"omitempty,oneof=open closed"`
}

// CloseIncidentRequest DTO для закрытия инцидента
// @Description DTO для закрытия инцидента
type CloseIncidentRequest struct {
	IncidentEndDate string `json:"incidentEndDate,omitempty"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID                uuid.UUID  `json:"id"`
	Type              string     `json:"type"`
	IncidentStartDate time.Time  `json:"incidentStartDate"`
	IncidentEndDate   *time.Time `json:"incidentEndDate,omitempty"`
	Description       string     `json:"description"`
	Remarks           string     `json:"remarks,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ErrorResponse - единая форма тела ошибки
// @Description Тело ошибки API
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
