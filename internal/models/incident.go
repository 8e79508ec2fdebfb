package models

import (
	"time"

	"github.com/google/uuid"
)

// Status - статус жизненного цикла инцидента
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// IsValid проверяет, что значение входит в перечисление статусов
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

type Incident struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	StartDate   time.Time  `json:"incidentStartDate"`
	EndDate     *time.Time `json:"incidentEndDate,omitempty"`
	Description string     `json:"description"`
	Remarks     string     `json:"remarks,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IncidentUpdate - типизированное частичное обновление: поле применяется,
// только если указатель не nil. ID и таймстемпы здесь не представлены,
// поэтому изменить их через обновление невозможно.
type IncidentUpdate struct {
	Type        *string
	StartDate   *time.Time
	EndDate     *time.Time
	Description *string
	Remarks     *string
	Status      *Status
}

// ListFilter - фильтр выборки инцидентов; nil означает "все записи"
type ListFilter struct {
	Status *Status
}
