package tui

import (
	"fmt"
	"strings"
	"time"

	v1 "github.com/shenikar/incident_tracking_system/internal/handler/http/v1"
	"github.com/shenikar/incident_tracking_system/internal/models"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldType = iota
	fieldStartDate
	fieldEndDate
	fieldDescription
	fieldRemarks
	fieldStatus
)

const dateLayout = "2006-01-02"

// buildFormFields собирает поля формы; для редактирования даты обрезаются
// до датной части (первые 10 символов сериализованного значения)
func buildFormFields(incident *models.Incident) []formField {
	fields := []formField{
		{Label: "Type"},
		{Label: "Start date (YYYY-MM-DD)"},
		{Label: "End date (YYYY-MM-DD)"},
		{Label: "Description"},
		{Label: "Remarks"},
	}

	if incident == nil {
		return fields
	}

	fields = append(fields, formField{Label: "Status (space/←→)"})

	fields[fieldType].Value = incident.Type
	fields[fieldStartDate].Value = datePart(incident.StartDate)
	if incident.EndDate != nil {
		fields[fieldEndDate].Value = datePart(*incident.EndDate)
	}
	fields[fieldDescription].Value = incident.Description
	fields[fieldRemarks].Value = incident.Remarks
	fields[fieldStatus].Value = string(incident.Status)

	return fields
}

// datePart возвращает датную часть сериализованного таймстемпа
func datePart(t time.Time) string {
	return t.Format(time.RFC3339)[:10]
}

// validateFormFields выполняет клиентскую валидацию: обязательные поля и порядок дат
func validateFormFields(fields []formField) error {
	if strings.TrimSpace(fields[fieldType].Value) == "" {
		return fmt.Errorf("Type is required.")
	}

	start := strings.TrimSpace(fields[fieldStartDate].Value)
	if start == "" {
		return fmt.Errorf("Incident Start Date is required.")
	}
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return fmt.Errorf("Start date must be YYYY-MM-DD.")
	}

	end := strings.TrimSpace(fields[fieldEndDate].Value)
	if end != "" {
		endDate, err := time.Parse(dateLayout, end)
		if err != nil {
			return fmt.Errorf("End date must be YYYY-MM-DD.")
		}
		if endDate.Before(startDate) {
			return fmt.Errorf("End date cannot be before start date.")
		}
	}

	if strings.TrimSpace(fields[fieldDescription].Value) == "" {
		return fmt.Errorf("Description is required.")
	}

	return nil
}

// parseCreateForm превращает поля формы в запрос на создание
func parseCreateForm(fields []formField) (v1.CreateIncidentRequest, error) {
	if err := validateFormFields(fields); err != nil {
		return v1.CreateIncidentRequest{}, err
	}

	return v1.CreateIncidentRequest{
		Type:              strings.TrimSpace(fields[fieldType].Value),
		IncidentStartDate: strings.TrimSpace(fields[fieldStartDate].Value),
		IncidentEndDate:   strings.TrimSpace(fields[fieldEndDate].Value),
		Description:       strings.TrimSpace(fields[fieldDescription].Value),
		Remarks:           strings.TrimSpace(fields[fieldRemarks].Value),
	}, nil
}

// parseUpdateForm превращает поля формы в запрос на обновление; форма
// редактирования всегда отправляет полный набор полей
func parseUpdateForm(fields []formField) (v1.UpdateIncidentRequest, error) {
	if err := validateFormFields(fields); err != nil {
		return v1.UpdateIncidentRequest{}, err
	}

	typeValue := strings.TrimSpace(fields[fieldType].Value)
	startDate := strings.TrimSpace(fields[fieldStartDate].Value)
	endDate := strings.TrimSpace(fields[fieldEndDate].Value)
	description := strings.TrimSpace(fields[fieldDescription].Value)
	remarks := strings.TrimSpace(fields[fieldRemarks].Value)

	req := v1.UpdateIncidentRequest{
		Type:              &typeValue,
		IncidentStartDate: &startDate,
		Description:       &description,
		Remarks:           &remarks,
	}
	if endDate != "" {
		req.IncidentEndDate = &endDate
	}
	if len(fields) > fieldStatus {
		status := strings.TrimSpace(fields[fieldStatus].Value)
		req.Status = &status
	}

	return req, nil
}

func isStatusField(label string) bool {
	return strings.HasPrefix(label, "Status")
}

// cycleStatus переключает между двумя значениями перечисления
func cycleStatus(current string) string {
	if strings.TrimSpace(strings.ToLower(current)) == string(models.StatusOpen) {
		return string(models.StatusClosed)
	}
	return string(models.StatusOpen)
}
