package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident_tracking_system/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=incident.go -destination=mocks/mock_incident.go -package=mocks

// IncidentRepository определяет контракт для работы с хранилищем инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Incident, error)
	Update(ctx context.Context, incident *models.Incident) error
	Close(ctx context.Context, id uuid.UUID, endDate *time.Time) (*models.Incident, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// IncidentService определяет контракт для бизнес-логики жизненного цикла инцидентов
type IncidentService interface {
	CreateIncident(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListIncidents(ctx context.Context, filter models.ListFilter) ([]*models.Incident, error)
	UpdateIncident(ctx context.Context, id uuid.UUID, update models.IncidentUpdate) (*models.Incident, error)
	CloseIncident(ctx context.Context, id uuid.UUID, endDate *time.Time) (*models.Incident, error)
}

type incidentService struct {
	repo   IncidentRepository
	logger *logrus.Logger
}

func NewIncidentService(repo IncidentRepository, logger *logrus.Logger) IncidentService {
	return &incidentService{
		repo:   repo,
		logger: logger,
	}
}

// validateIncident проверяет инварианты записи; вызывается на создании
// и на уже слитой записи при обновлении
func validateIncident(incident *models.Incident) error {
	if strings.TrimSpace(incident.Type) == "" {
		return models.NewValidationError("type", "is required")
	}
	if incident.StartDate.IsZero() {
		return models.NewValidationError("incidentStartDate", "is required")
	}
	if strings.TrimSpace(incident.Description) == "" {
		return models.NewValidationError("description", "is required")
	}
	if incident.EndDate != nil && incident.EndDate.Before(incident.StartDate) {
		return models.NewValidationError("incidentEndDate", "cannot be before incidentStartDate")
	}
	if !incident.Status.IsValid() {
		return models.NewValidationError("status", "must be 'open' or 'closed'")
	}
	return nil
}

// CreateIncident валидирует поля и создает инцидент со статусом 'open'
func (s *incidentService) CreateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"type":    incident.Type,
	})
	log.Info("Attempting to create a new incident")

	incident.Type = strings.TrimSpace(incident.Type)
	incident.Description = strings.TrimSpace(incident.Description)
	incident.Remarks = strings.TrimSpace(incident.Remarks)
	// Статус при создании всегда 'open', что бы ни пришло от клиента
	incident.Status = models.StatusOpen

	if err := validateIncident(incident); err != nil {
		log.WithError(err).Warn("Incident failed validation")
		return err
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return nil
}

// GetIncident получает инцидент по ID: сначала из кеша, затем из бд
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		// Кеш недоступен - идем в бд
		log.WithError(err).Warn("Failed to read incident from cache")
	}
	if cached != nil {
		log.Debug("Incident served from cache")
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}

	log.Debug("Incident fetched successfully")
	return incident, nil
}

// ListIncidents возвращает инциденты, новые первыми, с необязательным фильтром по статусу
func (s *incidentService) ListIncidents(ctx context.Context, filter models.ListFilter) ([]*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ListIncidents",
	})
	if filter.Status != nil {
		log = log.WithField("status", *filter.Status)
	}
	log.Info("Listing incidents")

	incidents, err := s.repo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return incidents, nil
}

// UpdateIncident применяет частичное обновление к существующему инциденту.
// Слитая запись проходит тот же набор проверок, что и при создании;
// переход closed -> open запрещен.
func (s *incidentService) UpdateIncident(ctx context.Context, id uuid.UUID, update models.IncidentUpdate) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": id,
	})
	log.Info("Attempting to update incident")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return nil, fmt.Errorf("service: incident %s not found for update: %w", id, err)
	}

	if update.Status != nil && existing.Status == models.StatusClosed && *update.Status == models.StatusOpen {
		err := models.NewValidationError("status", "cannot reopen a closed incident")
		log.WithError(err).Warn("Rejected closed -> open transition")
		return nil, err
	}

	if update.Type != nil {
		existing.Type = strings.TrimSpace(*update.Type)
	}
	if update.StartDate != nil {
		existing.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		existing.EndDate = update.EndDate
	}
	if update.Description != nil {
		existing.Description = strings.TrimSpace(*update.Description)
	}
	if update.Remarks != nil {
		existing.Remarks = strings.TrimSpace(*update.Remarks)
	}
	if update.Status != nil {
		existing.Status = *update.Status
	}

	if err := validateIncident(existing); err != nil {
		log.WithError(err).Warn("Updated incident failed validation")
		return nil, err
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		log.WithError(err).Error("Failed to update incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident updated successfully")
	return existing, nil
}

// CloseIncident переводит инцидент в статус 'closed' и выставляет дату окончания:
// переданную или текущий момент. Повторное закрытие перезаписывает дату окончания.
func (s *incidentService) CloseIncident(ctx context.Context, id uuid.UUID, endDate *time.Time) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "CloseIncident",
		"incident_id": id,
	})
	log.Info("Attempting to close incident")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to close a non-existent incident")
		return nil, fmt.Errorf("service: incident %s not found for close: %w", id, err)
	}

	if endDate != nil && endDate.Before(existing.StartDate) {
		err := models.NewValidationError("incidentEndDate", "cannot be before incidentStartDate")
		log.WithError(err).Warn("Rejected close with end date before start date")
		return nil, err
	}

	closed, err := s.repo.Close(ctx, id, endDate)
	if err != nil {
		log.WithError(err).Error("Failed to close incident in repository")
		return nil, fmt.Errorf("service: could not close incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident closed successfully")
	return closed, nil
}
