package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident_tracking_system/internal/models"
	"github.com/shenikar/incident_tracking_system/internal/service"
)

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

const incidentColumns = `
	id,
	type,
	incident_start_date,
	incident_end_date,
	description,
	remarks,
	status,
	created_at,
	updated_at`

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.Type,
		&incident.StartDate,
		&incident.EndDate,
		&incident.Description,
		&incident.Remarks,
		&incident.Status,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Create создает новую запись об инциденте в бд; id и таймстемпы присваивает база
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (type, incident_start_date, incident_end_date, description, remarks, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.Type,
		incident.StartDate,
		incident.EndDate,
		incident.Description,
		incident.Remarks,
		incident.Status,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents
		WHERE id = $1;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// List возвращает инциденты, новые первыми; при заданном фильтре - только с этим статусом
func (r *IncidentRepository) List(ctx context.Context, filter models.ListFilter) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM incidents`
	args := []any{}
	if filter.Status != nil {
		query += `
		WHERE status = $1`
		args = append(args, *filter.Status)
	}
	query += `
		ORDER BY created_at DESC, id DESC;
	`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// Update записывает измененные поля инцидента и обновляет updated_at
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	query := `
		UPDATE incidents SET
			type = $1,
			incident_start_date = $2,
			incident_end_date = $3,
			description = $4,
			remarks = $5,
			status = $6,
			updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.Type,
		incident.StartDate,
		incident.EndDate,
		incident.Description,
		incident.Remarks,
		incident.Status,
		incident.ID,
	).Scan(&incident.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("incident with id %s: %w", incident.ID, models.ErrIncidentNotFound)
		}
		return fmt.Errorf("failed to update incident: %w", err)
	}
	return nil
}

// Close устанавливает статус 'closed' и дату окончания (переданную или NOW())
func (r *IncidentRepository) Close(ctx context.Context, id uuid.UUID, endDate *time.Time) (*models.Incident, error) {
	query := `
		UPDATE incidents SET
			status = 'closed',
			incident_end_date = COALESCE($2, NOW()),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + incidentColumns + `;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id, endDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, models.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to close incident: %w", err)
	}
	return incident, nil
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	key := fmt.Sprintf("incident:%s", id.String())
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	key := fmt.Sprintf("incident:%s", incident.ID.String())
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, key, val, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	key := fmt.Sprintf("incident:%s", id.String())
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
