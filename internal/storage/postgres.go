package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dogsport-ua/competition-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateCompetition creates a new competition record
func (r *PostgresRepository) CreateCompetition(ctx context.Context, c *models.Competition) error {
	categoriesJSON, err := json.Marshal(c.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	query := `
		INSERT INTO competitions (id, name, start_date, end_date, location, level, categories, max_participants, organizer_id, status, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.StartDate,
		nullTime(c.EndDate),
		nullString(c.Location),
		nullString(c.Level),
		categoriesJSON,
		c.MaxParticipants,
		c.OrganizerID,
		string(c.Status),
		c.Version,
		c.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create competition: %w", err)
	}

	return nil
}

// GetCompetition retrieves a competition by ID, participants included
func (r *PostgresRepository) GetCompetition(ctx context.Context, id string) (*models.Competition, error) {
	query := `
		SELECT id, name, start_date, end_date, location, level, categories, max_participants, organizer_id, status, version, created_at
		FROM competitions
		WHERE id = $1
	`

	c, err := scanCompetition(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}

	participants, err := r.GetParticipants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	c.Participants = participants

	return c, nil
}

// UpdateCompetition updates competition metadata using the version stamp as
// an optimistic concurrency check. The stored version is bumped on success.
func (r *PostgresRepository) UpdateCompetition(ctx context.Context, c *models.Competition) error {
	categoriesJSON, err := json.Marshal(c.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	query := `
		UPDATE competitions
		SET name = $2, start_date = $3, end_date = $4, location = $5, level = $6, categories = $7, max_participants = $8, status = $9, version = version + 1
		WHERE id = $1 AND version = $10
	`

	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.StartDate,
		nullTime(c.EndDate),
		nullString(c.Location),
		nullString(c.Level),
		categoriesJSON,
		c.MaxParticipants,
		string(c.Status),
		c.Version,
	)

	if err != nil {
		return fmt.Errorf("failed to update competition: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the row is gone or someone else won the version race
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM competitions WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check competition: %w", err)
		}
		if exists {
			return ErrVersionConflict
		}
		return fmt.Errorf("competition not found: %s", c.ID)
	}

	c.Version++
	return nil
}

// DeleteCompetition deletes a competition; participants cascade
func (r *PostgresRepository) DeleteCompetition(ctx context.Context, id string) error {
	query := `DELETE FROM competitions WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete competition: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("competition not found: %s", id)
	}

	return nil
}

// ListCompetitions returns competitions matching filters, without
// participants
func (r *PostgresRepository) ListCompetitions(ctx context.Context, filters models.ListFilters) ([]*models.Competition, error) {
	query := `
		SELECT id, name, start_date, end_date, location, level, categories, max_participants, organizer_id, status, version, created_at
		FROM competitions
		WHERE 1=1
	`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filters.Status))
		argNum++
	}

	if filters.OrganizerID != "" {
		query += fmt.Sprintf(" AND organizer_id = $%d", argNum)
		args = append(args, filters.OrganizerID)
		argNum++
	}

	query += " ORDER BY start_date DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	defer rows.Close()

	var competitions []*models.Competition

	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		competitions = append(competitions, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating competitions: %w", err)
	}

	return competitions, nil
}

// GetOpenPastStart returns competitions still open for registration whose
// start date has passed
func (r *PostgresRepository) GetOpenPastStart(ctx context.Context, now time.Time) ([]*models.Competition, error) {
	query := `
		SELECT id, name, start_date, end_date, location, level, categories, max_participants, organizer_id, status, version, created_at
		FROM competitions
		WHERE status = 'registration_open' AND start_date < $1
		ORDER BY start_date ASC
	`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get open competitions: %w", err)
	}
	defer rows.Close()

	var competitions []*models.Competition

	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		competitions = append(competitions, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating competitions: %w", err)
	}

	return competitions, nil
}

// CreateParticipant inserts a single participant row
func (r *PostgresRepository) CreateParticipant(ctx context.Context, p *models.Participant) error {
	documentsJSON, err := json.Marshal(p.Documents)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	resultsJSON, err := marshalResults(p.Results)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO participants (id, competition_id, user_id, dog_id, class, handler_name, documents, status, results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.CompetitionID,
		p.UserID,
		p.DogID,
		p.Class,
		nullString(p.HandlerName),
		documentsJSON,
		string(p.Status),
		resultsJSON,
		p.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}

	return nil
}

// UpdateParticipant rewrites a single participant row by id. The write is
// idempotent; repeating it with the same data is harmless.
func (r *PostgresRepository) UpdateParticipant(ctx context.Context, p *models.Participant) error {
	documentsJSON, err := json.Marshal(p.Documents)
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	resultsJSON, err := marshalResults(p.Results)
	if err != nil {
		return err
	}

	query := `
		UPDATE participants
		SET class = $2, handler_name = $3, documents = $4, status = $5, results = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Class,
		nullString(p.HandlerName),
		documentsJSON,
		string(p.Status),
		resultsJSON,
	)

	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant not found: %s", p.ID)
	}

	return nil
}

// GetParticipants retrieves all participants of a competition in insertion
// order
func (r *PostgresRepository) GetParticipants(ctx context.Context, competitionID string) ([]*models.Participant, error) {
	query := `
		SELECT id, competition_id, user_id, dog_id, class, handler_name, documents, status, results, created_at
		FROM participants
		WHERE competition_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant

	for rows.Next() {
		var p models.Participant
		var statusStr string
		var handlerName sql.NullString
		var documentsJSON, resultsJSON []byte

		err := rows.Scan(
			&p.ID,
			&p.CompetitionID,
			&p.UserID,
			&p.DogID,
			&p.Class,
			&handlerName,
			&documentsJSON,
			&statusStr,
			&resultsJSON,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}

		p.Status = models.ParticipantStatus(statusStr)
		p.HandlerName = handlerName.String

		if documentsJSON != nil {
			if err := json.Unmarshal(documentsJSON, &p.Documents); err != nil {
				return nil, fmt.Errorf("failed to unmarshal documents: %w", err)
			}
		}

		if resultsJSON != nil {
			var res models.Results
			if err := json.Unmarshal(resultsJSON, &res); err != nil {
				return nil, fmt.Errorf("failed to unmarshal results: %w", err)
			}
			p.Results = &res
		}

		participants = append(participants, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}

	return participants, nil
}

// GetAuthToken retrieves an auth token row by its value
func (r *PostgresRepository) GetAuthToken(ctx context.Context, token string) (*models.AuthToken, error) {
	query := `
		SELECT token, user_id, role, is_active, created_at, last_used_at
		FROM auth_tokens
		WHERE token = $1
	`

	var t models.AuthToken
	var roleStr string
	var lastUsedAt sql.NullTime

	err := r.pool.QueryRow(ctx, query, token).Scan(
		&t.Token,
		&t.UserID,
		&roleStr,
		&t.IsActive,
		&t.CreatedAt,
		&lastUsedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get auth token: %w", err)
	}

	t.Role = models.Role(roleStr)
	if lastUsedAt.Valid {
		t.LastUsedAt = &lastUsedAt.Time
	}

	return &t, nil
}

// UpdateTokenLastUsed updates the last_used_at timestamp for a token
func (r *PostgresRepository) UpdateTokenLastUsed(ctx context.Context, token string) error {
	query := `UPDATE auth_tokens SET last_used_at = NOW() WHERE token = $1`

	_, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to update token last_used_at: %w", err)
	}

	return nil
}

// rowScanner lets scanCompetition work with both QueryRow and Query rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompetition(row rowScanner) (*models.Competition, error) {
	var c models.Competition
	var statusStr string
	var location, level sql.NullString
	var endDate sql.NullTime
	var categoriesJSON []byte

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.StartDate,
		&endDate,
		&location,
		&level,
		&categoriesJSON,
		&c.MaxParticipants,
		&c.OrganizerID,
		&statusStr,
		&c.Version,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = models.CompetitionStatus(statusStr)
	c.Location = location.String
	c.Level = level.String

	if endDate.Valid {
		c.EndDate = &endDate.Time
	}

	if categoriesJSON != nil {
		if err := json.Unmarshal(categoriesJSON, &c.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}

	return &c, nil
}

func marshalResults(r *models.Results) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal results: %w", err)
	}
	return data, nil
}

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
