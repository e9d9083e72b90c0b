package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// DirectoryRepository resolves actors and their roles for authentication
// and auto-assignment.
type DirectoryRepository interface {
	Create(ctx context.Context, actor *domain.Actor) error
	GetByID(ctx context.Context, id string) (*domain.Actor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Actor, error)
	ListByRole(ctx context.Context, role domain.Role, activeOnly bool) ([]domain.Actor, error)
}

type directoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository instantiates the repository.
func NewDirectoryRepository(pool *pgxpool.Pool) DirectoryRepository {
	return &directoryRepository{pool: pool}
}

const actorColumns = `id, name, email, password_hash, role, team_id, active_flag, created_at, updated_at`

func (r *directoryRepository) Create(ctx context.Context, actor *domain.Actor) error {
	const query = `
        INSERT INTO actors (name, email, password_hash, role, team_id, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		actor.Name,
		actor.Email,
		actor.PasswordHash,
		actor.Role,
		actor.TeamID,
		actor.Active,
	).Scan(&actor.ID, &actor.CreatedAt, &actor.UpdatedAt)
}

func (r *directoryRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	return r.fetchSingle(ctx, `SELECT `+actorColumns+` FROM actors WHERE id=$1`, id)
}

func (r *directoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	return r.fetchSingle(ctx, `SELECT `+actorColumns+` FROM actors WHERE email=$1`, email)
}

func (r *directoryRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Actor, error) {
	var actor domain.Actor
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&actor.ID,
		&actor.Name,
		&actor.Email,
		&actor.PasswordHash,
		&actor.Role,
		&actor.TeamID,
		&actor.Active,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &actor, nil
}

func (r *directoryRepository) ListByRole(ctx context.Context, role domain.Role, activeOnly bool) ([]domain.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM actors WHERE role=$1`
	if activeOnly {
		query += ` AND active_flag`
	}
	query += ` ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Actor
	for rows.Next() {
		var actor domain.Actor
		if err := rows.Scan(
			&actor.ID,
			&actor.Name,
			&actor.Email,
			&actor.PasswordHash,
			&actor.Role,
			&actor.TeamID,
			&actor.Active,
			&actor.CreatedAt,
			&actor.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, actor)
	}
	return result, rows.Err()
}
