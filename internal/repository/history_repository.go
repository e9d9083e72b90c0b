package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// HistoryRepository stores append-only audit entries. Entries written
// outside a transition go through Append; transition entries are committed
// by WorkItemRepository.SaveWithHistory.
type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	ListByItem(ctx context.Context, itemID string) ([]domain.HistoryEntry, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds the repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	const query = `
        INSERT INTO work_item_history (work_item_id, actor_id, action, from_status, to_status, description)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.WorkItemID,
		entry.ActorID,
		entry.Action,
		entry.FromStatus,
		entry.ToStatus,
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *historyRepository) ListByItem(ctx context.Context, itemID string) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT id, work_item_id, actor_id, action, from_status, to_status, description, created_at
        FROM work_item_history WHERE work_item_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.WorkItemID,
			&entry.ActorID,
			&entry.Action,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.Description,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
