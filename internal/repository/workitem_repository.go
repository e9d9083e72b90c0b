package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// ErrVersionConflict signals an optimistic-concurrency failure: the item was
// modified since the caller loaded it.
var ErrVersionConflict = errors.New("work item version conflict")

// WorkItemFilter captures listing parameters.
type WorkItemFilter struct {
	Kind         *domain.Kind
	Statuses     []domain.Status
	OwnerID      *string
	ClientID     *string
	ReturnedOnly bool
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// WorkItemRepository encapsulates work-item persistence. Status and owner
// writes only happen through SaveWithHistory so every mutation carries its
// audit record in the same transaction.
type WorkItemRepository interface {
	Create(ctx context.Context, item *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	List(ctx context.Context, filter WorkItemFilter) ([]domain.WorkItem, error)
	ListOpen(ctx context.Context) ([]domain.WorkItem, error)
	SaveWithHistory(ctx context.Context, item *domain.WorkItem, expectedVersion int64, entry *domain.HistoryEntry) error
	CountOpenByOwner(ctx context.Context, ownerIDs []string) (map[string]int, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
	ReferenceExists(ctx context.Context, kind domain.Kind, reference string) (bool, error)
}

type workItemRepository struct {
	pool *pgxpool.Pool
}

// NewWorkItemRepository instantiates the repository.
func NewWorkItemRepository(pool *pgxpool.Pool) WorkItemRepository {
	return &workItemRepository{pool: pool}
}

const workItemColumns = `id, kind, reference, client_id, contractual_delay_days, status, priority,
               owner_id, returned_from_id, returned_reason, version, created_at, updated_at`

func (r *workItemRepository) Create(ctx context.Context, item *domain.WorkItem) error {
	const query = `
        INSERT INTO work_items (kind, reference, client_id, contractual_delay_days, status, priority, owner_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		item.Kind,
		item.Reference,
		item.ClientID,
		item.ContractualDelayDays,
		item.Status,
		item.Priority,
		item.OwnerID,
	).Scan(&item.ID, &item.Version, &item.CreatedAt, &item.UpdatedAt)
}

func (r *workItemRepository) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id=$1`
	var item domain.WorkItem
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Kind,
		&item.Reference,
		&item.ClientID,
		&item.ContractualDelayDays,
		&item.Status,
		&item.Priority,
		&item.OwnerID,
		&item.ReturnedFromID,
		&item.ReturnedReason,
		&item.Version,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *workItemRepository) List(ctx context.Context, filter WorkItemFilter) ([]domain.WorkItem, error) {
	base := `SELECT ` + workItemColumns + ` FROM work_items`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		clauses = append(clauses, fmt.Sprintf("kind=$%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if filter.ReturnedOnly {
		clauses = append(clauses, "returned_from_id IS NOT NULL")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

func (r *workItemRepository) ListOpen(ctx context.Context) ([]domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items
        WHERE status NOT IN ('TRAITE','VIREMENT_EXECUTE','CLOTURE','RESOLVED','CLOSED')
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

// SaveWithHistory commits the mutated item and its history entry in one
// transaction, guarded by a compare-and-set on the version column. Two
// concurrent transitions on the same item cannot both succeed.
func (r *workItemRepository) SaveWithHistory(ctx context.Context, item *domain.WorkItem, expectedVersion int64, entry *domain.HistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE work_items
        SET status=$1, priority=$2, owner_id=$3, returned_from_id=$4, returned_reason=$5,
            version=version+1, updated_at=NOW()
        WHERE id=$6 AND version=$7
        RETURNING version, updated_at`
	if err := tx.QueryRow(ctx, update,
		item.Status,
		item.Priority,
		item.OwnerID,
		item.ReturnedFromID,
		item.ReturnedReason,
		item.ID,
		expectedVersion,
	).Scan(&item.Version, &item.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return err
	}

	const insert = `
        INSERT INTO work_item_history (work_item_id, actor_id, action, from_status, to_status, description)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		entry.WorkItemID,
		entry.ActorID,
		entry.Action,
		entry.FromStatus,
		entry.ToStatus,
		entry.Description,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *workItemRepository) CountOpenByOwner(ctx context.Context, ownerIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(ownerIDs))
	for _, id := range ownerIDs {
		counts[id] = 0
	}
	if len(ownerIDs) == 0 {
		return counts, nil
	}

	const query = `
        SELECT owner_id, COUNT(*) FROM work_items
        WHERE owner_id = ANY($1)
          AND status NOT IN ('TRAITE','VIREMENT_EXECUTE','CLOTURE','RESOLVED','CLOSED')
        GROUP BY owner_id`
	rows, err := r.pool.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var owner string
		var count int
		if err := rows.Scan(&owner, &count); err != nil {
			return nil, err
		}
		counts[owner] = count
	}
	return counts, rows.Err()
}

func (r *workItemRepository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	const query = `SELECT status, COUNT(*) FROM work_items GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.Status]int{}
	for rows.Next() {
		var status domain.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *workItemRepository) ReferenceExists(ctx context.Context, kind domain.Kind, reference string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM work_items WHERE kind=$1 AND reference=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, kind, reference).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanWorkItems(rows pgx.Rows) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for rows.Next() {
		var item domain.WorkItem
		if err := rows.Scan(
			&item.ID,
			&item.Kind,
			&item.Reference,
			&item.ClientID,
			&item.ContractualDelayDays,
			&item.Status,
			&item.Priority,
			&item.OwnerID,
			&item.ReturnedFromID,
			&item.ReturnedReason,
			&item.Version,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
