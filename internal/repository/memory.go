package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// Memory implementations back service tests and local development without a
// database. They mirror the Postgres semantics, including the version CAS.

// MemoryWorkItemRepository is an in-memory WorkItemRepository.
type MemoryWorkItemRepository struct {
	mu      sync.Mutex
	items   map[string]domain.WorkItem
	history map[string][]domain.HistoryEntry
}

// NewMemoryWorkItemRepository builds an empty repository.
func NewMemoryWorkItemRepository() *MemoryWorkItemRepository {
	return &MemoryWorkItemRepository{
		items:   map[string]domain.WorkItem{},
		history: map[string][]domain.HistoryEntry{},
	}
}

func (r *MemoryWorkItemRepository) Create(_ context.Context, item *domain.WorkItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.Version = 1
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryWorkItemRepository) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &item, nil
}

func (r *MemoryWorkItemRepository) List(_ context.Context, filter WorkItemFilter) ([]domain.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WorkItem
	for _, item := range r.items {
		if filter.Kind != nil && item.Kind != *filter.Kind {
			continue
		}
		if filter.OwnerID != nil && !item.Owned(*filter.OwnerID) {
			continue
		}
		if filter.ClientID != nil && item.ClientID != *filter.ClientID {
			continue
		}
		if filter.ReturnedOnly && item.ReturnedFromID == nil {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, item.Status) {
			continue
		}
		if filter.CreatedFrom != nil && item.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && item.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *MemoryWorkItemRepository) ListOpen(_ context.Context) ([]domain.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WorkItem
	for _, item := range r.items {
		if domain.StopsSLAClock(item.Status) {
			continue
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *MemoryWorkItemRepository) SaveWithHistory(_ context.Context, item *domain.WorkItem, expectedVersion int64, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[item.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	item.Version = expectedVersion + 1
	item.UpdatedAt = time.Now().UTC()
	r.items[item.ID] = *item

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = item.UpdatedAt
	}
	r.history[item.ID] = append(r.history[item.ID], *entry)
	return nil
}

func (r *MemoryWorkItemRepository) CountOpenByOwner(_ context.Context, ownerIDs []string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int, len(ownerIDs))
	for _, id := range ownerIDs {
		counts[id] = 0
	}
	for _, item := range r.items {
		if item.OwnerID == nil || domain.StopsSLAClock(item.Status) {
			continue
		}
		if _, tracked := counts[*item.OwnerID]; tracked {
			counts[*item.OwnerID]++
		}
	}
	return counts, nil
}

func (r *MemoryWorkItemRepository) CountByStatus(_ context.Context) (map[domain.Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[domain.Status]int{}
	for _, item := range r.items {
		counts[item.Status]++
	}
	return counts, nil
}

func (r *MemoryWorkItemRepository) ReferenceExists(_ context.Context, kind domain.Kind, reference string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.Kind == kind && item.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}

// Append records an audit entry outside a transition (creation entries).
// Together with ListByItem this makes the memory repository double as a
// HistoryRepository, mirroring the shared table in Postgres.
func (r *MemoryWorkItemRepository) Append(_ context.Context, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.history[entry.WorkItemID] = append(r.history[entry.WorkItemID], *entry)
	return nil
}

func (r *MemoryWorkItemRepository) ListByItem(_ context.Context, itemID string) ([]domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]domain.HistoryEntry, len(r.history[itemID]))
	copy(entries, r.history[itemID])
	return entries, nil
}

func containsStatus(statuses []domain.Status, status domain.Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// MemoryDirectoryRepository is an in-memory DirectoryRepository.
type MemoryDirectoryRepository struct {
	mu     sync.Mutex
	actors map[string]domain.Actor
}

// NewMemoryDirectoryRepository builds an empty repository.
func NewMemoryDirectoryRepository() *MemoryDirectoryRepository {
	return &MemoryDirectoryRepository{actors: map[string]domain.Actor{}}
}

func (r *MemoryDirectoryRepository) Create(_ context.Context, actor *domain.Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if actor.ID == "" {
		actor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if actor.CreatedAt.IsZero() {
		actor.CreatedAt = now
	}
	actor.UpdatedAt = now
	r.actors[actor.ID] = *actor
	return nil
}

func (r *MemoryDirectoryRepository) GetByID(_ context.Context, id string) (*domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.actors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &actor, nil
}

func (r *MemoryDirectoryRepository) GetByEmail(_ context.Context, email string) (*domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, actor := range r.actors {
		if actor.Email == email {
			copied := actor
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryDirectoryRepository) ListByRole(_ context.Context, role domain.Role, activeOnly bool) ([]domain.Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Actor
	for _, actor := range r.actors {
		if actor.Role != role {
			continue
		}
		if activeOnly && !actor.Active {
			continue
		}
		result = append(result, actor)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// MemoryClientRepository is an in-memory ClientRepository.
type MemoryClientRepository struct {
	mu      sync.Mutex
	clients map[string]domain.Client
}

// NewMemoryClientRepository builds an empty repository.
func NewMemoryClientRepository() *MemoryClientRepository {
	return &MemoryClientRepository{clients: map[string]domain.Client{}}
}

func (r *MemoryClientRepository) Create(_ context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now
	r.clients[client.ID] = *client
	return nil
}

func (r *MemoryClientRepository) GetByID(_ context.Context, id string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &client, nil
}

func (r *MemoryClientRepository) List(_ context.Context, limit, offset int) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Client
	for _, client := range r.clients {
		result = append(result, client)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	if offset > len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}
