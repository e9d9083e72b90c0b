package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// ItemOperation is applied to one item id within a bulk call.
type ItemOperation func(ctx context.Context, id string) error

// IndexedOperation is applied to one input position within a bulk call.
type IndexedOperation func(ctx context.Context, index int) error

// BulkError reports a single failed item. Index refers to the position in
// the caller's input so failures can be correlated to request rows.
type BulkError struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// BulkResult aggregates a bulk run. SuccessCount+ErrorCount always equals
// the input length.
type BulkResult struct {
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
	Succeeded    []string    `json:"succeeded"`
	Errors       []BulkError `json:"errors"`
}

// BulkCoordinator applies one operation to many items with per-item failure
// isolation. It is operation-agnostic: assignment, transitions and imports
// all run through the same loop.
type BulkCoordinator struct {
	logger *zap.Logger
}

// NewBulkCoordinator creates the coordinator.
func NewBulkCoordinator(logger *zap.Logger) *BulkCoordinator {
	return &BulkCoordinator{logger: logger}
}

// Run iterates the ids in input order. A failing item never halts the rest.
// Once the context is cancelled the remaining unprocessed items are reported
// as errors; items already committed stay committed.
func (b *BulkCoordinator) Run(ctx context.Context, ids []string, op ItemOperation) BulkResult {
	return b.RunIndexed(ctx, ids, func(ctx context.Context, index int) error {
		return op(ctx, ids[index])
	})
}

// RunIndexed is Run for inputs addressed by position rather than id. Labels
// only name the rows in results and need not be unique; the operation reads
// its input by index so duplicate labels stay independent rows.
func (b *BulkCoordinator) RunIndexed(ctx context.Context, labels []string, op IndexedOperation) BulkResult {
	result := BulkResult{Succeeded: []string{}, Errors: []BulkError{}}

	for index, label := range labels {
		if err := ctx.Err(); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, BulkError{
				Index: index,
				ID:    label,
				Code:  "CANCELLED",
				Error: err.Error(),
			})
			continue
		}

		if err := b.runOne(ctx, index, label, op); err != nil {
			domainErr := apperrors.ToDomainError(err)
			result.ErrorCount++
			result.Errors = append(result.Errors, BulkError{
				Index: index,
				ID:    label,
				Code:  domainErr.Code,
				Error: domainErr.Message,
			})
			continue
		}
		result.SuccessCount++
		result.Succeeded = append(result.Succeeded, label)
	}
	return result
}

func (b *BulkCoordinator) runOne(ctx context.Context, index int, label string, op IndexedOperation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bulk operation panicked", zap.String("item_id", label), zap.Any("panic", r))
			err = apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
		}
	}()
	return op(ctx, index)
}
