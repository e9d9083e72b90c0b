package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

func TestBulkRunCountsAlwaysSum(t *testing.T) {
	bulk := NewBulkCoordinator(zap.NewNop())
	ids := []string{"a", "b", "c", "d", "e"}

	result := bulk.Run(context.Background(), ids, func(_ context.Context, id string) error {
		if id == "b" || id == "d" {
			return apperrors.NewValidationError("bad item", nil)
		}
		return nil
	})

	assert.Equal(t, 3, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Equal(t, len(ids), result.SuccessCount+result.ErrorCount)
	assert.Equal(t, []string{"a", "c", "e"}, result.Succeeded)
}

func TestBulkRunReportsInputIndices(t *testing.T) {
	bulk := NewBulkCoordinator(zap.NewNop())

	result := bulk.Run(context.Background(), []string{"x", "y", "z"}, func(_ context.Context, id string) error {
		if id == "y" {
			return apperrors.NewInvalidTransition("CLOTURE", "ASSIGNE", nil)
		}
		return nil
	})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Equal(t, "y", result.Errors[0].ID)
	assert.Equal(t, "INVALID_TRANSITION", result.Errors[0].Code)
}

func TestBulkRunWrapsUnclassifiedErrors(t *testing.T) {
	bulk := NewBulkCoordinator(zap.NewNop())

	result := bulk.Run(context.Background(), []string{"a"}, func(_ context.Context, _ string) error {
		return errors.New("connection reset")
	})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INTERNAL_ERROR", result.Errors[0].Code)
}

func TestBulkRunIsolatesPanics(t *testing.T) {
	bulk := NewBulkCoordinator(zap.NewNop())

	result := bulk.Run(context.Background(), []string{"a", "boom", "c"}, func(_ context.Context, id string) error {
		if id == "boom" {
			panic("nil map write")
		}
		return nil
	})

	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "boom", result.Errors[0].ID)
	assert.Equal(t, "INTERNAL_ERROR", result.Errors[0].Code)
}

func TestBulkRunCancellationMarksRemaining(t *testing.T) {
	bulk := NewBulkCoordinator(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	ids := []string{"a", "b", "c", "d"}
	result := bulk.Run(ctx, ids, func(_ context.Context, id string) error {
		if id == "b" {
			cancel()
		}
		return nil
	})

	// a and b committed before the cancellation took effect; c and d never ran.
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Equal(t, len(ids), result.SuccessCount+result.ErrorCount)
	for _, bulkErr := range result.Errors {
		assert.Equal(t, "CANCELLED", bulkErr.Code)
	}
	assert.Equal(t, []string{"a", "b"}, result.Succeeded)
}
