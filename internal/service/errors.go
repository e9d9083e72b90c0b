package service

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workflow-service/internal/repository"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// mapItemErr translates persistence errors into the domain taxonomy.
func mapItemErr(err error, itemID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("work item", map[string]any{"item_id": itemID})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict("work item modified concurrently, re-fetch and retry", map[string]any{"item_id": itemID})
	default:
		return apperrors.MapError(err)
	}
}

func mapActorErr(err error, actorID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("actor", map[string]any{"actor_id": actorID})
	default:
		return apperrors.MapError(err)
	}
}

func mapClientErr(err error, clientID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("client", map[string]any{"client_id": clientID})
	default:
		return apperrors.MapError(err)
	}
}
