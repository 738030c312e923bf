package service

import (
	"context"
	"errors"

	lockerserrors "yellowbox/internal/lockers/errors"
	"yellowbox/internal/lockers/repository"
	"yellowbox/internal/lockers/validator"
	"yellowbox/pkg/config"
	apperrors "yellowbox/pkg/errors"
	"yellowbox/pkg/model"
)

type LockerService interface {
	Create(ctx context.Context, locker *model.Locker) error
	GetByID(ctx context.Context, id string) (*model.Locker, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Locker, int64, error)
	GetStatus(ctx context.Context, id string) (string, error)
	UpdateStatus(ctx context.Context, id string, update *model.LockerStatusUpdate) error
	Open(ctx context.Context, id string) (string, error)
}

type lockerService struct {
	repo      repository.LockerRepository
	validator *validator.LockerValidator
	cfg       *config.Config
}

func NewLockerService(
	repo repository.LockerRepository,
	validator *validator.LockerValidator,
	cfg *config.Config,
) LockerService {
	return &lockerService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *lockerService) Create(ctx context.Context, locker *model.Locker) error {
	if locker.Status == "" {
		locker.Status = model.LockerStatusLocked
	}
	if err := s.validator.Validate(locker); err != nil {
		s.cfg.Log.Warn("Locker validation failed", "error", err)
		return apperrors.Validation("Locker validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, locker); err != nil {
		if errors.Is(err, lockerserrors.ErrAlreadyExists) {
			return apperrors.Conflict("Locker already exists")
		}
		s.cfg.Log.Error("Failed to create locker", "locker_id", locker.ID, "error", err)
		return apperrors.Internal("Failed to create locker", err)
	}

	s.cfg.Log.Info("Locker created successfully", "locker_id", locker.ID, "status", locker.Status)
	return nil
}

func (s *lockerService) GetByID(ctx context.Context, id string) (*model.Locker, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Locker ID cannot be empty")
	}

	locker, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, lockerserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Locker", id)
		}
		return nil, apperrors.Internal("Failed to retrieve locker", err)
	}
	return locker, nil
}

func (s *lockerService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Locker, int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count lockers", "error", err)
		return nil, 0, apperrors.Internal("Failed to count lockers", err)
	}

	lockers, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list lockers", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve lockers", err)
	}

	return lockers, count, nil
}

func (s *lockerService) GetStatus(ctx context.Context, id string) (string, error) {
	locker, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return locker.Status, nil
}

// UpdateStatus applies a status mutation. With ExpectedStatus set the write is
// a compare-and-swap: a mismatch is reported as Conflict so a racing booking
// attempt fails instead of double-booking the locker.
func (s *lockerService) UpdateStatus(ctx context.Context, id string, update *model.LockerStatusUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Locker ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		s.cfg.Log.Warn("Locker status update validation failed", "locker_id", id, "error", err)
		return apperrors.Validation("Invalid status update", map[string]any{"error": err.Error()})
	}

	if update.ExpectedStatus == "" {
		return s.setStatus(ctx, id, update.Status)
	}
	return s.setStatusIf(ctx, id, update.ExpectedStatus, update.Status)
}

func (s *lockerService) setStatus(ctx context.Context, id, status string) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, lockerserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Locker", id)
		}
		s.cfg.Log.Error("Failed to update locker status", "locker_id", id, "error", err)
		return apperrors.Internal("Failed to update locker status", err)
	}

	s.cfg.Log.Info("Locker status updated", "locker_id", id, "status", status)
	return nil
}

func (s *lockerService) setStatusIf(ctx context.Context, id, expected, status string) error {
	err := s.repo.UpdateStatusIf(ctx, id, expected, status)
	if err == nil {
		s.cfg.Log.Info("Locker status updated",
			"locker_id", id,
			"status", status,
			"expected_status", expected,
		)
		return nil
	}

	if errors.Is(err, lockerserrors.ErrStatusMismatch) {
		// The conditional write cannot tell a missing locker from a lost
		// race; a follow-up read disambiguates for the caller.
		if _, findErr := s.repo.FindByID(ctx, id); errors.Is(findErr, lockerserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Locker", id)
		}
		s.cfg.Log.Warn("Conditional locker status update lost the race",
			"locker_id", id,
			"expected_status", expected,
		)
		return apperrors.Conflict("Locker status changed concurrently")
	}

	s.cfg.Log.Error("Failed to update locker status", "locker_id", id, "error", err)
	return apperrors.Internal("Failed to update locker status", err)
}

// Open releases a locked locker for use. Only the locked state can be opened;
// broken, available, and booked lockers reject the operation.
func (s *lockerService) Open(ctx context.Context, id string) (string, error) {
	status, err := s.GetStatus(ctx, id)
	if err != nil {
		return "", err
	}
	if status != model.LockerStatusLocked {
		return "", apperrors.Conflict("Locker is unable to be opened")
	}

	if err := s.setStatus(ctx, id, model.LockerStatusAvailable); err != nil {
		return "", err
	}
	return model.LockerStatusAvailable, nil
}
