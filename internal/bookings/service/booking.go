package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	bookingserrors "yellowbox/internal/bookings/errors"
	"yellowbox/internal/bookings/events"
	"yellowbox/internal/bookings/repository"
	"yellowbox/internal/bookings/validator"
	"yellowbox/pkg/config"
	apperrors "yellowbox/pkg/errors"
	"yellowbox/pkg/model"
)

// LockerGateway is the coordinator's view of the locker service. Locker state
// is owned by that service; the coordinator only reads it and requests
// mutations, never writes it directly.
type LockerGateway interface {
	GetStatus(ctx context.Context, lockerID string) (string, error)
	SetStatus(ctx context.Context, lockerID, status string) error
	SetStatusIf(ctx context.Context, lockerID, expected, status string) error
}

// UserGateway resolves user ids. A nil user with a nil error is a lookup
// miss, distinct from a transport failure.
type UserGateway interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
}

type BookingService interface {
	Start(ctx context.Context, req *model.StartBookingRequest) (*model.StartBookingResult, error)
	End(ctx context.Context, req *model.EndBookingRequest) (*model.EndBookingResult, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	ReconcilePending(ctx context.Context) (promoted, voided int, err error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockers   LockerGateway
	users     UserGateway
	publisher events.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockers LockerGateway,
	users UserGateway,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockers:   lockers,
		users:     users,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Start books a locker for a user. The sequencing matters: both preconditions
// are checked before any mutation, the booking intent is persisted before the
// locker is touched, and the locker transition is a compare-and-swap so two
// concurrent starts for the same locker cannot both succeed.
func (s *bookingService) Start(ctx context.Context, req *model.StartBookingRequest) (*model.StartBookingResult, error) {
	if err := s.validator.ValidateStart(req); err != nil {
		s.cfg.Log.Warn("Start booking validation failed", "error", err)
		return nil, apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}

	status, err := s.lockers.GetStatus(ctx, req.LockerID)
	if err != nil {
		s.cfg.Log.Error("Failed to check locker status", "locker_id", req.LockerID, "error", err)
		return nil, err
	}
	if status != model.LockerStatusAvailable {
		return nil, apperrors.Conflict("Locker is unable to be booked currently")
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		s.cfg.Log.Error("Failed to resolve user", "user_id", req.UserID, "error", err)
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, apperrors.NotFound("User is not found")
	}

	booking := &model.Booking{
		ID:        fmt.Sprintf("booking_%s", uuid.NewString()),
		UserID:    req.UserID,
		LockerID:  req.LockerID,
		StartedAt: s.now().UnixMilli(),
		Status:    model.BookingStatusPending,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to record booking intent", "locker_id", req.LockerID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	if err := s.lockers.SetStatusIf(ctx, req.LockerID, model.LockerStatusAvailable, model.LockerStatusBooked); err != nil {
		appErr := apperrors.AsAppError(err)
		if appErr.Code == apperrors.CodeConflict || appErr.Code == apperrors.CodeNotFound {
			// The locker moved between the check and the swap. Void the
			// intent and surface the precondition failure.
			s.void(ctx, booking.ID)
			return nil, err
		}
		// Transport failure: the swap may or may not have landed. Leave the
		// intent pending; the reconciler settles it either way.
		s.cfg.Log.Error("Locker mutation failed after booking intent recorded",
			"booking_id", booking.ID,
			"locker_id", req.LockerID,
			"error", err,
		)
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, booking.ID, model.BookingStatusPending, model.BookingStatusActive); err != nil {
		// Locker is booked but the record is still pending; the reconciler
		// promotes it once it sees the locker landed.
		s.cfg.Log.Error("Failed to activate booking after locker mutation",
			"booking_id", booking.ID,
			"locker_id", req.LockerID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to activate booking", err)
	}
	booking.Status = model.BookingStatusActive

	s.publisher.BookingStarted(ctx, booking)

	s.cfg.Log.Info("Booking started",
		"booking_id", booking.ID,
		"locker_id", req.LockerID,
		"user_id", req.UserID,
	)
	return &model.StartBookingResult{
		BookingID: booking.ID,
		Result:    "Booking started",
	}, nil
}

// End releases the booking's locker and closes the record, in that order. A
// failure between the two leaves the locker available and the record open; a
// repeated End then re-issues the idempotent release and closes the record,
// which is the workflow's forward-recovery path. Only active bookings can
// end: a pending record's locker mutation is unconfirmed, so releasing its
// locker could free one that a competing booking holds.
func (s *bookingService) End(ctx context.Context, req *model.EndBookingRequest) (*model.EndBookingResult, error) {
	if err := s.validator.ValidateEnd(req); err != nil {
		s.cfg.Log.Warn("End booking validation failed", "error", err)
		return nil, apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}
	bookingID := req.BookingID

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	if booking.IsCompleted() {
		return nil, apperrors.BadRequest(fmt.Sprintf("Booking with ID %s is already completed", bookingID))
	}
	if booking.Status != model.BookingStatusActive {
		return nil, apperrors.BadRequest(fmt.Sprintf("Booking with ID %s is not active", bookingID))
	}

	if err := s.lockers.SetStatus(ctx, booking.LockerID, model.LockerStatusAvailable); err != nil {
		s.cfg.Log.Error("Failed to release locker",
			"booking_id", bookingID,
			"locker_id", booking.LockerID,
			"error", err,
		)
		return nil, err
	}

	endedAt := s.now().UnixMilli()
	if err := s.repo.Complete(ctx, bookingID, endedAt); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			// The record left the active state between our read and the
			// write; someone else settled it.
			return nil, apperrors.Conflict(fmt.Sprintf("Booking with ID %s was modified concurrently", bookingID))
		}
		s.cfg.Log.Error("Failed to close booking after locker release",
			"booking_id", bookingID,
			"locker_id", booking.LockerID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to complete booking", err)
	}

	booking.Status = model.BookingStatusCompleted
	booking.EndedAt = &endedAt
	s.publisher.BookingEnded(ctx, booking)

	s.cfg.Log.Info("Booking ended",
		"booking_id", bookingID,
		"locker_id", booking.LockerID,
	)
	return &model.EndBookingResult{
		BookingID: bookingID,
		EndedAt:   endedAt,
		LockerID:  booking.LockerID,
		Result:    "Booking ended",
	}, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to count bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to count bookings", err)
	}

	bookings, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}

	return bookings, count, nil
}

// ReconcilePending settles booking intents whose locker mutation outcome is
// unknown. A pending record older than the TTL is promoted to active when its
// locker holds booked and no other active booking claims that locker;
// otherwise it is voided.
func (s *bookingService) ReconcilePending(ctx context.Context) (int, int, error) {
	cutoff := s.now().Add(-s.cfg.PendingBookingTTL).UnixMilli()
	pending, err := s.repo.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, 0, apperrors.Internal("Failed to load pending bookings", err)
	}

	var promoted, voided int
	for _, booking := range pending {
		status, err := s.lockers.GetStatus(ctx, booking.LockerID)
		if err != nil {
			s.cfg.Log.Warn("Skipping pending booking, locker status unavailable",
				"booking_id", booking.ID,
				"locker_id", booking.LockerID,
				"error", err,
			)
			continue
		}

		if status == model.LockerStatusBooked && !s.lockerClaimedByOther(ctx, booking) {
			if err := s.repo.UpdateStatus(ctx, booking.ID, model.BookingStatusPending, model.BookingStatusActive); err != nil {
				if errors.Is(err, bookingserrors.ErrStatusConflict) {
					// Someone settled the record since we listed it.
					continue
				}
				s.cfg.Log.Error("Failed to promote pending booking", "booking_id", booking.ID, "error", err)
				continue
			}
			promoted++
			s.cfg.Log.Info("Pending booking promoted",
				"booking_id", booking.ID,
				"locker_id", booking.LockerID,
			)
			continue
		}

		if err := s.repo.UpdateStatus(ctx, booking.ID, model.BookingStatusPending, model.BookingStatusVoid); err != nil {
			if errors.Is(err, bookingserrors.ErrStatusConflict) {
				continue
			}
			s.cfg.Log.Error("Failed to void pending booking", "booking_id", booking.ID, "error", err)
			continue
		}
		voided++
		s.cfg.Log.Info("Pending booking voided",
			"booking_id", booking.ID,
			"locker_id", booking.LockerID,
			"locker_status", status,
		)
	}

	return promoted, voided, nil
}

func (s *bookingService) lockerClaimedByOther(ctx context.Context, booking *model.Booking) bool {
	other, err := s.repo.FindActiveByLocker(ctx, booking.LockerID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return false
		}
		s.cfg.Log.Warn("Failed to check for competing active booking",
			"booking_id", booking.ID,
			"locker_id", booking.LockerID,
			"error", err,
		)
		// Err on the safe side: without a clear answer, do not promote.
		return true
	}
	return other.ID != booking.ID
}

func (s *bookingService) void(ctx context.Context, bookingID string) {
	if err := s.repo.UpdateStatus(ctx, bookingID, model.BookingStatusPending, model.BookingStatusVoid); err != nil {
		// The reconciler voids it later; the locker was never mutated.
		s.cfg.Log.Warn("Failed to void booking intent", "booking_id", bookingID, "error", err)
	}
}
