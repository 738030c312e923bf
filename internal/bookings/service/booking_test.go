package service

import (
	"context"
	"testing"
	"time"

	bookingserrors "yellowbox/internal/bookings/errors"
	"yellowbox/internal/bookings/validator"
	"yellowbox/pkg/config"
	apperrors "yellowbox/pkg/errors"
	"yellowbox/pkg/logger"
	"yellowbox/pkg/model"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	createFunc             func(ctx context.Context, booking *model.Booking) error
	findByIDFunc           func(ctx context.Context, id string) (*model.Booking, error)
	findAllFunc            func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	countFunc              func(ctx context.Context) (int64, error)
	updateStatusFunc       func(ctx context.Context, id string, from, to string) error
	completeFunc           func(ctx context.Context, id string, endedAt int64) error
	findPendingBeforeFunc  func(ctx context.Context, cutoff int64) ([]*model.Booking, error)
	findActiveByLockerFunc func(ctx context.Context, lockerID string) (*model.Booking, error)

	created       []*model.Booking
	statusUpdates []string
	completions   []string
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	c := *booking
	m.created = append(m.created, &c)
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to string) error {
	m.statusUpdates = append(m.statusUpdates, id+":"+from+"->"+to)
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return nil
}

func (m *mockBookingRepository) Complete(ctx context.Context, id string, endedAt int64) error {
	m.completions = append(m.completions, id)
	if m.completeFunc != nil {
		return m.completeFunc(ctx, id, endedAt)
	}
	return nil
}

func (m *mockBookingRepository) FindPendingBefore(ctx context.Context, cutoff int64) ([]*model.Booking, error) {
	if m.findPendingBeforeFunc != nil {
		return m.findPendingBeforeFunc(ctx, cutoff)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindActiveByLocker(ctx context.Context, lockerID string) (*model.Booking, error) {
	if m.findActiveByLockerFunc != nil {
		return m.findActiveByLockerFunc(ctx, lockerID)
	}
	return nil, bookingserrors.ErrNotFound
}

type mockLockerGateway struct {
	getStatusFunc   func(ctx context.Context, lockerID string) (string, error)
	setStatusFunc   func(ctx context.Context, lockerID, status string) error
	setStatusIfFunc func(ctx context.Context, lockerID, expected, status string) error

	setStatusCalls   []string
	setStatusIfCalls []string
}

func (m *mockLockerGateway) GetStatus(ctx context.Context, lockerID string) (string, error) {
	if m.getStatusFunc != nil {
		return m.getStatusFunc(ctx, lockerID)
	}
	return model.LockerStatusAvailable, nil
}

func (m *mockLockerGateway) SetStatus(ctx context.Context, lockerID, status string) error {
	m.setStatusCalls = append(m.setStatusCalls, lockerID+":"+status)
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, lockerID, status)
	}
	return nil
}

func (m *mockLockerGateway) SetStatusIf(ctx context.Context, lockerID, expected, status string) error {
	m.setStatusIfCalls = append(m.setStatusIfCalls, lockerID+":"+expected+"->"+status)
	if m.setStatusIfFunc != nil {
		return m.setStatusIfFunc(ctx, lockerID, expected, status)
	}
	return nil
}

type mockUserGateway struct {
	getByIDFunc func(ctx context.Context, userID string) (*model.User, error)
}

func (m *mockUserGateway) GetByID(ctx context.Context, userID string) (*model.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, userID)
	}
	return &model.User{ID: userID, Email: "user@example.com"}, nil
}

type mockPublisher struct {
	started []*model.Booking
	ended   []*model.Booking
}

func (m *mockPublisher) BookingStarted(ctx context.Context, booking *model.Booking) {
	m.started = append(m.started, booking)
}

func (m *mockPublisher) BookingEnded(ctx context.Context, booking *model.Booking) {
	m.ended = append(m.ended, booking)
}

func newTestService(repo *mockBookingRepository, lockers *mockLockerGateway, users *mockUserGateway, publisher *mockPublisher) *bookingService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:               log,
		PendingBookingTTL: 2 * time.Minute,
	}
	svc := NewBookingService(repo, lockers, users, publisher, validator.NewBookingValidator(log), cfg)
	return svc.(*bookingService)
}

// ────────────────────────────────────────────────
// Start
// ────────────────────────────────────────────────

func TestStart_Success(t *testing.T) {
	repo := &mockBookingRepository{}
	lockers := &mockLockerGateway{}
	users := &mockUserGateway{}
	publisher := &mockPublisher{}
	svc := newTestService(repo, lockers, users, publisher)

	result, err := svc.Start(context.Background(), &model.StartBookingRequest{
		LockerID: "locker-1",
		UserID:   "user_abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Result != "Booking started" {
		t.Errorf("expected result message 'Booking started', got %q", result.Result)
	}
	if result.BookingID == "" {
		t.Error("expected a booking ID in the result")
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one booking record, got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.Status != model.BookingStatusPending {
		t.Errorf("booking must be recorded pending before the locker is touched, got %q", created.Status)
	}
	if created.StartedAt == 0 {
		t.Error("expected a start timestamp")
	}
	if created.EndedAt != nil {
		t.Error("a fresh booking must have no end timestamp")
	}

	if len(lockers.setStatusIfCalls) != 1 {
		t.Fatalf("expected exactly one conditional locker update, got %d", len(lockers.setStatusIfCalls))
	}
	if lockers.setStatusIfCalls[0] != "locker-1:available->booked" {
		t.Errorf("unexpected locker transition: %s", lockers.setStatusIfCalls[0])
	}

	if len(repo.statusUpdates) != 1 || repo.statusUpdates[0] != created.ID+":pending->active" {
		t.Errorf("expected the booking promoted to active, got %v", repo.statusUpdates)
	}
	if len(publisher.started) != 1 {
		t.Errorf("expected one started event, got %d", len(publisher.started))
	}
}

func TestStart_LockerNotAvailable(t *testing.T) {
	repo := &mockBookingRepository{}
	lockers := &mockLockerGateway{
		getStatusFunc: func(ctx context.Context, lockerID string) (string, error) {
			return model.LockerStatusBooked, nil
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.Start(context.Background(), &model.StartBookingRequest{
		LockerID: "locker-1",
		UserID:   "user_abc",
	})
	if err == nil {
		t.Fatal("expected an error for an unavailable locker")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict, got %s", appErr.Code)
	}
	if len(repo.created) != 0 {
		t.Error("no booking record may be written when the locker is unavailable")
	}
	if len(lockers.setStatusIfCalls) != 0 {
		t.Error("the locker must not be mutated when it is unavailable")
	}
}

func TestStart_UserNotFound(t *testing.T) {
	repo := &mockBookingRepository{}
	lockers := &mockLockerGateway{}
	users := &mockUserGateway{
		getByIDFunc: func(ctx context.Context, userID string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := newTestService(repo, lockers, users, &mockPublisher{})

	_, err := svc.Start(context.Background(), &model.StartBookingRequest{
		LockerID: "locker-1",
		UserID:   "user_missing",
	})
	if err == nil {
		t.Fatal("expected an error for a missing user")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected not found, got %s", appErr.Code)
	}
	if len(repo.created) != 0 {
		t.Error("no booking record may be written for a missing user")
	}
	if len(lockers.setStatusIfCalls) != 0 {
		t.Error("the locker must not be mutated for a missing user")
	}
}

func TestStart_ValidationFailure(t *testing.T) {
	repo := &mockBookingRepository{}
	lockers := &mockLockerGateway{}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	tests := []struct {
		name string
		req  *model.StartBookingRequest
	}{
		{"missing locker", &model.StartBookingRequest{UserID: "user_abc"}},
		{"missing user", &model.StartBookingRequest{LockerID: "locker-1"}},
		{"empty request", &model.StartBookingRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeValidation {
				t.Errorf("expected validation error, got %s", appErr.Code)
			}
		})
	}

	if len(repo.created) != 0 || len(lockers.setStatusIfCalls) != 0 {
		t.Error("invalid input must cause no side effects")
	}
}

func TestStart_LostRaceVoidsIntent(t *testing.T) {
	repo := &mockBookingRepository{}
	lockers := &mockLockerGateway{
		setStatusIfFunc: func(ctx context.Context, lockerID, expected, status string) error {
			return apperrors.Conflict("Locker status changed concurrently")
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.Start(context.Background(), &model.StartBookingRequest{
		LockerID: "locker-1",
		UserID:   "user_abc",
	})
	if err == nil {
		t.Fatal("expected an error when the conditional locker update fails")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict, got %s", appErr.Code)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected the intent to have been recorded, got %d records", len(repo.created))
	}
	bookingID := repo.created[0].ID
	if len(repo.statusUpdates) != 1 || repo.statusUpdates[0] != bookingID+":pending->void" {
		t.Errorf("a lost race must void the intent, got updates %v", repo.statusUpdates)
	}
}

func TestStart_TransportFailureLeavesPending(t *testing.T) {
	repo := &mockBookingRepository{}
	lockers := &mockLockerGateway{
		setStatusIfFunc: func(ctx context.Context, lockerID, expected, status string) error {
			return apperrors.Internal("locker service unreachable", nil)
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.Start(context.Background(), &model.StartBookingRequest{
		LockerID: "locker-1",
		UserID:   "user_abc",
	})
	if err == nil {
		t.Fatal("expected an error when the locker service is unreachable")
	}

	// The outcome of the locker update is unknown: the record must stay
	// pending for the reconciler, not be voided.
	if len(repo.statusUpdates) != 0 {
		t.Errorf("a transport failure must not touch the record, got updates %v", repo.statusUpdates)
	}
}

func TestStart_ConcurrentStartsOnlyOneWins(t *testing.T) {
	// Both requests observe the locker available; the conditional update
	// admits only the first.
	var swaps int
	repo := &mockBookingRepository{}
	lockers := &mockLockerGateway{
		setStatusIfFunc: func(ctx context.Context, lockerID, expected, status string) error {
			swaps++
			if swaps > 1 {
				return apperrors.Conflict("Locker status changed concurrently")
			}
			return nil
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	first, err := svc.Start(context.Background(), &model.StartBookingRequest{LockerID: "locker-1", UserID: "user_a"})
	if err != nil {
		t.Fatalf("first start should succeed: %v", err)
	}
	_, err = svc.Start(context.Background(), &model.StartBookingRequest{LockerID: "locker-1", UserID: "user_b"})
	if err == nil {
		t.Fatal("second start must lose the race")
	}

	var active int
	for _, update := range repo.statusUpdates {
		if update == first.BookingID+":pending->active" {
			active++
		}
	}
	if active != 1 {
		t.Errorf("exactly one booking may become active, got %d", active)
	}
}

// ────────────────────────────────────────────────
// End
// ────────────────────────────────────────────────

func TestEnd_Success(t *testing.T) {
	var releaseSeq, completeSeq, seq int
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:        id,
				UserID:    "user_abc",
				LockerID:  "locker-1",
				StartedAt: time.Now().Add(-time.Hour).UnixMilli(),
				Status:    model.BookingStatusActive,
			}, nil
		},
		completeFunc: func(ctx context.Context, id string, endedAt int64) error {
			seq++
			completeSeq = seq
			return nil
		},
	}
	lockers := &mockLockerGateway{
		setStatusFunc: func(ctx context.Context, lockerID, status string) error {
			seq++
			releaseSeq = seq
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, lockers, &mockUserGateway{}, publisher)

	result, err := svc.End(context.Background(), &model.EndBookingRequest{BookingID: "booking_1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Result != "Booking ended" {
		t.Errorf("expected result message 'Booking ended', got %q", result.Result)
	}
	if result.LockerID != "locker-1" {
		t.Errorf("expected locker-1 in the result, got %q", result.LockerID)
	}
	if result.EndedAt == 0 {
		t.Error("expected an end timestamp in the result")
	}

	if len(lockers.setStatusCalls) != 1 || lockers.setStatusCalls[0] != "locker-1:available" {
		t.Errorf("expected the locker released, got %v", lockers.setStatusCalls)
	}
	if releaseSeq == 0 || completeSeq == 0 || releaseSeq > completeSeq {
		t.Errorf("locker release must precede record completion, got release=%d complete=%d", releaseSeq, completeSeq)
	}
	if len(publisher.ended) != 1 {
		t.Errorf("expected one ended event, got %d", len(publisher.ended))
	}
}

func TestEnd_BookingNotFound(t *testing.T) {
	repo := &mockBookingRepository{}
	lockers := &mockLockerGateway{}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.End(context.Background(), &model.EndBookingRequest{BookingID: "booking_missing"})
	if err == nil {
		t.Fatal("expected an error for a missing booking")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected not found, got %s", appErr.Code)
	}
	if len(lockers.setStatusCalls) != 0 {
		t.Error("no locker mutation may happen for a missing booking")
	}
}

func TestEnd_AlreadyCompleted(t *testing.T) {
	ended := time.Now().Add(-time.Hour).UnixMilli()
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:       id,
				LockerID: "locker-1",
				Status:   model.BookingStatusCompleted,
				EndedAt:  &ended,
			}, nil
		},
	}
	lockers := &mockLockerGateway{}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.End(context.Background(), &model.EndBookingRequest{BookingID: "booking_1"})
	if err == nil {
		t.Fatal("expected an error for an already completed booking")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeBadRequest {
		t.Errorf("expected bad request, got %s", appErr.Code)
	}
	if len(lockers.setStatusCalls) != 0 || len(repo.completions) != 0 {
		t.Error("a completed booking must cause no further mutations")
	}
}

func TestEnd_PendingBookingRejected(t *testing.T) {
	// A pending record's locker mutation never confirmed: ending it would
	// release a locker the booking may not hold and complete a booking that
	// was never active.
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:       id,
				LockerID: "locker-1",
				Status:   model.BookingStatusPending,
			}, nil
		},
	}
	lockers := &mockLockerGateway{}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.End(context.Background(), &model.EndBookingRequest{BookingID: "booking_1"})
	if err == nil {
		t.Fatal("expected an error for a pending booking")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeBadRequest {
		t.Errorf("expected bad request, got %s", appErr.Code)
	}
	if len(lockers.setStatusCalls) != 0 {
		t.Error("the locker must not be released for a pending booking")
	}
	if len(repo.completions) != 0 {
		t.Error("a pending booking must not be completed")
	}
}

func TestEnd_VoidBookingRejected(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:       id,
				LockerID: "locker-1",
				Status:   model.BookingStatusVoid,
			}, nil
		},
	}
	lockers := &mockLockerGateway{}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.End(context.Background(), &model.EndBookingRequest{BookingID: "booking_1"})
	if err == nil {
		t.Fatal("expected an error for a void booking")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeBadRequest {
		t.Errorf("expected bad request, got %s", appErr.Code)
	}
	if len(lockers.setStatusCalls) != 0 || len(repo.completions) != 0 {
		t.Error("a void booking must cause no mutations")
	}
}

func TestEnd_ValidationFailure(t *testing.T) {
	repo := &mockBookingRepository{}
	lockers := &mockLockerGateway{}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.End(context.Background(), &model.EndBookingRequest{})
	if err == nil {
		t.Fatal("expected a validation error for a missing booking ID")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected validation error, got %s", appErr.Code)
	}
	if len(lockers.setStatusCalls) != 0 {
		t.Error("invalid input must cause no side effects")
	}
}

func TestEnd_ConcurrentlySettledBooking(t *testing.T) {
	// The booking reads as active but leaves that state before the
	// completion write lands; the guarded write reports the conflict instead
	// of overwriting whatever settled the record.
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:       id,
				LockerID: "locker-1",
				Status:   model.BookingStatusActive,
			}, nil
		},
		completeFunc: func(ctx context.Context, id string, endedAt int64) error {
			return bookingserrors.ErrStatusConflict
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, &mockLockerGateway{}, &mockUserGateway{}, publisher)

	_, err := svc.End(context.Background(), &model.EndBookingRequest{BookingID: "booking_1"})
	if err == nil {
		t.Fatal("expected an error when the booking settles concurrently")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict, got %s", appErr.Code)
	}
	if len(publisher.ended) != 0 {
		t.Error("no ended event may be published for a lost completion")
	}
}

func TestEnd_ReleaseFailureKeepsBookingOpen(t *testing.T) {
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{
				ID:       id,
				LockerID: "locker-1",
				Status:   model.BookingStatusActive,
			}, nil
		},
	}
	lockers := &mockLockerGateway{
		setStatusFunc: func(ctx context.Context, lockerID, status string) error {
			return apperrors.Internal("locker service unreachable", nil)
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.End(context.Background(), &model.EndBookingRequest{BookingID: "booking_1"})
	if err == nil {
		t.Fatal("expected an error when the locker release fails")
	}
	if len(repo.completions) != 0 {
		t.Error("the record must stay open when the locker release fails")
	}
}

func TestEnd_RetryAfterPartialFailure(t *testing.T) {
	// First attempt: release succeeds, completion fails. Second attempt
	// re-releases the locker and closes the record.
	var completeAttempts int
	booking := &model.Booking{
		ID:       "booking_1",
		LockerID: "locker-1",
		Status:   model.BookingStatusActive,
	}
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			b := *booking
			return &b, nil
		},
		completeFunc: func(ctx context.Context, id string, endedAt int64) error {
			completeAttempts++
			if completeAttempts == 1 {
				return apperrors.Internal("bookings database unreachable", nil)
			}
			return nil
		},
	}
	lockers := &mockLockerGateway{}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	if _, err := svc.End(context.Background(), &model.EndBookingRequest{BookingID: "booking_1"}); err == nil {
		t.Fatal("expected the first attempt to fail")
	}
	if _, err := svc.End(context.Background(), &model.EndBookingRequest{BookingID: "booking_1"}); err != nil {
		t.Fatalf("the retry should succeed: %v", err)
	}
	if len(lockers.setStatusCalls) != 2 {
		t.Errorf("each attempt re-issues the idempotent release, got %d calls", len(lockers.setStatusCalls))
	}
}

// ────────────────────────────────────────────────
// ReconcilePending
// ────────────────────────────────────────────────

func TestReconcilePending_PromotesLandedBooking(t *testing.T) {
	stale := &model.Booking{
		ID:        "booking_1",
		LockerID:  "locker-1",
		StartedAt: time.Now().Add(-10 * time.Minute).UnixMilli(),
		Status:    model.BookingStatusPending,
	}
	repo := &mockBookingRepository{
		findPendingBeforeFunc: func(ctx context.Context, cutoff int64) ([]*model.Booking, error) {
			return []*model.Booking{stale}, nil
		},
	}
	lockers := &mockLockerGateway{
		getStatusFunc: func(ctx context.Context, lockerID string) (string, error) {
			return model.LockerStatusBooked, nil
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	promoted, voided, err := svc.ReconcilePending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if promoted != 1 || voided != 0 {
		t.Errorf("expected 1 promoted, 0 voided, got %d/%d", promoted, voided)
	}
	if len(repo.statusUpdates) != 1 || repo.statusUpdates[0] != "booking_1:pending->active" {
		t.Errorf("expected the booking promoted, got %v", repo.statusUpdates)
	}
}

func TestReconcilePending_VoidsWhenLockerNotBooked(t *testing.T) {
	stale := &model.Booking{
		ID:       "booking_1",
		LockerID: "locker-1",
		Status:   model.BookingStatusPending,
	}
	repo := &mockBookingRepository{
		findPendingBeforeFunc: func(ctx context.Context, cutoff int64) ([]*model.Booking, error) {
			return []*model.Booking{stale}, nil
		},
	}
	lockers := &mockLockerGateway{
		getStatusFunc: func(ctx context.Context, lockerID string) (string, error) {
			return model.LockerStatusAvailable, nil
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	promoted, voided, err := svc.ReconcilePending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if promoted != 0 || voided != 1 {
		t.Errorf("expected 0 promoted, 1 voided, got %d/%d", promoted, voided)
	}
	if len(repo.statusUpdates) != 1 || repo.statusUpdates[0] != "booking_1:pending->void" {
		t.Errorf("expected the booking voided, got %v", repo.statusUpdates)
	}
}

func TestReconcilePending_VoidsWhenAnotherBookingHoldsLocker(t *testing.T) {
	stale := &model.Booking{
		ID:       "booking_1",
		LockerID: "locker-1",
		Status:   model.BookingStatusPending,
	}
	repo := &mockBookingRepository{
		findPendingBeforeFunc: func(ctx context.Context, cutoff int64) ([]*model.Booking, error) {
			return []*model.Booking{stale}, nil
		},
		findActiveByLockerFunc: func(ctx context.Context, lockerID string) (*model.Booking, error) {
			return &model.Booking{ID: "booking_other", LockerID: lockerID, Status: model.BookingStatusActive}, nil
		},
	}
	lockers := &mockLockerGateway{
		getStatusFunc: func(ctx context.Context, lockerID string) (string, error) {
			return model.LockerStatusBooked, nil
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	promoted, voided, err := svc.ReconcilePending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if promoted != 0 || voided != 1 {
		t.Errorf("the locker belongs to another booking, expected a void, got %d/%d", promoted, voided)
	}
}

func TestReconcilePending_LeavesConcurrentlySettledRecord(t *testing.T) {
	// The record was pending when listed but settled before the sweep's
	// write. The guarded update refuses to overwrite it, so a booking that
	// completed in the meantime is not turned into a void with an end
	// timestamp.
	stale := &model.Booking{
		ID:       "booking_1",
		LockerID: "locker-1",
		Status:   model.BookingStatusPending,
	}
	repo := &mockBookingRepository{
		findPendingBeforeFunc: func(ctx context.Context, cutoff int64) ([]*model.Booking, error) {
			return []*model.Booking{stale}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, from, to string) error {
			return bookingserrors.ErrStatusConflict
		},
	}
	lockers := &mockLockerGateway{
		getStatusFunc: func(ctx context.Context, lockerID string) (string, error) {
			return model.LockerStatusAvailable, nil
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	promoted, voided, err := svc.ReconcilePending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if promoted != 0 || voided != 0 {
		t.Errorf("a concurrently settled record counts as neither promoted nor voided, got %d/%d", promoted, voided)
	}
	if len(repo.statusUpdates) != 1 || repo.statusUpdates[0] != "booking_1:pending->void" {
		t.Errorf("the sweep must only attempt a pending-guarded write, got %v", repo.statusUpdates)
	}
}

func TestReconcilePending_SkipsOnLockerLookupFailure(t *testing.T) {
	stale := &model.Booking{
		ID:       "booking_1",
		LockerID: "locker-1",
		Status:   model.BookingStatusPending,
	}
	repo := &mockBookingRepository{
		findPendingBeforeFunc: func(ctx context.Context, cutoff int64) ([]*model.Booking, error) {
			return []*model.Booking{stale}, nil
		},
	}
	lockers := &mockLockerGateway{
		getStatusFunc: func(ctx context.Context, lockerID string) (string, error) {
			return "", apperrors.Internal("locker service unreachable", nil)
		},
	}
	svc := newTestService(repo, lockers, &mockUserGateway{}, &mockPublisher{})

	promoted, voided, err := svc.ReconcilePending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if promoted != 0 || voided != 0 {
		t.Errorf("an unreachable locker service must leave the record pending, got %d/%d", promoted, voided)
	}
	if len(repo.statusUpdates) != 0 {
		t.Errorf("expected no record updates, got %v", repo.statusUpdates)
	}
}

// ────────────────────────────────────────────────
// GetByID / GetAll
// ────────────────────────────────────────────────

func TestGetByID_EmptyID(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockerGateway{}, &mockUserGateway{}, &mockPublisher{})

	_, err := svc.GetByID(context.Background(), "")
	if err == nil {
		t.Fatal("expected an error for an empty ID")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected invalid input, got %s", appErr.Code)
	}
}

func TestGetAll_ReturnsCountAndPage(t *testing.T) {
	repo := &mockBookingRepository{
		countFunc: func(ctx context.Context) (int64, error) {
			return 42, nil
		},
		findAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
			return []*model.Booking{
				{ID: "booking_1", Status: model.BookingStatusActive},
				{ID: "booking_2", Status: model.BookingStatusCompleted},
			}, nil
		},
	}
	svc := newTestService(repo, &mockLockerGateway{}, &mockUserGateway{}, &mockPublisher{})

	bookings, count, err := svc.GetAll(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("expected count 42, got %d", count)
	}
	if len(bookings) != 2 {
		t.Errorf("expected 2 bookings, got %d", len(bookings))
	}
}
