package service

import (
	"context"
	"sync"
	"time"

	"yellowbox/pkg/logger"
)

// Reconciler periodically settles pending bookings left behind by
// interrupted start flows.
type Reconciler struct {
	service  BookingService
	interval time.Duration
	log      *logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewReconciler(service BookingService, interval time.Duration, log *logger.Logger) *Reconciler {
	return &Reconciler{
		service:  service,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the background sweep loop. Call Stop to terminate it.
func (r *Reconciler) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.sweep()
			case <-r.stopCh:
				return
			}
		}
	}()
	r.log.Info("Booking reconciler started", "interval", r.interval)
}

// Stop terminates the sweep loop and waits for an in-flight sweep to finish.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.wg.Wait()
	r.log.Info("Booking reconciler stopped")
}

func (r *Reconciler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	promoted, voided, err := r.service.ReconcilePending(ctx)
	if err != nil {
		r.log.Error("Pending booking sweep failed", "error", err)
		return
	}
	if promoted > 0 || voided > 0 {
		r.log.Info("Pending booking sweep completed", "promoted", promoted, "voided", voided)
	}
}
