// Package service implements the report lifecycle: creation, the status
// transition engine and its best-effort side effects.
package service

import (
	"context"
	"time"

	"civicreport/database"
	"civicreport/models"

	"github.com/apex/log"
)

// Notifier reacts to report lifecycle events. Implementations must be
// best-effort: they never return errors to the write path.
type Notifier interface {
	ReportCreated(ctx context.Context, report *models.Report)
	StatusChanged(ctx context.Context, report *models.Report, oldStatus, newStatus models.Status)
}

// EventPublisher publishes report lifecycle events for downstream pipelines
type EventPublisher interface {
	Publish(message any) error
}

// ReportEvent is the payload published on report creation and status change
type ReportEvent struct {
	Type      string    `json:"type"`
	ReportID  int64     `json:"report_id"`
	UserID    int64     `json:"user_id"`
	Location  string    `json:"location"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}

// Service orchestrates report writes and their side effects
type Service struct {
	db                *database.Database
	notifier          Notifier
	events            EventPublisher
	sideEffectTimeout time.Duration
}

// New creates a report service. events may be nil when no broker is
// configured; lifecycle events are then skipped.
func New(db *database.Database, notifier Notifier, events EventPublisher) *Service {
	return &Service{
		db:                db,
		notifier:          notifier,
		events:            events,
		sideEffectTimeout: 30 * time.Second,
	}
}

// CreateReport persists a new report and fires the creation side effects.
// The report itself is committed before any side effect runs; side effect
// failures never surface to the caller.
func (s *Service) CreateReport(ctx context.Context, userID int64, location, photo, comment string, categoryIDs []int64) (*models.Report, error) {
	report, err := s.db.CreateReport(ctx, userID, location, photo, comment, categoryIDs)
	if err != nil {
		return nil, err
	}

	go s.runCreatedSideEffects(report)

	return report, nil
}

// UpdateReportStatus validates and applies a status transition. The actor
// must be admin or curator, the requested status id must resolve to a known
// status, and the requested rank must be strictly greater than the current
// rank; the rank comparison happens against the latest committed status under
// a row lock. After a successful commit the owner's points are recomputed and
// the owner is notified. Both side effects are best-effort.
func (s *Service) UpdateReportStatus(ctx context.Context, reportID, statusID int64, actorRole models.Role) (*models.Report, models.Status, error) {
	if !actorRole.CanManageReports() {
		return nil, 0, models.ErrForbidden
	}

	requested, ok := models.StatusFromID(statusID)
	if !ok {
		return nil, 0, models.ErrUnknownStatus
	}

	report, oldStatus, err := s.db.ApplyStatusTransition(ctx, reportID, requested)
	if err != nil {
		return nil, 0, err
	}

	// The transition is committed; everything below must not fail it.
	if _, err := s.RecomputePoints(ctx, report.UserID); err != nil {
		log.WithError(err).Errorf("Failed to recompute points of user %d after report %d transition", report.UserID, report.ID)
	}

	go s.runStatusSideEffects(report, oldStatus, requested)

	return report, oldStatus, nil
}

// RecomputePoints re-derives a user's points from their reports grouped by
// status and persists the result. Re-deriving from the source of truth on
// every call keeps the value convergent even if a prior recompute was missed.
func (s *Service) RecomputePoints(ctx context.Context, userID int64) (int, error) {
	counts, err := s.db.CountReportsByStatus(ctx, userID)
	if err != nil {
		return 0, err
	}

	points := CalculatePoints(counts)

	if err := s.db.SetUserPoints(ctx, userID, points); err != nil {
		return 0, err
	}

	log.Infof("User %d points recomputed to %d", userID, points)
	return points, nil
}

func (s *Service) runCreatedSideEffects(report *models.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), s.sideEffectTimeout)
	defer cancel()

	s.notifier.ReportCreated(ctx, report)

	s.publishEvent(ReportEvent{
		Type:      "report_created",
		ReportID:  report.ID,
		UserID:    report.UserID,
		Location:  report.Location,
		NewStatus: report.Status.Label(),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Service) runStatusSideEffects(report *models.Report, oldStatus, newStatus models.Status) {
	ctx, cancel := context.WithTimeout(context.Background(), s.sideEffectTimeout)
	defer cancel()

	s.notifier.StatusChanged(ctx, report, oldStatus, newStatus)

	s.publishEvent(ReportEvent{
		Type:      "status_update",
		ReportID:  report.ID,
		UserID:    report.UserID,
		Location:  report.Location,
		OldStatus: oldStatus.Label(),
		NewStatus: newStatus.Label(),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Service) publishEvent(event ReportEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(event); err != nil {
		log.WithError(err).Errorf("Failed to publish %s event for report %d", event.Type, event.ReportID)
	}
}
