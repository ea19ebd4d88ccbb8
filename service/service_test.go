package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"civicreport/database"
	"civicreport/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
	d    *database.Database
)

func setUp() {
	db, mock, _ = sqlmock.New()
	d = database.NewWithDB(db)
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

// recordingNotifier signals on a channel so tests can wait for the
// asynchronous side effects to run.
type recordingNotifier struct {
	created chan *models.Report
	changed chan [2]models.Status
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		created: make(chan *models.Report, 1),
		changed: make(chan [2]models.Status, 1),
	}
}

func (n *recordingNotifier) ReportCreated(ctx context.Context, report *models.Report) {
	n.created <- report
}

func (n *recordingNotifier) StatusChanged(ctx context.Context, report *models.Report, oldStatus, newStatus models.Status) {
	n.changed <- [2]models.Status{oldStatus, newStatus}
}

func reportRow(reportID, userID, statusID int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "location", "photo", "comment", "user_id", "status_id", "created_at", "updated_at"}).
		AddRow(reportID, "Rua das Flores 12", nil, nil, userID, statusID, now, now)
}

func TestUpdateReportStatusRequiresManagerRole(t *testing.T) {
	it(func() {
		svc := New(d, newRecordingNotifier(), nil)

		_, _, err := svc.UpdateReportStatus(context.Background(), 42, int64(models.StatusResolved), models.RoleUser)
		if !errors.Is(err, models.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}

		// No database work may happen before the role check
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestUpdateReportStatusRejectsUnknownStatus(t *testing.T) {
	it(func() {
		svc := New(d, newRecordingNotifier(), nil)

		for _, statusID := range []int64{0, 4, -1, 99} {
			_, _, err := svc.UpdateReportStatus(context.Background(), 42, statusID, models.RoleAdmin)
			if !errors.Is(err, models.ErrUnknownStatus) {
				t.Errorf("status id %d: expected ErrUnknownStatus, got %v", statusID, err)
			}
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestUpdateReportStatusAppliesTransitionAndSideEffects(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+) FOR UPDATE").
			WithArgs(int64(42)).
			WillReturnRows(reportRow(42, 7, 1))
		mock.ExpectExec("UPDATE reports SET status_id = (.+), updated_at = NOW\\(\\) WHERE id = (.+)").
			WithArgs(int64(models.StatusInProgress), int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Points recompute runs synchronously after the commit
		mock.ExpectQuery("SELECT status_id, COUNT\\(\\*\\) FROM reports WHERE user_id = (.+) GROUP BY status_id").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"status_id", "count"}).
				AddRow(1, 1).
				AddRow(2, 1))
		mock.ExpectExec("UPDATE users SET points = (.+) WHERE id = (.+)").
			WithArgs(6, int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		notifier := newRecordingNotifier()
		svc := New(d, notifier, nil)

		report, oldStatus, err := svc.UpdateReportStatus(context.Background(), 42, int64(models.StatusInProgress), models.RoleCurator)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Status != models.StatusInProgress {
			t.Errorf("report status = %v, want em resolução", report.Status)
		}
		if oldStatus != models.StatusPending {
			t.Errorf("old status = %v, want pendente", oldStatus)
		}

		select {
		case change := <-notifier.changed:
			if change[0] != models.StatusPending || change[1] != models.StatusInProgress {
				t.Errorf("notified %v -> %v, want pendente -> em resolução", change[0], change[1])
			}
		case <-time.After(2 * time.Second):
			t.Fatal("owner notification never fired")
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestUpdateReportStatusProgressionFailureSkipsSideEffects(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+) FOR UPDATE").
			WithArgs(int64(42)).
			WillReturnRows(reportRow(42, 7, 3))
		mock.ExpectRollback()

		notifier := newRecordingNotifier()
		svc := New(d, notifier, nil)

		_, _, err := svc.UpdateReportStatus(context.Background(), 42, int64(models.StatusInProgress), models.RoleAdmin)
		var pe *models.ProgressionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected progression error, got %v", err)
		}

		select {
		case <-notifier.changed:
			t.Error("notification fired for a rejected transition")
		case <-time.After(100 * time.Millisecond):
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestUpdateReportStatusSurvivesPointsFailure(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+) FOR UPDATE").
			WithArgs(int64(42)).
			WillReturnRows(reportRow(42, 7, 2))
		mock.ExpectExec("UPDATE reports SET status_id = (.+), updated_at = NOW\\(\\) WHERE id = (.+)").
			WithArgs(int64(models.StatusResolved), int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		mock.ExpectQuery("SELECT status_id, COUNT\\(\\*\\) FROM reports WHERE user_id = (.+) GROUP BY status_id").
			WithArgs(int64(7)).
			WillReturnError(errors.New("connection lost"))

		notifier := newRecordingNotifier()
		svc := New(d, notifier, nil)

		// The committed transition must still succeed
		report, oldStatus, err := svc.UpdateReportStatus(context.Background(), 42, int64(models.StatusResolved), models.RoleAdmin)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Status != models.StatusResolved || oldStatus != models.StatusInProgress {
			t.Errorf("transition = %v -> %v, want em resolução -> resolvido", oldStatus, report.Status)
		}

		select {
		case <-notifier.changed:
		case <-time.After(2 * time.Second):
			t.Fatal("owner notification never fired")
		}
	})
}

func TestCreateReportFiresCreationSideEffects(t *testing.T) {
	it(func() {
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reports \\(location, photo, comment, user_id, status_id\\)").
			WithArgs("Avenida Central", nil, nil, int64(7), int64(models.StatusPending)).
			WillReturnResult(sqlmock.NewResult(11, 1))
		mock.ExpectExec("INSERT INTO category_report \\(category_id, report_id\\) VALUES \\((.+), (.+)\\)").
			WithArgs(int64(4), int64(11)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		mock.ExpectQuery("SELECT id, location, photo, comment, user_id, status_id, created_at, updated_at FROM reports WHERE id = (.+)").
			WithArgs(int64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "location", "photo", "comment", "user_id", "status_id", "created_at", "updated_at"}).
				AddRow(11, "Avenida Central", nil, nil, 7, 1, now, now))
		mock.ExpectQuery("SELECT c.id, c.category FROM categories c").
			WithArgs(int64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "category"}).
				AddRow(4, "Lixo na via"))

		notifier := newRecordingNotifier()
		svc := New(d, notifier, nil)

		report, err := svc.CreateReport(context.Background(), 7, "Avenida Central", "", "", []int64{4})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Status != models.StatusPending {
			t.Errorf("new report status = %v, want pendente", report.Status)
		}

		select {
		case created := <-notifier.created:
			if created.ID != 11 {
				t.Errorf("notified report %d, want 11", created.ID)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("creation notification never fired")
		}
	})
}
