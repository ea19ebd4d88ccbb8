package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"civicreport/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
	d    *Database
)

func setUp() {
	db, mock, _ = sqlmock.New()
	d = NewWithDB(db)
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func reportColumns() []string {
	return []string{"id", "location", "photo", "comment", "user_id", "status_id", "created_at", "updated_at"}
}

func lockedReportRow(reportID, userID, statusID int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(reportColumns()).
		AddRow(reportID, "Rua das Flores 12", nil, nil, userID, statusID, now, now)
}

func TestApplyStatusTransition(t *testing.T) {
	it(func() {
		testCases := []struct {
			name      string
			current   int64
			requested models.Status

			execExpected    bool
			wantProgression bool
		}{
			{
				name:         "pending to in progress",
				current:      1,
				requested:    models.StatusInProgress,
				execExpected: true,
			},
			{
				name:         "pending to resolved skips a step",
				current:      1,
				requested:    models.StatusResolved,
				execExpected: true,
			},
			{
				name:         "in progress to resolved",
				current:      2,
				requested:    models.StatusResolved,
				execExpected: true,
			},
			{
				name:            "resolved back to pending",
				current:         3,
				requested:       models.StatusPending,
				wantProgression: true,
			},
			{
				name:            "in progress back to pending",
				current:         2,
				requested:       models.StatusPending,
				wantProgression: true,
			},
			{
				name:            "resolved to resolved",
				current:         3,
				requested:       models.StatusResolved,
				wantProgression: true,
			},
		}

		for _, tc := range testCases {
			mock.ExpectBegin()
			mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+) FOR UPDATE").
				WithArgs(int64(42)).
				WillReturnRows(lockedReportRow(42, 7, tc.current))
			if tc.execExpected {
				mock.ExpectExec("UPDATE reports SET status_id = (.+), updated_at = NOW\\(\\) WHERE id = (.+)").
					WithArgs(int64(tc.requested), int64(42)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			report, oldStatus, err := d.ApplyStatusTransition(context.Background(), 42, tc.requested)

			if tc.wantProgression {
				var pe *models.ProgressionError
				if !errors.As(err, &pe) {
					t.Errorf("%s: expected progression error, got %v", tc.name, err)
					continue
				}
				if int64(pe.Current) != tc.current || pe.Attempted != tc.requested {
					t.Errorf("%s: progression error names %v -> %v, want %v -> %v",
						tc.name, pe.Current, pe.Attempted, tc.current, tc.requested)
				}
				continue
			}

			if err != nil {
				t.Errorf("%s: unexpected error: %v", tc.name, err)
				continue
			}
			if report.Status != tc.requested {
				t.Errorf("%s: report status = %v, want %v", tc.name, report.Status, tc.requested)
			}
			if int64(oldStatus) != tc.current {
				t.Errorf("%s: old status = %v, want %v", tc.name, oldStatus, tc.current)
			}
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestApplyStatusTransitionRefreshesUpdatedAt(t *testing.T) {
	it(func() {
		old := time.Now().Add(-time.Hour)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+) FOR UPDATE").
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows(reportColumns()).
				AddRow(42, "Rua das Flores 12", nil, nil, 7, 1, old, old))
		mock.ExpectExec("UPDATE reports SET status_id = (.+), updated_at = NOW\\(\\) WHERE id = (.+)").
			WithArgs(int64(models.StatusInProgress), int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		report, _, err := d.ApplyStatusTransition(context.Background(), 42, models.StatusInProgress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// The returned report must reflect the refreshed timestamp, not
		// the pre-transition row value
		if !report.UpdatedAt.After(old) {
			t.Errorf("updated_at = %v, still the pre-transition value %v", report.UpdatedAt, old)
		}
	})
}

func TestApplyStatusTransitionReportNotFound(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+) FOR UPDATE").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(reportColumns()))
		mock.ExpectRollback()

		_, _, err := d.ApplyStatusTransition(context.Background(), 99, models.StatusResolved)
		if !errors.Is(err, models.ErrReportNotFound) {
			t.Errorf("expected ErrReportNotFound, got %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestApplyStatusTransitionRejectionLeavesRowUntouched(t *testing.T) {
	it(func() {
		// Only the locking SELECT may run; an UPDATE would be an
		// unfulfilled expectation mismatch.
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id = (.+) FOR UPDATE").
			WithArgs(int64(5)).
			WillReturnRows(lockedReportRow(5, 3, 3))
		mock.ExpectRollback()

		_, _, err := d.ApplyStatusTransition(context.Background(), 5, models.StatusInProgress)
		var pe *models.ProgressionError
		if !errors.As(err, &pe) {
			t.Fatalf("expected progression error, got %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestCountReportsByStatus(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT status_id, COUNT\\(\\*\\) FROM reports WHERE user_id = (.+) GROUP BY status_id").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"status_id", "count"}).
				AddRow(1, 2).
				AddRow(2, 1).
				AddRow(3, 3))

		counts, err := d.CountReportsByStatus(context.Background(), 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := map[models.Status]int{
			models.StatusPending:    2,
			models.StatusInProgress: 1,
			models.StatusResolved:   3,
		}
		for status, n := range want {
			if counts[status] != n {
				t.Errorf("counts[%v] = %d, want %d", status, counts[status], n)
			}
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestCreateReportAttachesCategories(t *testing.T) {
	it(func() {
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO reports \\(location, photo, comment, user_id, status_id\\)").
			WithArgs("Avenida Central", nil, "buraco na estrada", int64(7), int64(models.StatusPending)).
			WillReturnResult(sqlmock.NewResult(11, 1))
		mock.ExpectExec("INSERT INTO category_report \\(category_id, report_id\\) VALUES \\((.+), (.+)\\)").
			WithArgs(int64(2), int64(11)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO category_report \\(category_id, report_id\\) VALUES \\((.+), (.+)\\)").
			WithArgs(int64(4), int64(11)).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		mock.ExpectQuery("SELECT id, location, photo, comment, user_id, status_id, created_at, updated_at FROM reports WHERE id = (.+)").
			WithArgs(int64(11)).
			WillReturnRows(sqlmock.NewRows(reportColumns()).
				AddRow(11, "Avenida Central", nil, "buraco na estrada", 7, 1, now, now))
		mock.ExpectQuery("SELECT c.id, c.category FROM categories c").
			WithArgs(int64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "category"}).
				AddRow(2, "Danos na via").
				AddRow(4, "Lixo na via"))

		report, err := d.CreateReport(context.Background(), 7, "Avenida Central", "", "buraco na estrada", []int64{2, 4})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Status != models.StatusPending {
			t.Errorf("new report status = %v, want pending", report.Status)
		}
		if len(report.Categories) != 2 {
			t.Errorf("got %d categories, want 2", len(report.Categories))
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestDeleteReportNotFound(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM reports WHERE id = (.+)").
			WithArgs(int64(123)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := d.DeleteReport(context.Background(), 123)
		if !errors.Is(err, models.ErrReportNotFound) {
			t.Errorf("expected ErrReportNotFound, got %v", err)
		}
	})
}
