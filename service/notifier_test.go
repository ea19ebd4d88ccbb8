package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"civicreport/models"
	"civicreport/push"
)

type fakeRecipients struct {
	ownerTokens []string
	roleTokens  []string
	err         error

	requestedRoles []models.Role
}

func (f *fakeRecipients) ActiveDeviceTokens(ctx context.Context, userID int64) ([]string, error) {
	return f.ownerTokens, f.err
}

func (f *fakeRecipients) ActiveDeviceTokensForRoles(ctx context.Context, roles ...models.Role) ([]string, error) {
	f.requestedRoles = roles
	return f.roleTokens, f.err
}

type fakeSender struct {
	calls   int
	tokens  []string
	title   string
	body    string
	data    map[string]any
	outcome push.Outcome
}

func (f *fakeSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]any) push.Outcome {
	f.calls++
	f.tokens = tokens
	f.title = title
	f.body = body
	f.data = data
	if f.outcome.Success || f.outcome.Error != "" {
		return f.outcome
	}
	return push.Outcome{Success: true, Count: len(tokens)}
}

func sampleReport() *models.Report {
	return &models.Report{
		ID:       42,
		Location: "Rua das Flores 12",
		UserID:   7,
		Status:   models.StatusPending,
		Categories: []models.Category{
			{ID: 2, Name: "Danos na via"},
			{ID: 4, Name: "Lixo na via"},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestReportCreatedNotifiesAdminsAndCurators(t *testing.T) {
	recipients := &fakeRecipients{roleTokens: []string{"tok-admin", "tok-curator"}}
	sender := &fakeSender{}
	n := NewLifecycleNotifier(recipients, sender)

	n.ReportCreated(context.Background(), sampleReport())

	if len(recipients.requestedRoles) != 2 ||
		recipients.requestedRoles[0] != models.RoleAdmin ||
		recipients.requestedRoles[1] != models.RoleCurator {
		t.Errorf("requested roles = %v, want [admin curator]", recipients.requestedRoles)
	}
	if sender.calls != 1 {
		t.Fatalf("sender called %d times, want 1", sender.calls)
	}
	if sender.title != "Novo Relatório Registrado" {
		t.Errorf("title = %q", sender.title)
	}
	want := "Novo relatório em 'Rua das Flores 12' registrado na(s) categoria(s): Danos na via, Lixo na via"
	if sender.body != want {
		t.Errorf("body = %q, want %q", sender.body, want)
	}
	if sender.data["type"] != "new_report" || sender.data["report_id"] != int64(42) {
		t.Errorf("data = %v", sender.data)
	}
}

func TestStatusChangedNotifiesOwner(t *testing.T) {
	recipients := &fakeRecipients{ownerTokens: []string{"tok-owner"}}
	sender := &fakeSender{}
	n := NewLifecycleNotifier(recipients, sender)

	n.StatusChanged(context.Background(), sampleReport(), models.StatusPending, models.StatusInProgress)

	if sender.calls != 1 {
		t.Fatalf("sender called %d times, want 1", sender.calls)
	}
	if sender.title != "Atualização do seu Report" {
		t.Errorf("title = %q", sender.title)
	}
	want := "Seu relatório em 'Rua das Flores 12' foi atualizado de 'pendente' para 'em resolução'"
	if sender.body != want {
		t.Errorf("body = %q, want %q", sender.body, want)
	}
	if !strings.Contains(sender.body, "Rua das Flores 12") {
		t.Errorf("body %q does not name the report location", sender.body)
	}
	if sender.data["old_status"] != "pendente" || sender.data["new_status"] != "em resolução" {
		t.Errorf("data = %v", sender.data)
	}
}

func TestNotifierWithNoRecipientsStillSends(t *testing.T) {
	// An empty token set is a successful no-op downstream; the notifier
	// passes it through rather than special-casing it.
	recipients := &fakeRecipients{}
	sender := &fakeSender{}
	n := NewLifecycleNotifier(recipients, sender)

	n.ReportCreated(context.Background(), sampleReport())

	if sender.calls != 1 {
		t.Fatalf("sender called %d times, want 1", sender.calls)
	}
	if len(sender.tokens) != 0 {
		t.Errorf("tokens = %v, want none", sender.tokens)
	}
}

func TestNotifierSwallowsRecipientErrors(t *testing.T) {
	recipients := &fakeRecipients{err: errors.New("db down")}
	sender := &fakeSender{}
	n := NewLifecycleNotifier(recipients, sender)

	n.ReportCreated(context.Background(), sampleReport())
	n.StatusChanged(context.Background(), sampleReport(), models.StatusPending, models.StatusResolved)

	if sender.calls != 0 {
		t.Errorf("sender called %d times, want 0", sender.calls)
	}
}

func TestNotifierSwallowsSendFailures(t *testing.T) {
	recipients := &fakeRecipients{ownerTokens: []string{"tok-owner"}}
	sender := &fakeSender{outcome: push.Outcome{Success: false, Error: "gateway timeout"}}
	n := NewLifecycleNotifier(recipients, sender)

	// Must not panic or propagate anything
	n.StatusChanged(context.Background(), sampleReport(), models.StatusPending, models.StatusResolved)

	if sender.calls != 1 {
		t.Errorf("sender called %d times, want 1", sender.calls)
	}
}
