package service

import (
	"context"
	"fmt"
	"strings"

	"civicreport/models"
	"civicreport/push"

	"github.com/apex/log"
)

// PushSender dispatches a batch of push messages and reports the outcome
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]any) push.Outcome
}

// RecipientSource resolves logical notification targets into concrete sets of
// active device tokens
type RecipientSource interface {
	ActiveDeviceTokens(ctx context.Context, userID int64) ([]string, error)
	ActiveDeviceTokensForRoles(ctx context.Context, roles ...models.Role) ([]string, error)
}

// LifecycleNotifier sends push notifications for report lifecycle events:
// admins and curators hear about new reports, owners hear about status
// changes. All dispatch is best-effort; failures are logged and swallowed.
type LifecycleNotifier struct {
	recipients RecipientSource
	sender     PushSender
}

// NewLifecycleNotifier creates a notifier
func NewLifecycleNotifier(recipients RecipientSource, sender PushSender) *LifecycleNotifier {
	return &LifecycleNotifier{recipients: recipients, sender: sender}
}

// ReportCreated notifies every admin and curator about a new report
func (n *LifecycleNotifier) ReportCreated(ctx context.Context, report *models.Report) {
	tokens, err := n.recipients.ActiveDeviceTokensForRoles(ctx, models.RoleAdmin, models.RoleCurator)
	if err != nil {
		log.WithError(err).Errorf("Failed to resolve admin/curator tokens for report %d", report.ID)
		return
	}

	names := make([]string, 0, len(report.Categories))
	for _, c := range report.Categories {
		names = append(names, c.Name)
	}

	title := "Novo Relatório Registrado"
	body := fmt.Sprintf("Novo relatório em '%s' registrado na(s) categoria(s): %s",
		report.Location, strings.Join(names, ", "))
	data := map[string]any{
		"type":      "new_report",
		"report_id": report.ID,
		"status":    report.Status.Label(),
	}

	outcome := n.sender.Send(ctx, tokens, title, body, data)
	if !outcome.Success {
		log.Errorf("Failed to notify admins/curators about report %d: %s", report.ID, outcome.Error)
		return
	}
	log.Infof("Notified %d admin/curator devices about report %d", outcome.Count, report.ID)
}

// StatusChanged notifies the report owner that their report moved status
func (n *LifecycleNotifier) StatusChanged(ctx context.Context, report *models.Report, oldStatus, newStatus models.Status) {
	tokens, err := n.recipients.ActiveDeviceTokens(ctx, report.UserID)
	if err != nil {
		log.WithError(err).Errorf("Failed to resolve owner tokens for report %d", report.ID)
		return
	}

	title := "Atualização do seu Report"
	body := fmt.Sprintf("Seu relatório em '%s' foi atualizado de '%s' para '%s'",
		report.Location, oldStatus.Label(), newStatus.Label())
	data := map[string]any{
		"type":       "status_update",
		"report_id":  report.ID,
		"old_status": oldStatus.Label(),
		"new_status": newStatus.Label(),
	}

	outcome := n.sender.Send(ctx, tokens, title, body, data)
	if !outcome.Success {
		log.Errorf("Failed to notify user %d about report %d status change: %s", report.UserID, report.ID, outcome.Error)
		return
	}
	log.Infof("Notified %d devices of user %d about report %d moving %q -> %q",
		outcome.Count, report.UserID, report.ID, oldStatus.Label(), newStatus.Label())
}
