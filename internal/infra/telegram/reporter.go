package telegram

import (
	"fmt"
	"strings"

	"homestock_notifier/internal/domain/notification"
	domainTelegram "homestock_notifier/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// SummaryReporter posts run summaries to the operator chat.
type SummaryReporter struct {
	client domainTelegram.Client
	chatID int64
	logger *logrus.Entry
}

func NewSummaryReporter(client domainTelegram.Client, chatID int64, logger *logrus.Entry) *SummaryReporter {
	return &SummaryReporter{
		client: client,
		chatID: chatID,
		logger: logger.WithField("component", "telegram_reporter"),
	}
}

// Report sends summary to the operator. Delivery problems are logged only.
func (r *SummaryReporter) Report(summary notification.RunSummary) {
	if err := r.client.SendMessage(r.chatID, FormatSummary(summary), nil); err != nil {
		r.logger.WithError(err).WithField("chat_id", r.chatID).Error("Failed to send run summary to operator")
	}
}

// FormatSummary renders a run summary as a plain-text chat message.
func FormatSummary(summary notification.RunSummary) string {
	var b strings.Builder
	switch {
	case summary.Skipped:
		b.WriteString("Expiry check skipped\n")
	case summary.Success:
		b.WriteString("Expiry check finished\n")
	default:
		b.WriteString("Expiry check FAILED\n")
	}
	b.WriteString(summary.Message)
	b.WriteString("\n")
	if summary.Error != "" {
		b.WriteString(fmt.Sprintf("Error: %s\n", summary.Error))
	}
	if !summary.Skipped && summary.Success {
		b.WriteString(fmt.Sprintf("Candidates: %d, users: %d, notified: %d, items flagged: %d\n",
			summary.Candidates, summary.Groups, summary.UsersNotified, summary.RecordsMarked))
	}
	return strings.TrimRight(b.String(), "\n")
}
