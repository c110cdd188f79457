package telegram

import (
	"context"
	"time"

	"homestock_notifier/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const manualRunTimeout = 5 * time.Minute

// RegisterAdminHandlers registers the operator-only expiry check commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, checker app.ExpiryChecker, trigger *app.Trigger, adminTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/check_expiring", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/check_expiring",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to run this command.")
		}

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), manualRunTimeout)
		defer cancel()
		summary := checker.RunExpiryCheck(runCtx)
		if !summary.Success {
			handlerLogger.WithField("error", summary.Error).Error("Manual expiry check failed")
		} else {
			handlerLogger.WithField("users_notified", summary.UsersNotified).Info("Manual expiry check finished")
		}
		return c.Send(FormatSummary(summary))
	})

	b.Handle("/queue_check", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/queue_check",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to run this command.")
		}

		if trigger.Request() {
			handlerLogger.Info("Expiry check queued")
			return c.Send("Expiry check queued.")
		}
		handlerLogger.Info("Expiry check already queued")
		return c.Send("An expiry check is already queued.")
	})
}
