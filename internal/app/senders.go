// internal/app/senders.go
package app

import (
	"context"
	"strings"
	"time"

	"homestock_notifier/internal/domain/grocery"
	"homestock_notifier/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// DefaultChatSender is the Twilio WhatsApp sandbox number.
const DefaultChatSender = "+14155238886"

const chatAddressPrefix = "whatsapp:"

// Sender delivers one expiry notification over a single channel.
// Send never returns an error: transport failures are logged and reported as false.
type Sender interface {
	Channel() notification.Channel
	Send(ctx context.Context, recipient notification.Recipient, groceries []*grocery.Grocery) bool
}

// EmailSender sends the expiry digest as an HTML email.
type EmailSender struct {
	transport notification.EmailTransport
	logger    *logrus.Entry
	now       func() time.Time
}

func NewEmailSender(transport notification.EmailTransport, logger *logrus.Entry) *EmailSender {
	return &EmailSender{
		transport: transport,
		logger:    logger.WithField("channel", notification.ChannelEmail),
		now:       time.Now,
	}
}

func (s *EmailSender) Channel() notification.Channel { return notification.ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, recipient notification.Recipient, groceries []*grocery.Grocery) bool {
	if len(groceries) == 0 {
		return false
	}
	log := s.logger.WithFields(logrus.Fields{"user_id": recipient.UserID, "email": recipient.Email})

	subject, body := composeEmail(recipient.Name, groceries, s.now())
	if err := s.transport.SendEmail(ctx, []string{recipient.Email}, subject, body); err != nil {
		log.WithError(err).Error("Error sending email notification")
		return false
	}
	log.WithField("items", len(groceries)).Info("Email notification sent")
	return true
}

// ChatSender sends a single free-text WhatsApp message.
type ChatSender struct {
	transport notification.MessageTransport
	from      string
	logger    *logrus.Entry
	now       func() time.Time
}

// NewChatSender builds a chat sender. An empty from falls back to the sandbox sender.
func NewChatSender(transport notification.MessageTransport, from string, logger *logrus.Entry) *ChatSender {
	if from == "" {
		from = DefaultChatSender
	}
	return &ChatSender{
		transport: transport,
		from:      chatAddress(from),
		logger:    logger.WithField("channel", notification.ChannelChat),
		now:       time.Now,
	}
}

func chatAddress(number string) string {
	if strings.HasPrefix(number, chatAddressPrefix) {
		return number
	}
	return chatAddressPrefix + number
}

func (s *ChatSender) Channel() notification.Channel { return notification.ChannelChat }

func (s *ChatSender) Send(ctx context.Context, recipient notification.Recipient, groceries []*grocery.Grocery) bool {
	if len(groceries) == 0 || recipient.Phone == "" {
		return false
	}
	to := chatAddress(recipient.Phone)
	log := s.logger.WithFields(logrus.Fields{"user_id": recipient.UserID, "from": s.from, "to": to})
	log.Debug("Sending WhatsApp notification")

	body := composeChatMessage(recipient.Name, groceries, s.now())
	id, err := s.transport.SendMessage(ctx, s.from, to, body)
	if err != nil {
		if code, ok := notification.ErrorCode(err); ok && code == notification.CodeChatSenderNotProvisioned {
			log.WithError(err).Warn("WhatsApp sender unconfigured. Set TWILIO_WHATSAPP_FROM to a WhatsApp-enabled number.")
			return false
		}
		log.WithError(err).Error("Error sending WhatsApp notification")
		return false
	}
	log.WithField("message_id", id).Info("WhatsApp notification sent")
	return true
}

// TextSender sends an SMS listing every expiring item.
type TextSender struct {
	transport   notification.MessageTransport
	from        string
	horizonDays int
	logger      *logrus.Entry
	now         func() time.Time
}

func NewTextSender(transport notification.MessageTransport, from string, horizonDays int, logger *logrus.Entry) *TextSender {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &TextSender{
		transport:   transport,
		from:        from,
		horizonDays: horizonDays,
		logger:      logger.WithField("channel", notification.ChannelText),
		now:         time.Now,
	}
}

func (s *TextSender) Channel() notification.Channel { return notification.ChannelText }

func (s *TextSender) Send(ctx context.Context, recipient notification.Recipient, groceries []*grocery.Grocery) bool {
	if len(groceries) == 0 || recipient.Phone == "" {
		return false
	}
	log := s.logger.WithFields(logrus.Fields{"user_id": recipient.UserID, "to": recipient.Phone})
	log.Debug("Sending SMS notification")

	body := composeTextMessage(recipient.Name, groceries, s.horizonDays, s.now())
	id, err := s.transport.SendMessage(ctx, s.from, recipient.Phone, body)
	if err != nil {
		if code, ok := notification.ErrorCode(err); ok && code == notification.CodeTextDestinationNotAllowed {
			log.WithError(err).Warn("Twilio trial cannot send SMS to unverified number. Skipping SMS notification.")
			return false
		}
		log.WithError(err).Error("Error sending SMS notification")
		return false
	}
	log.WithField("message_id", id).Info("SMS notification sent")
	return true
}
