// internal/infra/twilio/client.go
package twilio

import (
	"context"
	"errors"
	"fmt"

	"homestock_notifier/internal/domain/notification"

	twiliogo "github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the subset of the Twilio REST API used for outbound messages.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// MessagesTransport sends WhatsApp and SMS messages through the Twilio Messages API.
// The same transport serves both channels; the address prefix selects the channel.
type MessagesTransport struct {
	api messageCreator
}

func NewMessagesTransport(accountSID, authToken string) *MessagesTransport {
	client := twiliogo.NewRestClientWithParams(twiliogo.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &MessagesTransport{api: client.Api}
}

type createResult struct {
	msg *openapi.ApiV2010Message
	err error
}

// SendMessage delivers body and returns the Twilio message SID. The REST client does not
// take a context, so the call is abandoned (not aborted) when ctx ends first.
func (t *MessagesTransport) SendMessage(ctx context.Context, from, to, body string) (string, error) {
	if from == "" {
		return "", fmt.Errorf("sender address is required")
	}
	params := &openapi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	done := make(chan createResult, 1)
	go func() {
		msg, err := t.api.CreateMessage(params)
		done <- createResult{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("twilio request abandoned: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", mapError(res.err)
		}
		if res.msg == nil || res.msg.Sid == nil {
			return "", nil
		}
		return *res.msg.Sid, nil
	}
}

// mapError converts Twilio REST errors into transport errors carrying the provider code.
func mapError(err error) error {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return &notification.TransportError{Code: restErr.Code, Message: restErr.Message, Err: err}
	}
	return fmt.Errorf("twilio request failed: %w", err)
}
