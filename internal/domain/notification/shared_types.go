// internal/domain/notification/shared_types.go
package notification

// Channel identifies an outbound delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat" // WhatsApp via Twilio
	ChannelText  Channel = "text" // SMS via Twilio
)

// Outcome is the per-channel result of one dispatch.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped" // Channel not applicable to the recipient, e.g. no phone number
)

// Transport error codes with a known, non-alarming meaning.
const (
	CodeChatSenderNotProvisioned  = 63007 // WhatsApp sender not enabled on the account
	CodeTextDestinationNotAllowed = 21608 // Trial account cannot reach unverified numbers
)
