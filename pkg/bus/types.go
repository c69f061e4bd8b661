package bus

// ChatKind distinguishes one-on-one chats from group chats. The trigger
// evaluator always engages in private chats.
type ChatKind string

const (
	ChatPrivate ChatKind = "private"
	ChatGroup   ChatKind = "group"
)

// InboundMessage is one message event received from a chat platform channel.
// Mentions holds the numeric identities explicitly referenced by the message,
// already resolved by the channel implementation.
type InboundMessage struct {
	Channel    string
	ChatID     int64
	ChatKind   ChatKind
	SenderID   int64
	SenderName string
	Text       string
	Mentions   []int64
	MessageID  int64
	TurnID     string
}

// OutboundMessage is a reply the agent wants delivered. PlainText requests
// delivery without any platform markup interpretation.
type OutboundMessage struct {
	Channel   string
	ChatID    int64
	Text      string
	InReplyTo int64
	PlainText bool
}
