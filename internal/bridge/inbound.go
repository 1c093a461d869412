package bridge

// Marker prefixes every message relayed from Telegram to the owner.
const Marker = "[TG]"

// OwnerMessage is a text event seen on the owner's WhatsApp account.
type OwnerMessage struct {
	Body   string
	FromMe bool
	// Origin is the sender's address (the phone number part of the JID).
	Origin string
}

// ContactMessage is a text event from someone writing to the Telegram bot.
type ContactMessage struct {
	SenderID   ID
	SenderName string
	Text       string
}

// IsFromOwner reports whether msg was written by the owner: either the
// transport flagged it as ours or its origin is exactly the owner address.
func IsFromOwner(msg OwnerMessage, ownerAddr string) bool {
	if msg.FromMe {
		return true
	}
	return ownerAddr != "" && msg.Origin == ownerAddr
}

// ShouldForward reports whether sender is an allow-listed friend.
func ShouldForward(sender ID, reg *Registry) bool {
	return reg.Contains(sender)
}

func DisplayName(name, tag string) string {
	if tag == "" {
		return name
	}
	return name + " (" + tag + ")"
}

// FormatInbound builds the text delivered to the owner. text is kept as is.
func FormatInbound(name, tag, text string) string {
	return Marker + " " + DisplayName(name, tag) + ":\n" + text
}
