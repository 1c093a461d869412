package bridge

import (
	"strings"
	"unicode"
)

type Outcome int

const (
	// NotACommand means the body does not start with the prefix.
	NotACommand Outcome = iota
	// EmptyPayload means nothing followed the prefix.
	EmptyPayload
	// MissingPayload means a selector was given with no message after it.
	MissingPayload
	// Ready means Selector and Payload are set and can be dispatched.
	Ready
)

func (o Outcome) String() string {
	switch o {
	case NotACommand:
		return "not-a-command"
	case EmptyPayload:
		return "empty-payload"
	case MissingPayload:
		return "missing-payload"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Command is the parsed form of one owner message.
type Command struct {
	Raw      string
	Outcome  Outcome
	Selector string
	Payload  string
}

func isSpace(r rune) bool { return unicode.IsSpace(r) }

// ParseCommand decides whether body is a bridge command and extracts the
// selector and payload. Only the prefix is matched case-insensitively; the
// payload keeps its original casing.
//
// When the first word is neither "all" nor a known tag it is part of the
// message, and the message goes to everyone.
func ParseCommand(body, prefix string, reg *Registry) Command {
	cmd := Command{Raw: body}
	if len(body) < len(prefix) || !strings.EqualFold(body[:len(prefix)], prefix) {
		return cmd
	}

	remainder := strings.TrimSpace(body[len(prefix):])
	if remainder == "" {
		cmd.Outcome = EmptyPayload
		return cmd
	}

	word, rest := remainder, ""
	if i := strings.IndexFunc(remainder, isSpace); i >= 0 {
		word, rest = remainder[:i], strings.TrimSpace(remainder[i:])
	}
	token := strings.ToLower(word)

	if _, tagged := reg.Lookup(token); token == SelectorAll || tagged {
		cmd.Selector = token
		cmd.Payload = rest
		if rest == "" {
			cmd.Outcome = MissingPayload
			return cmd
		}
		cmd.Outcome = Ready
		return cmd
	}

	cmd.Selector = SelectorAll
	cmd.Payload = remainder
	cmd.Outcome = Ready
	return cmd
}
