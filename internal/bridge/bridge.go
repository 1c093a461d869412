package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// OwnerNotifier delivers text to the owner's own WhatsApp address.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, text string) error
}

// Send directions reported to an Observer.
const (
	DirectionToTelegram = "to_telegram"
	DirectionToOwner    = "to_owner"
	DirectionReply      = "reply"
)

// Observer receives one call per send attempt and per parsed command.
type Observer interface {
	ObserveSend(direction string, err error)
	ObserveCommand(outcome Outcome)
}

type Options struct {
	Registry *Registry
	// Prefix marks owner messages as commands, e.g. "tg:".
	Prefix string
	// OwnerAddress is the owner's WhatsApp number used by the owner gate.
	OwnerAddress string
	SendTimeout  time.Duration

	Telegram Sender
	Owner    OwnerNotifier
	Observer Observer
	Logger   waLog.Logger
}

type Bridge struct {
	opts Options
	log  waLog.Logger
}

func New(opts Options) *Bridge {
	if opts.Logger == nil {
		opts.Logger = waLog.Noop
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	return &Bridge{opts: opts, log: opts.Logger}
}

// HandleOwnerMessage routes a command typed by the owner to Telegram. Every
// recognized command gets exactly one reply; anything else is ignored.
func (b *Bridge) HandleOwnerMessage(ctx context.Context, msg OwnerMessage) {
	if !IsFromOwner(msg, b.opts.OwnerAddress) {
		b.log.Debugf("Ignoring message from %s: not the owner", msg.Origin)
		return
	}

	cmd := ParseCommand(msg.Body, b.opts.Prefix, b.opts.Registry)
	if cmd.Outcome == NotACommand {
		return
	}
	b.observeCommand(cmd.Outcome)
	b.log.Infof("[COMMAND] OUTCOME='%s' SELECTOR='%s'", cmd.Outcome, cmd.Selector)

	switch cmd.Outcome {
	case EmptyPayload:
		b.reply(ctx, b.usage())
		return
	case MissingPayload:
		b.reply(ctx, fmt.Sprintf("No message given for %q.\nUsage: %s%s <message>", cmd.Selector, b.opts.Prefix, cmd.Selector))
		return
	}

	target, err := Resolve(cmd.Selector, b.opts.Registry)
	if err != nil {
		var unknown *UnknownSelectorError
		if errors.As(err, &unknown) {
			b.reply(ctx, fmt.Sprintf("Unknown recipient %q. Valid: %s", unknown.Selector, strings.Join(unknown.Valid, ", ")))
			return
		}
		b.log.Errorf("Error resolving selector %q: %s", cmd.Selector, err)
		b.reply(ctx, "Could not resolve recipients: "+err.Error())
		return
	}

	results := Dispatch(ctx, b.opts.Telegram, target.IDs, cmd.Payload, b.opts.SendTimeout)
	for _, r := range results {
		b.observeSend(DirectionToTelegram, r.Err)
		if r.Err != nil {
			b.log.Warnf("Error sending to telegram. ID='%s' ERROR=%s", r.Destination, r.Err)
		}
	}
	b.reply(ctx, b.summary(target, results))
}

// HandleContactMessage relays a friend's Telegram message to the owner.
// Senders outside the registry and empty texts are dropped silently.
func (b *Bridge) HandleContactMessage(ctx context.Context, msg ContactMessage) {
	if msg.Text == "" {
		return
	}
	if !ShouldForward(msg.SenderID, b.opts.Registry) {
		b.log.Debugf("Ignoring telegram message from %s: not a friend", msg.SenderID)
		return
	}
	tag, _ := b.opts.Registry.TagOf(msg.SenderID)
	text := FormatInbound(msg.SenderName, tag, msg.Text)

	err := sendWithTimeout(ctx, b.opts.SendTimeout, func(ctx context.Context) error {
		return b.opts.Owner.NotifyOwner(ctx, text)
	})
	b.observeSend(DirectionToOwner, err)
	if err != nil {
		b.log.Errorf("Error relaying telegram message to owner. FROM='%s' ERROR=%s", msg.SenderID, err)
	}
}

func (b *Bridge) reply(ctx context.Context, text string) {
	err := sendWithTimeout(ctx, b.opts.SendTimeout, func(ctx context.Context) error {
		return b.opts.Owner.NotifyOwner(ctx, text)
	})
	b.observeSend(DirectionReply, err)
	if err != nil {
		b.log.Errorf("Error replying to owner: %s", err)
	}
}

func (b *Bridge) usage() string {
	return fmt.Sprintf("Usage: %s[recipient] <message>\nRecipients: %s",
		b.opts.Prefix, strings.Join(b.opts.Registry.Selectors(), ", "))
}

func (b *Bridge) summary(target Target, results []Result) string {
	s := Summarize(results)
	if s.Failed == 0 {
		return fmt.Sprintf("✅ Sent to %d friend(s) (%s)", s.Delivered, target.Description)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ Sent to %d friend(s), failed to send to %d friend(s)", s.Delivered, s.Failed)
	for _, r := range results {
		if r.Delivered() {
			continue
		}
		name := r.Destination.String()
		if tag, ok := b.opts.Registry.TagOf(r.Destination); ok {
			name = tag + " (" + name + ")"
		}
		fmt.Fprintf(&sb, "\n- %s: %s", name, r.Err)
	}
	return sb.String()
}

func (b *Bridge) observeSend(direction string, err error) {
	if b.opts.Observer != nil {
		b.opts.Observer.ObserveSend(direction, err)
	}
}

func (b *Bridge) observeCommand(o Outcome) {
	if b.opts.Observer != nil {
		b.opts.Observer.ObserveCommand(o)
	}
}
