package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v3"

	"github.com/vhalmd/wa-tg-bridge/internal/bridge"
)

// messenger is the part of *tele.Bot used for outbound messages.
type messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type Config struct {
	Token    string
	Owner    bridge.ID
	Registry *bridge.Registry
	// RateLimit is the maximum number of sends per second.
	RateLimit float64
}

// Bot relays between the bridge and friends writing to the Telegram bot.
type Bot struct {
	bot     *tele.Bot
	api     messenger
	limiter *rate.Limiter
	cfg     Config
	log     waLog.Logger

	// OnContactMessage receives every text message sent to the bot.
	OnContactMessage func(ctx context.Context, msg bridge.ContactMessage)
}

func NewBot(cfg Config, logger waLog.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Errorf("Telegram handler error: %s", err)
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := newBot(b, cfg, logger)
	bot.bot = b
	bot.setupHandlers()
	return bot, nil
}

func newBot(api messenger, cfg Config, logger waLog.Logger) *Bot {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 25
	}
	return &Bot{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		cfg:     cfg,
		log:     logger,
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.log.Infof("Starting Telegram bot (@%s)", b.bot.Me.Username)
	go func() {
		<-ctx.Done()
		b.log.Infof("Shutting down Telegram bot...")
		b.bot.Stop()
	}()
	b.bot.Start()
}

// Send delivers text to a Telegram user. It implements bridge.Sender.
func (b *Bot) Send(ctx context.Context, to bridge.ID, text string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := b.api.Send(to, text)
	return err
}

func (b *Bot) setupHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/friends", b.handleFriends)
	b.bot.Handle(tele.OnText, b.handleText)
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send("👋 Messages you send here are relayed to WhatsApp.")
}

func (b *Bot) handleFriends(c tele.Context) error {
	msg, ok := ContactMessageFrom(c.Sender(), "")
	if !ok || msg.SenderID != b.cfg.Owner {
		return nil
	}
	return c.Send(FriendList(b.cfg.Registry))
}

func (b *Bot) handleText(c tele.Context) error {
	msg, ok := ContactMessageFrom(c.Sender(), c.Text())
	if !ok || msg.Text == "" {
		return nil
	}
	if b.OnContactMessage != nil {
		b.OnContactMessage(context.Background(), msg)
	}
	return nil
}

// ContactMessageFrom converts a telebot sender and text into a bridge event.
func ContactMessageFrom(u *tele.User, text string) (bridge.ContactMessage, bool) {
	if u == nil {
		return bridge.ContactMessage{}, false
	}
	id, err := bridge.ParseID(strconv.FormatInt(u.ID, 10))
	if err != nil {
		return bridge.ContactMessage{}, false
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = id.String()
	}
	return bridge.ContactMessage{SenderID: id, SenderName: name, Text: text}, true
}

// FriendList renders the registry for the owner.
func FriendList(reg *bridge.Registry) string {
	var sb strings.Builder
	sb.WriteString("Friends:")
	for _, id := range reg.IDs() {
		if tag, ok := reg.TagOf(id); ok {
			fmt.Fprintf(&sb, "\n- %s → %s", tag, id)
		} else {
			fmt.Fprintf(&sb, "\n- %s", id)
		}
	}
	return sb.String()
}
