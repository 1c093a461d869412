package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/mdp/qrterminal/v3"
	"github.com/sashabaranov/go-openai"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/vhalmd/wa-tg-bridge/internal/bridge"

	_ "modernc.org/sqlite"
)

var ErrLoginFailed = errors.New("whatsapp login failed")

type Client struct {
	Whatsapp *whatsmeow.Client
	OpenAI   *openai.Client

	// OnOwnerMessage receives every text (or transcribed voice) message that
	// passes the owner gate.
	OnOwnerMessage func(ctx context.Context, msg bridge.OwnerMessage)

	Logger waLog.Logger
	Config Config

	owner  types.JID
	qrMu   sync.RWMutex
	qrCode string
}

type Config struct {
	StoreDSN    string
	DeviceName  string
	OwnerNumber string
	OpenAIKey   string
}

func NewClient(cfg Config, logger waLog.Logger) (*Client, error) {
	container, err := sqlstore.New("sqlite", cfg.StoreDSN, logger.Sub("Database"))
	if err != nil {
		return nil, fmt.Errorf("open whatsapp store: %w", err)
	}

	osName := cfg.DeviceName
	store.DeviceProps.Os = &osName

	platformType := waCompanionReg.DeviceProps_DESKTOP
	store.DeviceProps.PlatformType = &platformType

	deviceStore, err := container.GetFirstDevice()
	if err != nil {
		return nil, fmt.Errorf("load whatsapp device: %w", err)
	}

	var openaiClient *openai.Client
	if cfg.OpenAIKey != "" {
		openaiClient = openai.NewClient(cfg.OpenAIKey)
	}

	return &Client{
		Whatsapp: whatsmeow.NewClient(deviceStore, logger.Sub("Client")),
		OpenAI:   openaiClient,
		Logger:   logger,
		Config:   cfg,
		owner:    types.NewJID(cfg.OwnerNumber, types.DefaultUserServer),
	}, nil
}

func (a *Client) EventHandler(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		// whatsmeow runs handlers on its receive loop, so routing must not block it.
		go a.handleMessage(context.Background(), v)
	case *events.Connected:
		a.Logger.Infof("[CONNECTED] JID='%s'", a.Whatsapp.Store.ID)
	case *events.LoggedOut:
		a.Logger.Warnf("[LOGGED OUT] JID='%s' REASON='%s'", a.Whatsapp.Store.ID, v.Reason)
		if err := a.Whatsapp.Store.Delete(); err != nil {
			a.Logger.Errorf("Error deleting device store: %s", err)
		}
	}
}

func (a *Client) handleMessage(ctx context.Context, v *events.Message) {
	msg := OwnerMessageFrom(v)
	if v.Info.Chat == types.StatusBroadcastJID || !bridge.IsFromOwner(msg, a.owner.User) {
		return
	}

	if msg.Body == "" {
		am := v.Message.GetAudioMessage()
		if am == nil || a.OpenAI == nil {
			return
		}
		text, err := a.transcribe(ctx, am)
		if err != nil {
			a.Logger.Errorf("Transcription error: %s", err)
			return
		}
		a.Logger.Infof("[VOICE TRANSCRIBED] CONTENT='%s'", text)
		msg.Body = text
	}

	if a.OnOwnerMessage != nil {
		a.OnOwnerMessage(ctx, msg)
	}
}

// OwnerMessageFrom extracts the routing fields of a whatsmeow message event.
func OwnerMessageFrom(v *events.Message) bridge.OwnerMessage {
	return bridge.OwnerMessage{
		Body:   MessageText(v.Message),
		FromMe: v.Info.IsFromMe,
		Origin: v.Info.Sender.User,
	}
}

// MessageText returns the text of a plain or extended text message, or "".
func MessageText(m *waE2E.Message) string {
	if text := m.GetConversation(); text != "" {
		return text
	}
	return m.GetExtendedTextMessage().GetText()
}

func (a *Client) transcribe(ctx context.Context, am *waE2E.AudioMessage) (string, error) {
	data, err := a.Whatsapp.Download(am)
	if err != nil {
		return "", fmt.Errorf("download voice note: %w", err)
	}
	resp, err := a.OpenAI.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "voice.ogg",
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// NotifyOwner sends text to the owner's own WhatsApp chat.
func (a *Client) NotifyOwner(ctx context.Context, text string) error {
	_, err := a.Whatsapp.SendMessage(ctx, a.owner, &waE2E.Message{
		Conversation: proto.String(text),
	})
	return err
}

// Connect logs in, printing the pairing QR code to qrOut on first run, and
// returns once the session is established.
func (a *Client) Connect(ctx context.Context, qrOut io.Writer) error {
	if a.Whatsapp.Store.ID != nil {
		return a.Whatsapp.Connect()
	}

	qrChan, err := a.Whatsapp.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("get qr channel: %w", err)
	}
	if err := a.Whatsapp.Connect(); err != nil {
		return err
	}

	last := ""
	for evt := range qrChan {
		last = evt.Event
		if evt.Event == "code" {
			a.setQRCode(evt.Code)
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, qrOut)
			continue
		}
		a.setQRCode("")
		a.Logger.Infof("Login event: %s", evt.Event)
	}
	if last != whatsmeow.QRChannelSuccess.Event {
		return fmt.Errorf("%w: %s", ErrLoginFailed, last)
	}
	return nil
}

func (a *Client) Disconnect() {
	a.Whatsapp.Disconnect()
}

func (a *Client) LoggedIn() bool {
	return a.Whatsapp.IsLoggedIn()
}

func (a *Client) QRCode() string {
	a.qrMu.RLock()
	defer a.qrMu.RUnlock()
	return a.qrCode
}

func (a *Client) setQRCode(code string) {
	a.qrMu.Lock()
	a.qrCode = code
	a.qrMu.Unlock()
}
