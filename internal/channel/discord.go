package channel

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/clipbot/clipbot/internal/bus"
	"github.com/clipbot/clipbot/internal/config"
)

// Discord is the Discord transport. It forwards messages and button presses
// to the bus and renders outbound replies as text, button rows, or file
// uploads. Access control and rate limiting live in the pipeline, not here:
// every user-visible rejection needs a reply, so the transport forwards
// everything that is not from a bot.
type Discord struct {
	config  config.BotConfig
	bus     *bus.MessageBus
	session *discordgo.Session
}

// NewDiscord creates a new Discord channel.
func NewDiscord(cfg config.BotConfig, b *bus.MessageBus) *Discord {
	return &Discord{config: cfg, bus: b}
}

func (d *Discord) Name() string { return "discord" }

// Start connects to the Discord gateway and blocks until ctx is cancelled.
func (d *Discord) Start(ctx context.Context) error {
	if d.config.Token == "" {
		return fmt.Errorf("discord bot token not configured")
	}

	session, err := discordgo.New("Bot " + d.config.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	session.AddHandler(d.onMessageCreate)
	session.AddHandler(d.onInteractionCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	d.session = session
	slog.Info("Discord gateway connected")

	<-ctx.Done()
	return ctx.Err()
}

// Stop disconnects from Discord.
func (d *Discord) Stop() error {
	if d.session != nil {
		return d.session.Close()
	}
	return nil
}

// Send delivers an outbound message. The message shape decides the API call:
// button offer, file upload, or plain text.
func (d *Discord) Send(ctx context.Context, msg *bus.OutboundMessage) error {
	if d.session == nil {
		return fmt.Errorf("discord session not started")
	}

	switch {
	case msg.OfferURL != "":
		return d.sendOffer(msg)
	case msg.FilePath != "":
		return d.sendFile(msg)
	default:
		_, err := d.session.ChannelMessageSend(msg.ChatID, msg.Text)
		if err != nil {
			return fmt.Errorf("send discord message: %w", err)
		}
		return nil
	}
}

func (d *Discord) sendOffer(msg *bus.OutboundMessage) error {
	row := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "⬇️ Video",
				Style:    discordgo.PrimaryButton,
				CustomID: EncodeAction(bus.Action{Mode: bus.ModeVideo, URL: msg.OfferURL}),
			},
			discordgo.Button{
				Label:    "🎵 Audio",
				Style:    discordgo.SecondaryButton,
				CustomID: EncodeAction(bus.Action{Mode: bus.ModeAudio, URL: msg.OfferURL}),
			},
		},
	}
	_, err := d.session.ChannelMessageSendComplex(msg.ChatID, &discordgo.MessageSend{
		Content:    "Choose an option:",
		Components: []discordgo.MessageComponent{row},
	})
	if err != nil {
		return fmt.Errorf("send discord offer: %w", err)
	}
	return nil
}

func (d *Discord) sendFile(msg *bus.OutboundMessage) error {
	f, err := os.Open(msg.FilePath)
	if err != nil {
		return fmt.Errorf("open upload %s: %w", msg.FilePath, err)
	}
	defer f.Close()

	_, err = d.session.ChannelMessageSendComplex(msg.ChatID, &discordgo.MessageSend{
		Content: msg.Caption,
		Files: []*discordgo.File{{
			Name:   filepath.Base(msg.FilePath),
			Reader: f,
		}},
	})
	if err != nil {
		return fmt.Errorf("send discord file: %w", err)
	}
	return nil
}

func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.Author.ID == "" || m.ChannelID == "" || m.Content == "" {
		return
	}

	d.bus.PublishInbound(&bus.InboundMessage{
		Channel:   d.Name(),
		Identity:  m.Author.ID,
		ChatID:    m.ChannelID,
		Text:      m.Content,
		Timestamp: time.Now(),
	})
}

func (d *Discord) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	action, ok := DecodeAction(i.MessageComponentData().CustomID)
	if !ok {
		slog.Warn("unrecognized button payload", "custom_id", i.MessageComponentData().CustomID)
		return
	}

	// Ack the press immediately; the result arrives later as a regular
	// channel message once the pipeline finishes.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		slog.Warn("interaction ack failed", "err", err)
	}
	s.ChannelTyping(i.ChannelID)

	identity := ""
	if i.Member != nil && i.Member.User != nil {
		identity = i.Member.User.ID
	} else if i.User != nil {
		identity = i.User.ID
	}
	if identity == "" {
		return
	}

	d.bus.PublishInbound(&bus.InboundMessage{
		Channel:   d.Name(),
		Identity:  identity,
		ChatID:    i.ChannelID,
		Action:    &action,
		Timestamp: time.Now(),
	})
}
