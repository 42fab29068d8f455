package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"proactive-friend/internal/config"
	"proactive-friend/internal/mind"
)

// Bot bridges Discord to the engine: message events become triggers, and the
// bot itself is the mind.Transport the engine speaks through. The context id
// used everywhere is the Discord channel id.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	triggers *mind.TriggerManager
	onClose  func(contextID string)
}

func NewBot(cfg *config.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Bot{dg: dg, cfg: cfg}, nil
}

// SetTriggers wires the trigger manager. Must be called before Run.
func (b *Bot) SetTriggers(tm *mind.TriggerManager, onClose func(contextID string)) {
	b.triggers = tm
	b.onClose = onClose
}

// Run opens the session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onChannelDelete)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Println("[INFO] Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("[INFO] Logged in as %s", r.User.Username)
}

// onMessageCreate turns a message into a trigger. Only DMs and messages that
// mention the bot reach the engine; everything else in a guild channel is
// other people's conversation.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}

	isDM := m.GuildID == ""
	mentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			mentioned = true
			break
		}
	}
	if !isDM && !mentioned {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	if b.triggers != nil {
		b.triggers.OnMessage(m.ChannelID, m.Author.ID, m.Author.Username, m.ID, content)
	}
}

// onChannelDelete tears the context down: timers stop, queued triggers drop,
// in-flight results get discarded.
func (b *Bot) onChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	if b.triggers == nil {
		return
	}
	log.Printf("[INFO] channel deleted, tearing down context id=%s", c.ID)
	b.triggers.Teardown(c.ID)
	if b.onClose != nil {
		b.onClose(c.ID)
	}
}

// Send implements mind.Transport. Long messages are split on line breaks to
// stay under Discord's 2000-character limit.
func (b *Bot) Send(contextID, text string) error {
	for _, chunk := range splitMessage(text, 2000) {
		if _, err := b.dg.ChannelMessageSend(contextID, chunk); err != nil {
			return err
		}
		time.Sleep(200 * time.Millisecond)
	}
	return nil
}

// React implements mind.Transport.
func (b *Bot) React(contextID, messageID, emoji string) error {
	return b.dg.MessageReactionAdd(contextID, messageID, emoji)
}

func stripMention(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return content
}

func splitMessage(msg string, limit int) []string {
	var result []string
	for len(msg) > limit {
		cut := strings.LastIndex(msg[:limit], "\n")
		if cut <= 0 {
			// No usable line break in the window; hard-cut on a rune
			// boundary so multi-byte characters stay intact.
			cut = limit
			for cut > 0 && !utf8.RuneStart(msg[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		if chunk := strings.TrimSpace(msg[:cut]); chunk != "" {
			result = append(result, chunk)
		}
		msg = strings.TrimSpace(msg[cut:])
	}
	if msg != "" {
		result = append(result, msg)
	}
	return result
}
