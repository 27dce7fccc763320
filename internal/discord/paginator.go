package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/logger"
)

const pagePrefix = "page:"

// Paginator sends multi-page embeds with previous/next buttons and keeps
// them alive until they sit idle for the configured timeout.
type Paginator struct {
	session Session
	timeout time.Duration

	mu    sync.Mutex
	pages map[string]*pager
}

type pager struct {
	token  string
	owner  string
	embeds []*discordgo.MessageEmbed
	index  int
	timer  *time.Timer

	// Exactly one of these identifies the message to disable on expiry.
	channelID   string
	messageID   string
	interaction *discordgo.Interaction
}

func NewPaginator(s Session, timeout time.Duration) *Paginator {
	return &Paginator{
		session: s,
		timeout: timeout,
		pages:   make(map[string]*pager),
	}
}

// Send replies to inv with the first page. A single page is sent without
// buttons and is not tracked.
func (p *Paginator) Send(ctx context.Context, inv *command.Invocation, embeds []*discordgo.MessageEmbed) error {
	if len(embeds) == 0 {
		return errors.New("no pages to send")
	}
	if len(embeds) == 1 {
		return inv.ReplyEmbed(ctx, embeds[0])
	}
	for i, e := range embeds {
		e.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d", i+1, len(embeds))}
	}

	pg := &pager{owner: inv.UserID(), embeds: embeds}
	switch {
	case inv.Interaction != nil:
		pg.token = inv.Interaction.ID
		pg.interaction = inv.Interaction
	case inv.Message != nil:
		pg.token = inv.Message.ID
	default:
		return errors.New("invocation has neither a message nor an interaction")
	}

	// Button presses can arrive before the send returns.
	p.track(pg)

	var err error
	if pg.interaction != nil {
		err = p.session.InteractionRespond(pg.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds:     embeds[:1],
				Components: pg.components(false),
			},
		})
	} else {
		var msg *discordgo.Message
		msg, err = p.session.ChannelMessageSendComplex(inv.Message.ChannelID, &discordgo.MessageSend{
			Embeds:          embeds[:1],
			Components:      pg.components(false),
			Reference:       inv.Message.Reference(),
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		})
		if err == nil {
			p.mu.Lock()
			pg.channelID, pg.messageID = msg.ChannelID, msg.ID
			p.mu.Unlock()
		}
	}
	if err != nil {
		p.untrack(pg.token)
		return err
	}
	return nil
}

func (p *Paginator) track(pg *pager) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[pg.token] = pg
	pg.timer = time.AfterFunc(p.timeout, func() { p.expire(pg.token) })
}

func (p *Paginator) untrack(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pg, ok := p.pages[token]; ok {
		pg.timer.Stop()
		delete(p.pages, token)
	}
}

// Handle processes a button press. It reports false when the interaction
// is not a pagination button.
func (p *Paginator) Handle(ctx context.Context, i *discordgo.Interaction) bool {
	if i.Type != discordgo.InteractionMessageComponent {
		return false
	}
	id := i.MessageComponentData().CustomID
	if !strings.HasPrefix(id, pagePrefix) {
		return false
	}
	token, dir, ok := strings.Cut(strings.TrimPrefix(id, pagePrefix), ":")
	if !ok {
		return false
	}

	userID := ""
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	} else if i.User != nil {
		userID = i.User.ID
	}

	p.mu.Lock()
	pg, live := p.pages[token]
	var embed *discordgo.MessageEmbed
	var components []discordgo.MessageComponent
	switch {
	case !live:
	case pg.owner != "" && pg.owner != userID:
	default:
		switch dir {
		case "prev":
			pg.index = (pg.index - 1 + len(pg.embeds)) % len(pg.embeds)
		case "next":
			pg.index = (pg.index + 1) % len(pg.embeds)
		}
		pg.timer.Reset(p.timeout)
		embed = pg.embeds[pg.index]
		components = pg.components(false)
	}
	p.mu.Unlock()

	var resp *discordgo.InteractionResponse
	switch {
	case !live:
		resp = ephemeral("This menu has expired. Run the command again.")
	case embed == nil:
		resp = ephemeral("Only the person who ran the command can turn these pages.")
	default:
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: components,
			},
		}
	}
	if err := p.session.InteractionRespond(i, resp); err != nil {
		logger.Warn(ctx, "Failed to answer pagination button", "token", token, "error", err)
	}
	return true
}

// Live returns the number of paginated messages still accepting input.
func (p *Paginator) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

func (p *Paginator) expire(token string) {
	p.mu.Lock()
	pg, ok := p.pages[token]
	if ok {
		delete(p.pages, token)
	}
	var channelID, messageID string
	if ok {
		channelID, messageID = pg.channelID, pg.messageID
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	components := pg.components(true)
	var err error
	if pg.interaction != nil {
		_, err = p.session.InteractionResponseEdit(pg.interaction, &discordgo.WebhookEdit{Components: &components})
	} else {
		edit := discordgo.NewMessageEdit(channelID, messageID)
		edit.Components = &components
		_, err = p.session.ChannelMessageEditComplex(edit)
	}
	if err != nil {
		logger.Warn(context.Background(), "Failed to disable pagination buttons", "token", token, "error", err)
	}
}

func (pg *pager) components(disabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.SecondaryButton,
					CustomID: pagePrefix + pg.token + ":prev",
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.PrimaryButton,
					CustomID: pagePrefix + pg.token + ":next",
					Disabled: disabled,
				},
			},
		},
	}
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}
