package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// MessageReplier answers a message with a reply that does not ping anyone.
type MessageReplier struct {
	session Session
	message *discordgo.Message
}

func NewMessageReplier(s Session, m *discordgo.Message) *MessageReplier {
	return &MessageReplier{session: s, message: m}
}

func (r *MessageReplier) Reply(ctx context.Context, content string) error {
	_, err := r.session.ChannelMessageSendComplex(r.message.ChannelID, &discordgo.MessageSend{
		Content:         content,
		Reference:       r.message.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	return err
}

func (r *MessageReplier) ReplyEmbed(ctx context.Context, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) error {
	_, err := r.session.ChannelMessageSendComplex(r.message.ChannelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{embed},
		Components:      components,
		Reference:       r.message.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	return err
}

type responseState int

const (
	notResponded responseState = iota
	deferred
	responded
)

// InteractionReplier answers an interaction. The first reply is the
// interaction response; replies after that become follow-up messages.
type InteractionReplier struct {
	session     Session
	interaction *discordgo.Interaction

	mu    sync.Mutex
	state responseState
}

func NewInteractionReplier(s Session, i *discordgo.Interaction) *InteractionReplier {
	return &InteractionReplier{session: s, interaction: i}
}

// Defer acknowledges the interaction so a slow handler can reply later.
func (r *InteractionReplier) Defer(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != notResponded {
		return nil
	}
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err == nil {
		r.state = deferred
	}
	return err
}

func (r *InteractionReplier) Reply(ctx context.Context, content string) error {
	return r.send(content, nil, nil)
}

func (r *InteractionReplier) ReplyEmbed(ctx context.Context, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) error {
	return r.send("", []*discordgo.MessageEmbed{embed}, components)
}

func (r *InteractionReplier) send(content string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case notResponded:
		err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content:    content,
				Embeds:     embeds,
				Components: components,
			},
		})
		if err == nil {
			r.state = responded
		}
		return err

	case deferred:
		edit := &discordgo.WebhookEdit{Embeds: &embeds}
		if content != "" {
			edit.Content = &content
		}
		if components != nil {
			edit.Components = &components
		}
		_, err := r.session.InteractionResponseEdit(r.interaction, edit)
		if err == nil {
			r.state = responded
		}
		return err
	}

	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content:    content,
		Embeds:     embeds,
		Components: components,
	})
	return err
}
