package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
)

func (c *Commands) ask(ctx context.Context, inv *command.Invocation, opts command.OptionData) error {
	question := strings.TrimSpace(opts.String("question"))
	if question == "" {
		return inv.Reply(ctx, "Ask me something, for example `ask how do I change the prefix?`")
	}
	if c.deps.Asker == nil {
		return inv.Reply(ctx, "AI answers are not configured on this bot.")
	}

	if d, ok := inv.Replier.(command.Deferrer); ok {
		if err := d.Defer(ctx); err != nil {
			return fmt.Errorf("failed to defer reply: %w", err)
		}
	}

	answer, err := c.deps.Asker.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("failed to ask gemini: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🤖 " + truncate(question, 200),
		Description: truncate(answer.Text, 4000),
		Color:       embedColor,
	}
	if answer.Declined {
		embed.Color = 0xED4245
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "The model declined to answer."}
	}
	return inv.ReplyEmbed(ctx, embed)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
