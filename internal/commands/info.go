package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/logger"
	"github.com/pauljones0/syncbot/internal/maintenance"
)

const topUsageLimit = 5

func (c *Commands) info(ctx context.Context, inv *command.Invocation, _ command.OptionData) error {
	count := 0
	if reg := c.registry.Load(); reg != nil {
		count = reg.Len()
	}
	embed := maintenance.StatsEmbed(c.deps.Status.GuildCount(), count, c.deps.Status.Uptime())

	top, err := c.deps.Usage.TopUsage(ctx, topUsageLimit)
	if err != nil {
		// Usage is decoration; the stats still go out.
		logger.Warn(ctx, "Failed to read usage counters", "error", err)
	} else if len(top) > 0 {
		var b strings.Builder
		for i, u := range top {
			fmt.Fprintf(&b, "%d. `%s` %d\n", i+1, u.ID, u.Count)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Most used", Value: b.String()})
	}
	return inv.ReplyEmbed(ctx, embed)
}
