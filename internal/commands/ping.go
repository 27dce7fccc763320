package commands

import (
	"context"
	"fmt"

	"github.com/pauljones0/syncbot/internal/command"
)

func (c *Commands) ping(ctx context.Context, inv *command.Invocation, _ command.OptionData) error {
	return inv.Reply(ctx, fmt.Sprintf("🏓 Pong! Gateway latency: %dms", c.deps.Status.Latency().Milliseconds()))
}
