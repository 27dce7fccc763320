// Package commands holds the bodies of the bot's built-in commands.
package commands

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/ai"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/store"
)

const embedColor = 0x5865F2

type Pager interface {
	Send(ctx context.Context, inv *command.Invocation, embeds []*discordgo.MessageEmbed) error
}

// Status reports live gateway figures.
type Status interface {
	GuildCount() int
	Uptime() time.Duration
	Latency() time.Duration
}

type UsageReader interface {
	TopUsage(ctx context.Context, n int) ([]store.UsageCount, error)
}

type SettingsWriter interface {
	SaveGuildSettings(ctx context.Context, guildID string, settings store.GuildSettings) error
	DeleteGuildSettings(ctx context.Context, guildID string) error
}

type PrefixCache interface {
	Prefix(ctx context.Context, guildID string) string
	DefaultPrefix() string
	Invalidate(guildID string)
}

// PermissionChecker resolves a member's permissions in a channel.
type PermissionChecker interface {
	UserChannelPermissions(userID, channelID string, fetchOptions ...discordgo.RequestOption) (int64, error)
}

type Asker interface {
	Ask(ctx context.Context, question string) (*ai.Answer, error)
}

// Deps are the services the command bodies call. Asker may be nil.
type Deps struct {
	Pager       Pager
	Status      Status
	Usage       UsageReader
	Settings    SettingsWriter
	Prefixes    PrefixCache
	Permissions PermissionChecker
	Asker       Asker
}

// Commands binds the built-in handlers. The registry is attached after
// loading because loading itself needs the handlers.
type Commands struct {
	deps     Deps
	registry atomic.Pointer[command.Registry]
	now      func() time.Time
}

func New(deps Deps) *Commands {
	return &Commands{deps: deps, now: time.Now}
}

func (c *Commands) SetRegistry(r *command.Registry) {
	c.registry.Store(r)
}

// Handlers returns the handler set keyed by command name.
func (c *Commands) Handlers() command.HandlerSet {
	hs := command.HandlerSet{}
	hs.Bind("help", command.Handler{Execute: c.help, TextExtract: command.Positional("command"), SlashExtract: command.SlashOptions})
	hs.Bind("ping", command.Handler{Execute: c.ping})
	hs.Bind("info", command.Handler{Execute: c.info})
	hs.Bind("prefix", command.Handler{Execute: c.prefix, TextExtract: prefixArgs, SlashExtract: command.SlashOptions})
	hs.Bind("ask", command.Handler{Execute: c.ask, TextExtract: command.Positional("question"), SlashExtract: command.SlashOptions})
	return hs
}
