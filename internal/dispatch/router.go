// Package dispatch routes messages and interactions to command handlers.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/logger"
)

// SlashPrefix is the prefix reported to handlers for interactions.
const SlashPrefix = "/"

// Outcome tells what the router did with an invocation.
type Outcome int

const (
	Ignored Outcome = iota
	CoolingDown
	BadInput
	Failed
	Executed
)

func (o Outcome) String() string {
	return [...]string{"ignored", "cooling_down", "bad_input", "failed", "executed"}[o]
}

// PrefixSource resolves the message prefix of a guild.
type PrefixSource interface {
	Prefix(ctx context.Context, guildID string) string
}

// UsageRecorder counts successful invocations.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, command, userID string) error
}

// ErrorReporter forwards handler failures to operators.
type ErrorReporter interface {
	Report(ctx context.Context, err error, kv ...any)
}

// Router resolves invocations against a registry and runs their handlers.
// Handler failures, including panics, are contained here.
type Router struct {
	registry  *command.Registry
	prefixes  PrefixSource
	usage     UsageRecorder
	reporter  ErrorReporter
	cooldowns *Cooldowns

	mu    sync.RWMutex
	botID string
}

// NewRouter builds a router. usage and reporter may be nil.
func NewRouter(registry *command.Registry, prefixes PrefixSource, usage UsageRecorder, reporter ErrorReporter, cooldowns *Cooldowns) *Router {
	if cooldowns == nil {
		cooldowns = NewCooldowns()
	}
	if reporter == nil {
		reporter = (*logger.Reporter)(nil)
	}
	return &Router{
		registry:  registry,
		prefixes:  prefixes,
		usage:     usage,
		reporter:  reporter,
		cooldowns: cooldowns,
	}
}

// SetBotID enables mention invocations such as "@bot help".
func (r *Router) SetBotID(id string) {
	r.mu.Lock()
	r.botID = id
	r.mu.Unlock()
}

func (r *Router) Registry() *command.Registry {
	return r.registry
}

// HandleMessage dispatches a message that starts with the guild prefix or a
// mention of the bot. Anything else is ignored.
func (r *Router) HandleMessage(ctx context.Context, m *discordgo.Message, replier command.Replier) Outcome {
	if m == nil || m.Author == nil || m.Author.Bot {
		return Ignored
	}

	prefix := r.prefixes.Prefix(ctx, m.GuildID)
	rest, ok := r.stripPrefix(strings.TrimSpace(m.Content), prefix)
	if !ok {
		return Ignored
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return Ignored
	}

	def, ok := r.registry.Resolve(fields[0])
	if !ok {
		return Ignored
	}

	inv := &command.Invocation{
		Source:    command.FromMessage,
		Command:   def.Key(),
		Prefix:    prefix,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		User:      m.Author,
		Member:    m.Member,
		Message:   m,
		Args:      fields[1:],
		Replier:   replier,
	}
	return r.run(ctx, def, inv)
}

// HandleInteraction dispatches an application command interaction by the
// name of its invoked subcommand. The umbrella must match the command's
// category, so stale registrations are ignored.
func (r *Router) HandleInteraction(ctx context.Context, i *discordgo.Interaction, replier command.Replier) Outcome {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return Ignored
	}
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 || data.Options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return Ignored
	}
	sub := data.Options[0]

	def, ok := r.registry.Resolve(sub.Name)
	if !ok || !strings.EqualFold(def.Category, data.Name) {
		return Ignored
	}

	inv := &command.Invocation{
		Source:      command.FromInteraction,
		Command:     def.Key(),
		Prefix:      SlashPrefix,
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
		User:        i.User,
		Member:      i.Member,
		Interaction: i,
		Options:     sub.Options,
		Replier:     replier,
	}
	if inv.User == nil && i.Member != nil {
		inv.User = i.Member.User
	}
	return r.run(ctx, def, inv)
}

func (r *Router) stripPrefix(content, prefix string) (string, bool) {
	if prefix != "" && strings.HasPrefix(content, prefix) {
		return content[len(prefix):], true
	}

	r.mu.RLock()
	botID := r.botID
	r.mu.RUnlock()
	if botID == "" {
		return "", false
	}
	for _, mention := range []string{"<@" + botID + ">", "<@!" + botID + ">"} {
		if strings.HasPrefix(content, mention) {
			return content[len(mention):], true
		}
	}
	return "", false
}

func (r *Router) run(ctx context.Context, def *command.Definition, inv *command.Invocation) Outcome {
	userID := inv.UserID()

	if left, ok := r.cooldowns.Allow(userID, def.Key(), def.Cooldown); !ok {
		r.reply(ctx, inv, fmt.Sprintf("⏳ Please wait %.1fs before using `%s` again.", left.Seconds(), def.Key()))
		return CoolingDown
	}

	extract := def.Handler.TextExtract
	if inv.Source == command.FromInteraction {
		extract = def.Handler.SlashExtract
	}
	opts := command.OptionData{}
	if extract != nil {
		data, err := extract(inv)
		if err != nil {
			logger.Warn(ctx, "Rejected command input", "command", def.Key(), "error", err)
			r.reply(ctx, inv, usageHint(def, inv.Prefix, err))
			return BadInput
		}
		if data != nil {
			opts = data
		}
	}

	logger.Info(ctx, "Dispatching command",
		"command", def.Key(),
		"source", inv.Source.String(),
		"guild_id", inv.GuildID,
		"user_id", userID,
	)

	if err := execute(ctx, def, inv, opts); err != nil {
		logger.Error(ctx, "Command failed", "command", def.Key(), "error", err)
		r.reporter.Report(ctx, err,
			"command", def.Key(),
			"source", inv.Source.String(),
			"guild_id", inv.GuildID,
			"channel_id", inv.ChannelID,
			"user_id", userID,
		)
		if inv.Replier != nil {
			if replyErr := inv.ReplyEmbed(ctx, ErrorEmbed()); replyErr != nil {
				logger.Warn(ctx, "Failed to send error reply", "error", replyErr)
			}
		}
		return Failed
	}

	if r.usage != nil {
		if err := r.usage.RecordUsage(ctx, def.Key(), userID); err != nil {
			logger.Warn(ctx, "Failed to record usage", "command", def.Key(), "error", err)
		}
	}
	return Executed
}

// execute turns a handler panic into an error.
func execute(ctx context.Context, def *command.Definition, inv *command.Invocation, opts command.OptionData) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("command %s panicked: %v\n%s", def.Key(), rec, debug.Stack())
		}
	}()
	return def.Handler.Execute(ctx, inv, opts)
}

func (r *Router) reply(ctx context.Context, inv *command.Invocation, content string) {
	if inv.Replier == nil {
		return
	}
	if err := inv.Reply(ctx, content); err != nil {
		logger.Warn(ctx, "Failed to reply", "command", inv.Command, "error", err)
	}
}

func usageHint(def *command.Definition, prefix string, err error) string {
	if def.Usage == "" {
		return fmt.Sprintf("⚠️ %v", err)
	}
	return fmt.Sprintf("⚠️ %v\nUsage: `%s%s`", err, prefix, def.Usage)
}

// ErrorEmbed is the generic reply shown when a command fails.
func ErrorEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⚠️ Something went wrong",
		Description: "An error occurred while running this command. It has been reported.",
		Color:       0xED4245, // Red
	}
}
