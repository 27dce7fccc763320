package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/dispatch"
	"github.com/pauljones0/syncbot/internal/logger"
	"github.com/pauljones0/syncbot/internal/reconcile"
)

// Intents the bot needs to see guilds and prefix commands.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Reconciler keeps the platform's command registrations in step with the
// local catalog.
type Reconciler interface {
	Reconcile(ctx context.Context, guildIDs []string) ([]reconcile.Result, error)
	GuildJoined(ctx context.Context, guildID string) (reconcile.Result, bool)
}

// Bot routes gateway events to the dispatcher, the reconciler and the
// paginator.
type Bot struct {
	session    Session
	gateway    *discordgo.Session
	router     *dispatch.Router
	reconciler Reconciler
	paginator  *Paginator
	started    time.Time

	mu     sync.Mutex
	guilds map[string]struct{}

	background sync.WaitGroup
}

func NewBot(s Session, paginator *Paginator) *Bot {
	return &Bot{
		session:   s,
		paginator: paginator,
		started:   time.Now(),
		guilds:    make(map[string]struct{}),
	}
}

// Bind sets the event targets. Command bodies read the bot's status, so the
// router is built after the bot and bound before Attach.
func (b *Bot) Bind(router *dispatch.Router, reconciler Reconciler) {
	b.router = router
	b.reconciler = reconciler
}

// Attach registers the bot's event handlers on a gateway session.
func (b *Bot) Attach(dg *discordgo.Session) {
	b.gateway = dg
	dg.Identify.Intents = Intents
	dg.AddHandler(guard("ready", func(_ *discordgo.Session, r *discordgo.Ready) { b.OnReady(r) }))
	dg.AddHandler(guard("guild_create", func(_ *discordgo.Session, g *discordgo.GuildCreate) { b.OnGuildCreate(g) }))
	dg.AddHandler(guard("guild_delete", func(_ *discordgo.Session, g *discordgo.GuildDelete) { b.OnGuildDelete(g) }))
	dg.AddHandler(guard("message_create", func(_ *discordgo.Session, m *discordgo.MessageCreate) { b.OnMessageCreate(m) }))
	dg.AddHandler(guard("interaction_create", func(_ *discordgo.Session, i *discordgo.InteractionCreate) { b.OnInteractionCreate(i) }))
}

// Uptime returns how long the bot has been running.
func (b *Bot) Uptime() time.Duration {
	return time.Since(b.started)
}

// Latency returns the gateway heartbeat round trip, or 0 before Attach.
func (b *Bot) Latency() time.Duration {
	if b.gateway == nil {
		return 0
	}
	return b.gateway.HeartbeatLatency()
}

// GuildCount returns the number of guilds the bot is in.
func (b *Bot) GuildCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.guilds)
}

// Wait blocks until background reconciliation work has finished.
func (b *Bot) Wait() {
	b.background.Wait()
}

func (b *Bot) OnReady(r *discordgo.Ready) {
	ctx := logger.WithRequestID(context.Background(), "ready:"+r.SessionID)
	if r.User != nil {
		b.router.SetBotID(r.User.ID)
	}

	ids := make([]string, 0, len(r.Guilds))
	b.mu.Lock()
	for _, g := range r.Guilds {
		b.guilds[g.ID] = struct{}{}
		ids = append(ids, g.ID)
	}
	b.mu.Unlock()
	logger.Info(ctx, "Connected to gateway", "guilds", len(ids))

	b.spawn(ctx, "reconcile", func(ctx context.Context) {
		if _, err := b.reconciler.Reconcile(ctx, ids); err != nil {
			logger.Error(ctx, "Command reconciliation failed", "error", err)
		}
	})
}

// OnGuildCreate pushes commands to guilds joined after startup. Guilds
// streamed in right after Ready were already reconciled.
func (b *Bot) OnGuildCreate(g *discordgo.GuildCreate) {
	if g.Guild == nil || g.Unavailable {
		return
	}
	b.mu.Lock()
	_, known := b.guilds[g.ID]
	b.guilds[g.ID] = struct{}{}
	b.mu.Unlock()
	if known {
		return
	}

	ctx := logger.WithRequestID(context.Background(), "guild:"+g.ID)
	logger.Info(ctx, "Joined guild", "guild_id", g.ID, "name", g.Name)
	b.spawn(ctx, "guild_joined", func(ctx context.Context) {
		b.reconciler.GuildJoined(ctx, g.ID)
	})
}

func (b *Bot) OnGuildDelete(g *discordgo.GuildDelete) {
	if g.Guild == nil || g.Unavailable {
		return
	}
	b.mu.Lock()
	delete(b.guilds, g.ID)
	b.mu.Unlock()
}

func (b *Bot) OnMessageCreate(m *discordgo.MessageCreate) {
	if m.Message == nil {
		return
	}
	ctx := logger.WithRequestID(context.Background(), m.ID)
	b.router.HandleMessage(ctx, m.Message, NewMessageReplier(b.session, m.Message))
}

func (b *Bot) OnInteractionCreate(i *discordgo.InteractionCreate) {
	if i.Interaction == nil {
		return
	}
	ctx := logger.WithRequestID(context.Background(), i.ID)
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		if !b.paginator.Handle(ctx, i.Interaction) {
			logger.Debug(ctx, "Ignoring unknown component", "custom_id", i.MessageComponentData().CustomID)
		}
	case discordgo.InteractionApplicationCommand:
		b.router.HandleInteraction(ctx, i.Interaction, NewInteractionReplier(b.session, i.Interaction))
	}
}

func (b *Bot) spawn(ctx context.Context, name string, fn func(context.Context)) {
	b.background.Add(1)
	go func() {
		defer b.background.Done()
		defer recoverAndLog(name)
		fn(ctx)
	}()
}
