package discord

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/dispatch"
	"github.com/pauljones0/syncbot/internal/reconcile"
	"github.com/pauljones0/syncbot/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) Reconcile(ctx context.Context, guildIDs []string) ([]reconcile.Result, error) {
	args := m.Called(guildIDs)
	return nil, args.Error(0)
}

func (m *mockReconciler) GuildJoined(ctx context.Context, guildID string) (reconcile.Result, bool) {
	m.Called(guildID)
	return reconcile.Result{Scope: guildID}, true
}

type staticPrefix string

func (p staticPrefix) Prefix(ctx context.Context, guildID string) string { return string(p) }

func newTestBot(t *testing.T, s Session, rec Reconciler, execute command.ExecuteFunc) *Bot {
	t.Helper()
	reg := command.NewRegistry()
	_, err := reg.Add(&command.Definition{Name: "ping", Category: "misc", Handler: command.Handler{Execute: execute}})
	require.NoError(t, err)
	router := dispatch.NewRouter(reg, staticPrefix("!"), nil, nil, nil)
	b := NewBot(s, NewPaginator(s, time.Minute))
	b.Bind(router, rec)
	return b
}

func TestReadyReconcilesKnownGuilds(t *testing.T) {
	rec := new(mockReconciler)
	rec.On("Reconcile", []string{"g1", "g2"}).Return(nil).Once()

	b := newTestBot(t, new(testutils.MockSession), rec, func(context.Context, *command.Invocation, command.OptionData) error { return nil })
	b.OnReady(&discordgo.Ready{
		SessionID: "s1",
		User:      &discordgo.User{ID: "bot"},
		Guilds:    []*discordgo.Guild{{ID: "g1"}, {ID: "g2"}},
	})
	b.Wait()

	// Guilds streamed after Ready are not pushed again.
	b.OnGuildCreate(&discordgo.GuildCreate{Guild: &discordgo.Guild{ID: "g1"}})
	b.Wait()

	assert.Equal(t, 2, b.GuildCount())
	rec.AssertExpectations(t)
	rec.AssertNotCalled(t, "GuildJoined", mock.Anything)
}

func TestGuildCreatePushesNewGuildOnce(t *testing.T) {
	rec := new(mockReconciler)
	rec.On("GuildJoined", "g3").Return().Once()

	b := newTestBot(t, new(testutils.MockSession), rec, func(context.Context, *command.Invocation, command.OptionData) error { return nil })
	b.OnGuildCreate(&discordgo.GuildCreate{Guild: &discordgo.Guild{ID: "g3", Name: "new"}})
	b.OnGuildCreate(&discordgo.GuildCreate{Guild: &discordgo.Guild{ID: "g3", Name: "new"}})
	b.OnGuildCreate(&discordgo.GuildCreate{Guild: &discordgo.Guild{ID: "g4", Unavailable: true}})
	b.Wait()

	rec.AssertExpectations(t)
	assert.Equal(t, 1, b.GuildCount())

	b.OnGuildDelete(&discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "g3"}})
	assert.Zero(t, b.GuildCount())
}

func TestBackgroundPanicIsContained(t *testing.T) {
	rec := new(mockReconciler)
	rec.On("Reconcile", mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Return(nil)

	b := newTestBot(t, new(testutils.MockSession), rec, func(context.Context, *command.Invocation, command.OptionData) error { return nil })
	assert.NotPanics(t, func() {
		b.OnReady(&discordgo.Ready{SessionID: "s1"})
		b.Wait()
	})
}

func TestMessageCreateRoutesToHandler(t *testing.T) {
	s := new(testutils.MockSession)
	s.On("ChannelMessageSendComplex", "c1", mock.MatchedBy(func(data *discordgo.MessageSend) bool {
		return data.Content == "pong"
	})).Return(&discordgo.Message{}, nil).Once()

	b := newTestBot(t, s, new(mockReconciler), func(ctx context.Context, inv *command.Invocation, _ command.OptionData) error {
		return inv.Reply(ctx, "pong")
	})
	b.OnMessageCreate(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "m1", ChannelID: "c1", GuildID: "g1", Content: "!ping", Author: &discordgo.User{ID: "u1"},
	}})
	s.AssertExpectations(t)
}

func TestInteractionCreateRoutesCommands(t *testing.T) {
	s := new(testutils.MockSession)
	s.On("InteractionRespond", mock.Anything, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		return r.Data != nil && r.Data.Content == "pong"
	})).Return(nil).Once()

	b := newTestBot(t, s, new(mockReconciler), func(ctx context.Context, inv *command.Invocation, _ command.OptionData) error {
		return inv.Reply(ctx, "pong")
	})
	b.OnInteractionCreate(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:     "i1",
		Type:   discordgo.InteractionApplicationCommand,
		Member: &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "misc",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "ping", Type: discordgo.ApplicationCommandOptionSubCommand},
			},
		},
	}})

	// Unknown components are ignored without a response.
	b.OnInteractionCreate(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:   "i2",
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "legacy"},
	}})
	s.AssertExpectations(t)
}
