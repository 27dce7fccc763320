package discord

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pages(n int) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, n)
	for i := range out {
		out[i] = &discordgo.MessageEmbed{Title: fmt.Sprintf("page %d", i+1)}
	}
	return out
}

func button(token, dir, userID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:     "press",
		Type:   discordgo.InteractionMessageComponent,
		Member: &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      pagePrefix + token + ":" + dir,
			ComponentType: discordgo.ButtonComponent,
		},
	}
}

func messageInvocation(s Session) *command.Invocation {
	m := &discordgo.Message{ID: "m1", ChannelID: "c1", Author: &discordgo.User{ID: "u1"}}
	return &command.Invocation{
		Source:  command.FromMessage,
		Message: m,
		User:    m.Author,
		Replier: NewMessageReplier(s, m),
	}
}

func TestPaginatorSinglePageHasNoButtons(t *testing.T) {
	s := new(testutils.MockSession)
	s.On("ChannelMessageSendComplex", "c1", mock.MatchedBy(func(data *discordgo.MessageSend) bool {
		return len(data.Embeds) == 1 && len(data.Components) == 0
	})).Return(&discordgo.Message{ID: "r1", ChannelID: "c1"}, nil).Once()

	p := NewPaginator(s, time.Minute)
	require.NoError(t, p.Send(context.Background(), messageInvocation(s), pages(1)))
	assert.Zero(t, p.Live())
	s.AssertExpectations(t)
}

func TestPaginatorFlipsPages(t *testing.T) {
	ctx := context.Background()
	s := new(testutils.MockSession)
	s.On("ChannelMessageSendComplex", "c1", mock.MatchedBy(func(data *discordgo.MessageSend) bool {
		return data.Embeds[0].Title == "page 1" && len(data.Components) == 1
	})).Return(&discordgo.Message{ID: "r1", ChannelID: "c1"}, nil).Once()

	var shown []string
	s.On("InteractionRespond", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		resp := args.Get(1).(*discordgo.InteractionResponse)
		if resp.Type == discordgo.InteractionResponseUpdateMessage {
			shown = append(shown, resp.Data.Embeds[0].Title)
		} else {
			shown = append(shown, resp.Data.Content)
		}
	}).Return(nil)

	p := NewPaginator(s, time.Minute)
	require.NoError(t, p.Send(ctx, messageInvocation(s), pages(3)))
	require.Equal(t, 1, p.Live())

	assert.True(t, p.Handle(ctx, button("m1", "next", "u1")))
	assert.True(t, p.Handle(ctx, button("m1", "next", "u1")))
	assert.True(t, p.Handle(ctx, button("m1", "next", "u1")))
	assert.True(t, p.Handle(ctx, button("m1", "prev", "u1")))
	assert.True(t, p.Handle(ctx, button("m1", "next", "intruder")))

	require.Len(t, shown, 5)
	assert.Equal(t, []string{"page 2", "page 3", "page 1", "page 3"}, shown[:4])
	assert.Contains(t, shown[4], "Only the person")
}

func TestPaginatorAcceptsPressesDuringSend(t *testing.T) {
	ctx := context.Background()
	s := new(testutils.MockSession)
	p := NewPaginator(s, time.Minute)

	var early *discordgo.InteractionResponse
	s.On("InteractionRespond", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		early = args.Get(1).(*discordgo.InteractionResponse)
	}).Return(nil).Once()
	s.On("ChannelMessageSendComplex", "c1", mock.Anything).Run(func(mock.Arguments) {
		assert.True(t, p.Handle(ctx, button("m1", "next", "u1")))
	}).Return(&discordgo.Message{ID: "r1", ChannelID: "c1"}, nil).Once()

	require.NoError(t, p.Send(ctx, messageInvocation(s), pages(2)))
	require.NotNil(t, early)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, early.Type)
	assert.Equal(t, "page 2", early.Data.Embeds[0].Title)
	assert.Equal(t, 1, p.Live())
	s.AssertExpectations(t)
}

func TestPaginatorFailedSendIsNotTracked(t *testing.T) {
	s := new(testutils.MockSession)
	s.On("ChannelMessageSendComplex", "c1", mock.Anything).Return(nil, assert.AnError).Once()

	p := NewPaginator(s, time.Minute)
	assert.ErrorIs(t, p.Send(context.Background(), messageInvocation(s), pages(2)), assert.AnError)
	assert.Zero(t, p.Live())
	s.AssertExpectations(t)
}

func TestPaginatorIgnoresOtherComponents(t *testing.T) {
	p := NewPaginator(new(testutils.MockSession), time.Minute)
	i := button("x", "next", "u1")
	i.Data = discordgo.MessageComponentInteractionData{CustomID: "something_else"}
	assert.False(t, p.Handle(context.Background(), i))
	assert.False(t, p.Handle(context.Background(), &discordgo.Interaction{Type: discordgo.InteractionApplicationCommand}))
}

func TestPaginatorExpiresAndDisablesButtons(t *testing.T) {
	ctx := context.Background()
	s := new(testutils.MockSession)
	s.On("ChannelMessageSendComplex", "c1", mock.Anything).Return(&discordgo.Message{ID: "r1", ChannelID: "c1"}, nil).Once()

	disabled := make(chan *discordgo.MessageEdit, 1)
	s.On("ChannelMessageEditComplex", mock.Anything).Run(func(args mock.Arguments) {
		disabled <- args.Get(0).(*discordgo.MessageEdit)
	}).Return(&discordgo.Message{}, nil).Once()
	s.On("InteractionRespond", mock.Anything, mock.MatchedBy(func(r *discordgo.InteractionResponse) bool {
		return r.Data != nil && r.Data.Flags == discordgo.MessageFlagsEphemeral
	})).Return(nil).Once()

	p := NewPaginator(s, 20*time.Millisecond)
	require.NoError(t, p.Send(ctx, messageInvocation(s), pages(2)))

	select {
	case edit := <-disabled:
		assert.Equal(t, "r1", edit.ID)
		assert.Equal(t, "c1", edit.Channel)
		row := (*edit.Components)[0].(discordgo.ActionsRow)
		for _, c := range row.Components {
			assert.True(t, c.(discordgo.Button).Disabled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("buttons were never disabled")
	}
	assert.Eventually(t, func() bool { return p.Live() == 0 }, time.Second, 5*time.Millisecond)

	assert.True(t, p.Handle(ctx, button("m1", "next", "u1")))
	s.AssertExpectations(t)
}

func TestPaginatorInteractionExpiryEditsResponse(t *testing.T) {
	ctx := context.Background()
	s := new(testutils.MockSession)
	i := &discordgo.Interaction{ID: "i9", Member: &discordgo.Member{User: &discordgo.User{ID: "u1"}}}
	s.On("InteractionRespond", i, mock.Anything).Return(nil).Once()

	done := make(chan struct{})
	s.On("InteractionResponseEdit", i, mock.MatchedBy(func(e *discordgo.WebhookEdit) bool {
		return e.Components != nil
	})).Run(func(mock.Arguments) { close(done) }).Return(&discordgo.Message{}, nil).Once()

	p := NewPaginator(s, 10*time.Millisecond)
	inv := &command.Invocation{Source: command.FromInteraction, Interaction: i, Member: i.Member}
	require.NoError(t, p.Send(ctx, inv, pages(2)))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("interaction response was never edited")
	}
	s.AssertExpectations(t)
}
