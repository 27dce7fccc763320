package testutils

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/store"
	"github.com/stretchr/testify/mock"
)

// LoadFixture loads a JSON file from the test/fixtures directory relative to the project root.
func LoadFixture(filename string, v interface{}) error {
	_, b, _, _ := runtime.Caller(0)
	// runtime.Caller(0) will give the path to this file: internal/testutils/testutils.go
	// So we go up 2 levels to reach the root.
	basepath := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	path := filepath.Join(basepath, "test", "fixtures", filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// MockStore implements store.Store using testify/mock
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetGuildSettings(ctx context.Context, guildID string) (*store.GuildSettings, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.GuildSettings), args.Error(1)
}

func (m *MockStore) SaveGuildSettings(ctx context.Context, guildID string, settings store.GuildSettings) error {
	return m.Called(ctx, guildID, settings).Error(0)
}

func (m *MockStore) DeleteGuildSettings(ctx context.Context, guildID string) error {
	return m.Called(ctx, guildID).Error(0)
}

func (m *MockStore) RecordUsage(ctx context.Context, command, userID string) error {
	return m.Called(ctx, command, userID).Error(0)
}

func (m *MockStore) TopUsage(ctx context.Context, n int) ([]store.UsageCount, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.UsageCount), args.Error(1)
}

func (m *MockStore) Snapshot(ctx context.Context, collection string) ([]map[string]any, error) {
	args := m.Called(ctx, collection)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]any), args.Error(1)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

// MockCommandClient implements the application command endpoints using testify/mock
type MockCommandClient struct {
	mock.Mock
}

func (m *MockCommandClient) ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*discordgo.ApplicationCommand), args.Error(1)
}

func (m *MockCommandClient) ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.ApplicationCommand), args.Error(1)
}

func (m *MockCommandClient) ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID, cmdID, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.ApplicationCommand), args.Error(1)
}

func (m *MockCommandClient) ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error {
	return m.Called(appID, guildID, cmdID).Error(0)
}

// MockSession implements the message and interaction endpoints using testify/mock
type MockSession struct {
	mock.Mock
}

func (m *MockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func (m *MockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func (m *MockSession) ChannelMessageEditComplex(edit *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(edit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func (m *MockSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	return m.Called(interaction, resp).Error(0)
}

func (m *MockSession) InteractionResponseEdit(interaction *discordgo.Interaction, edit *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, edit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func (m *MockSession) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, wait, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

// MockReplier implements command.Replier using testify/mock
type MockReplier struct {
	mock.Mock
}

func (m *MockReplier) Reply(ctx context.Context, content string) error {
	return m.Called(ctx, content).Error(0)
}

func (m *MockReplier) ReplyEmbed(ctx context.Context, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) error {
	return m.Called(ctx, embed, components).Error(0)
}
