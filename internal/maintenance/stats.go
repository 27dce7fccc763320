package maintenance

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

const statsColor = 0x5865F2

// BotStatus reports the live gateway figures shown in stats posts.
type BotStatus interface {
	GuildCount() int
	Uptime() time.Duration
}

type CommandCounter interface {
	Len() int
}

type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Stats posts a status embed to a channel.
type Stats struct {
	sender    MessageSender
	status    BotStatus
	commands  CommandCounter
	channelID string
}

func NewStats(sender MessageSender, status BotStatus, commands CommandCounter, channelID string) *Stats {
	return &Stats{sender: sender, status: status, commands: commands, channelID: channelID}
}

func (s *Stats) Run(ctx context.Context) error {
	embed := StatsEmbed(s.status.GuildCount(), s.commands.Len(), s.status.Uptime())
	if _, err := s.sender.ChannelMessageSendComplex(s.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		return fmt.Errorf("failed to post stats: %w", err)
	}
	return nil
}

// StatsEmbed renders the bot's headline numbers.
func StatsEmbed(guilds, commands int, uptime time.Duration) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📊 Bot stats",
		Color: statsColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Servers", Value: strconv.Itoa(guilds), Inline: true},
			{Name: "Commands", Value: strconv.Itoa(commands), Inline: true},
			{Name: "Uptime", Value: FormatUptime(uptime), Inline: true},
			{Name: "Runtime", Value: fmt.Sprintf("%s · %d goroutines", runtime.Version(), runtime.NumGoroutine()), Inline: false},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// FormatUptime renders d as days, hours and minutes.
func FormatUptime(d time.Duration) string {
	d = d.Round(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
