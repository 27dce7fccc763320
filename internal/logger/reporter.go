package logger

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ChunkSize leaves room for a code fence under the 2000 character message
// limit.
const ChunkSize = 1900

// ChannelSender posts plain messages to a channel.
type ChannelSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Reporter posts errors to a Discord channel, falling back to the console
// when no channel is configured or posting fails. A nil *Reporter logs only.
type Reporter struct {
	sender    ChannelSender
	channelID string
}

func NewReporter(sender ChannelSender, channelID string) *Reporter {
	return &Reporter{sender: sender, channelID: channelID}
}

// Report never fails; whatever cannot be posted is logged.
func (r *Reporter) Report(ctx context.Context, err error, kv ...any) {
	if err == nil {
		return
	}
	text := Format(ctx, err, kv...)

	if r == nil || r.sender == nil || r.channelID == "" {
		Error(ctx, "Unreported error", append(kv, "error", err)...)
		return
	}

	for _, chunk := range Chunk(text, ChunkSize) {
		if _, sendErr := r.sender.ChannelMessageSend(r.channelID, "```\n"+chunk+"\n```"); sendErr != nil {
			Error(ctx, "Failed to post error report", "send_error", sendErr, "report", text)
			return
		}
	}
}

// Format renders err and its key/value context as text.
func Format(ctx context.Context, err error, kv ...any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "error: %v", err)
	if id := GetRequestID(ctx); id != "" {
		fmt.Fprintf(&b, "\nrequest_id: %s", id)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, "\n%v: %v", kv[i], kv[i+1])
	}
	if len(kv)%2 == 1 {
		fmt.Fprintf(&b, "\n%v", kv[len(kv)-1])
	}
	return b.String()
}

// Chunk splits s into pieces of at most size runes, breaking after a newline
// when one falls in the second half of a piece.
func Chunk(s string, size int) []string {
	if size <= 0 {
		return []string{s}
	}
	runes := []rune(s)
	var chunks []string
	for len(runes) > size {
		cut := size
		for i := size - 1; i >= size/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 || len(chunks) == 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
