package discord

import (
	"context"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/logger"
)

// guard wraps a gateway event handler so a panic is logged and the
// session keeps running.
func guard[T any](name string, fn func(*discordgo.Session, T)) func(*discordgo.Session, T) {
	return func(s *discordgo.Session, event T) {
		defer recoverAndLog(name)
		fn(s, event)
	}
}

func recoverAndLog(name string) {
	if r := recover(); r != nil {
		logger.Error(context.Background(), "Recovered from panic", "handler", name, "panic", r, "stack", string(debug.Stack()))
	}
}
