package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/store"
)

const maxPrefixLength = 5

var errOneWord = errors.New("the prefix must be a single word")

// prefixArgs maps "prefix" to show, "prefix reset" to reset and
// "prefix <p>" to set.
func prefixArgs(inv *command.Invocation) (command.OptionData, error) {
	switch {
	case len(inv.Args) == 0:
		return command.OptionData{}, nil
	case len(inv.Args) > 1:
		return nil, errOneWord
	case strings.EqualFold(inv.Args[0], "reset"):
		return command.OptionData{"reset": true}, nil
	}
	return command.OptionData{"prefix": inv.Args[0]}, nil
}

func (c *Commands) prefix(ctx context.Context, inv *command.Invocation, opts command.OptionData) error {
	if inv.GuildID == "" {
		return inv.Reply(ctx, "Prefixes can only be changed in a server.")
	}

	reset := opts.Bool("reset")
	next := strings.TrimSpace(opts.String("prefix"))
	if !reset && next == "" {
		return inv.Reply(ctx, fmt.Sprintf("The prefix here is `%s`.", c.deps.Prefixes.Prefix(ctx, inv.GuildID)))
	}

	allowed, err := c.canManageGuild(inv)
	if err != nil {
		return fmt.Errorf("failed to resolve permissions: %w", err)
	}
	if !allowed {
		return inv.Reply(ctx, "⛔ You need the Manage Server permission to change the prefix.")
	}

	if reset {
		if err := c.deps.Settings.DeleteGuildSettings(ctx, inv.GuildID); err != nil {
			return fmt.Errorf("failed to reset prefix: %w", err)
		}
		c.deps.Prefixes.Invalidate(inv.GuildID)
		return inv.Reply(ctx, fmt.Sprintf("✅ Prefix reset to `%s`.", c.deps.Prefixes.DefaultPrefix()))
	}

	if msg := validatePrefix(next); msg != "" {
		return inv.Reply(ctx, "⚠️ "+msg)
	}
	if err := c.deps.Settings.SaveGuildSettings(ctx, inv.GuildID, store.GuildSettings{Prefix: next, UpdatedAt: c.now().UTC()}); err != nil {
		return fmt.Errorf("failed to save prefix: %w", err)
	}
	c.deps.Prefixes.Invalidate(inv.GuildID)
	return inv.Reply(ctx, fmt.Sprintf("✅ Prefix set to `%s`.", next))
}

func validatePrefix(p string) string {
	if utf8.RuneCountInString(p) > maxPrefixLength {
		return fmt.Sprintf("The prefix can be at most %d characters.", maxPrefixLength)
	}
	if strings.ContainsFunc(p, unicode.IsSpace) || strings.Contains(p, "`") {
		return "The prefix cannot contain spaces or backticks."
	}
	return ""
}

// canManageGuild checks Manage Server. Interactions carry resolved
// permissions; messages need a lookup.
func (c *Commands) canManageGuild(inv *command.Invocation) (bool, error) {
	var perms int64
	if inv.Interaction != nil && inv.Interaction.Member != nil {
		perms = inv.Interaction.Member.Permissions
	} else {
		var err error
		perms, err = c.deps.Permissions.UserChannelPermissions(inv.UserID(), inv.ChannelID)
		if err != nil {
			return false, err
		}
	}
	return perms&(discordgo.PermissionManageGuild|discordgo.PermissionAdministrator) != 0, nil
}
