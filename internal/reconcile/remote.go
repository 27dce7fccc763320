// Package reconcile keeps the remotely registered application commands in
// line with the locally built targets, touching only what changed.
package reconcile

import (
	"github.com/bwmarrin/discordgo"
)

// GlobalScope is the scope of application-wide commands. Any other scope is a
// guild ID.
const GlobalScope = ""

// CommandClient is the part of the platform client that manages application
// commands. *discordgo.Session satisfies it.
type CommandClient interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// RemoteCommand is a registered command as fetched, projected into a flat
// value that shares nothing with the client's response objects.
type RemoteCommand struct {
	ID            string
	ApplicationID string
	GuildID       string
	Version       string

	// Body holds the comparable fields only; bookkeeping lives above.
	Body *discordgo.ApplicationCommand
}

func (r RemoteCommand) Name() string {
	if r.Body == nil {
		return ""
	}
	return r.Body.Name
}

// Project copies cmd into a RemoteCommand.
func Project(cmd *discordgo.ApplicationCommand) RemoteCommand {
	body := &discordgo.ApplicationCommand{
		Type:                     cmd.Type,
		Name:                     cmd.Name,
		NameLocalizations:        copyLocalizations(cmd.NameLocalizations),
		DefaultMemberPermissions: copyPtr(cmd.DefaultMemberPermissions),
		NSFW:                     copyPtr(cmd.NSFW),
		DMPermission:             copyPtr(cmd.DMPermission),
		Description:              cmd.Description,
		DescriptionLocalizations: copyLocalizations(cmd.DescriptionLocalizations),
		Options:                  copyOptions(cmd.Options),
	}
	if cmd.Contexts != nil {
		contexts := append([]discordgo.InteractionContextType(nil), *cmd.Contexts...)
		body.Contexts = &contexts
	}
	if cmd.IntegrationTypes != nil {
		types := append([]discordgo.ApplicationIntegrationType(nil), *cmd.IntegrationTypes...)
		body.IntegrationTypes = &types
	}

	return RemoteCommand{
		ID:            cmd.ID,
		ApplicationID: cmd.ApplicationID,
		GuildID:       cmd.GuildID,
		Version:       cmd.Version,
		Body:          body,
	}
}

// ProjectAll projects a fetched listing, skipping nil entries.
func ProjectAll(cmds []*discordgo.ApplicationCommand) []RemoteCommand {
	out := make([]RemoteCommand, 0, len(cmds))
	for _, c := range cmds {
		if c != nil {
			out = append(out, Project(c))
		}
	}
	return out
}

func copyOptions(opts []*discordgo.ApplicationCommandOption) []*discordgo.ApplicationCommandOption {
	if opts == nil {
		return nil
	}
	out := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, o := range opts {
		if o == nil {
			continue
		}
		c := *o
		c.Options = copyOptions(o.Options)
		c.NameLocalizations = copyMap(o.NameLocalizations)
		c.DescriptionLocalizations = copyMap(o.DescriptionLocalizations)
		c.ChannelTypes = append([]discordgo.ChannelType(nil), o.ChannelTypes...)
		c.MinValue = copyPtr(o.MinValue)
		c.MinLength = copyPtr(o.MinLength)
		if o.Choices != nil {
			c.Choices = make([]*discordgo.ApplicationCommandOptionChoice, 0, len(o.Choices))
			for _, ch := range o.Choices {
				if ch == nil {
					continue
				}
				cc := *ch
				cc.NameLocalizations = copyMap(ch.NameLocalizations)
				c.Choices = append(c.Choices, &cc)
			}
		}
		out = append(out, &c)
	}
	return out
}

func copyLocalizations(m *map[discordgo.Locale]string) *map[discordgo.Locale]string {
	if m == nil {
		return nil
	}
	c := copyMap(*m)
	return &c
}

func copyMap(m map[discordgo.Locale]string) map[discordgo.Locale]string {
	if m == nil {
		return nil
	}
	out := make(map[discordgo.Locale]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
