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
)

func (c *Commands) help(ctx context.Context, inv *command.Invocation, opts command.OptionData) error {
	reg := c.registry.Load()
	if reg == nil {
		return errors.New("command registry is not loaded")
	}

	if name := strings.TrimSpace(opts.String("command")); name != "" {
		def, ok := reg.Resolve(name)
		if !ok {
			return inv.Reply(ctx, fmt.Sprintf("No command named `%s`.", name))
		}
		return inv.ReplyEmbed(ctx, commandEmbed(reg, def, inv.Prefix))
	}
	return c.deps.Pager.Send(ctx, inv, categoryPages(reg, inv.Prefix))
}

// categoryPages renders one page per category.
func categoryPages(reg *command.Registry, prefix string) []*discordgo.MessageEmbed {
	var pages []*discordgo.MessageEmbed
	for _, category := range reg.Categories() {
		var b strings.Builder
		for _, def := range reg.Category(category) {
			fmt.Fprintf(&b, "`%s` %s\n", def.Name, def.Description)
		}
		pages = append(pages, &discordgo.MessageEmbed{
			Title:       "📖 " + capitalize(category),
			Description: b.String(),
			Color:       embedColor,
			Fields: []*discordgo.MessageEmbedField{{
				Name:  "More",
				Value: fmt.Sprintf("Use `%shelp <command>` for details.", helpPrefix(prefix, category)),
			}},
		})
	}
	if len(pages) == 0 {
		pages = append(pages, &discordgo.MessageEmbed{Title: "📖 Help", Description: "No commands are loaded.", Color: embedColor})
	}
	return pages
}

func commandEmbed(reg *command.Registry, def *command.Definition, prefix string) *discordgo.MessageEmbed {
	usage := def.Usage
	if usage == "" {
		usage = def.Name
	}
	embed := &discordgo.MessageEmbed{
		Title:       "📖 " + def.Name,
		Description: def.Description,
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usage", Value: fmt.Sprintf("`%s%s`", helpPrefix(prefix, def.Category), usage)},
			{Name: "Category", Value: def.Category, Inline: true},
		},
	}

	var aliases []string
	for _, a := range def.Aliases {
		if owner, ok := reg.Resolve(a); ok && owner == def {
			aliases = append(aliases, "`"+a+"`")
		}
	}
	if len(aliases) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Aliases", Value: strings.Join(aliases, ", "), Inline: true})
	}
	if def.Cooldown > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Cooldown", Value: def.Cooldown.String(), Inline: true})
	}
	if len(def.Options) > 0 {
		var b strings.Builder
		for _, o := range def.Options {
			req := "optional"
			if o.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "`%s` (%s, %s) %s\n", o.Name, o.Kind, req, o.Description)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Options", Value: b.String()})
	}
	return embed
}

// helpPrefix shows slash users the umbrella command in front of a usage line.
func helpPrefix(prefix, category string) string {
	if prefix == "/" {
		return "/" + strings.ToLower(category) + " "
	}
	return prefix
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
