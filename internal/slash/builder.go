// Package slash builds the umbrella slash commands registered for each
// command category.
package slash

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/logger"
)

// Build returns the umbrella command for a category: one subcommand per
// definition, each carrying its options in order. Options of an unknown kind
// are skipped with a warning.
func Build(category string, defs []*command.Definition) *discordgo.ApplicationCommand {
	ctx := context.Background()
	name := strings.ToLower(category)

	cmd := &discordgo.ApplicationCommand{
		Name:        name,
		Description: categoryDescription(category),
		Options:     make([]*discordgo.ApplicationCommandOption, 0, len(defs)),
	}

	for _, def := range defs {
		sub := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        def.Key(),
			Description: def.Description,
		}
		for _, spec := range def.Options {
			opt, ok := buildOption(spec)
			if !ok {
				logger.Warn(ctx, "Skipping option of unknown kind",
					"category", name,
					"command", def.Key(),
					"option", spec.Name,
					"kind", spec.Tag,
				)
				continue
			}
			sub.Options = append(sub.Options, opt)
		}
		cmd.Options = append(cmd.Options, sub)
	}
	return cmd
}

func buildOption(spec command.OptionSpec) (*discordgo.ApplicationCommandOption, bool) {
	t, ok := spec.Kind.OptionType()
	if !ok {
		return nil, false
	}
	opt := &discordgo.ApplicationCommandOption{
		Type:        t,
		Name:        strings.ToLower(spec.Name),
		Description: spec.Description,
		Required:    spec.Required,
	}
	return opt, true
}

func categoryDescription(category string) string {
	if category == "" {
		return "Commands"
	}
	r := []rune(strings.ToLower(category))
	r[0] = unicode.ToUpper(r[0])
	return fmt.Sprintf("%s commands", string(r))
}
