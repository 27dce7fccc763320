package slash

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	defs := []*command.Definition{
		{
			Name:        "Help",
			Description: "Lists every command",
			Options: []command.OptionSpec{
				{Kind: command.KindString, Tag: "string", Name: "Command", Description: "Command to explain"},
			},
		},
		{
			Name:        "prefix",
			Description: "Shows or changes the prefix",
			Options: []command.OptionSpec{
				{Kind: command.KindString, Tag: "string", Name: "prefix", Description: "New prefix", Required: true},
				{Kind: command.KindUnknown, Tag: "colour", Name: "shade", Description: "Ignored"},
				{Kind: command.KindBoolean, Tag: "boolean", Name: "reset", Description: "Reset to default"},
			},
		},
	}

	cmd := Build("Misc", defs)

	assert.Equal(t, "misc", cmd.Name)
	assert.Equal(t, "Misc commands", cmd.Description)
	require.Len(t, cmd.Options, 2)

	help := cmd.Options[0]
	assert.Equal(t, discordgo.ApplicationCommandOptionSubCommand, help.Type)
	assert.Equal(t, "help", help.Name)
	require.Len(t, help.Options, 1)
	assert.Equal(t, "command", help.Options[0].Name)
	assert.Equal(t, discordgo.ApplicationCommandOptionString, help.Options[0].Type)
	assert.False(t, help.Options[0].Required)

	prefix := cmd.Options[1]
	require.Len(t, prefix.Options, 2)
	assert.Equal(t, "prefix", prefix.Options[0].Name)
	assert.True(t, prefix.Options[0].Required)
	assert.Equal(t, "reset", prefix.Options[1].Name)
	assert.Equal(t, discordgo.ApplicationCommandOptionBoolean, prefix.Options[1].Type)
}

func TestBuildEveryKind(t *testing.T) {
	var opts []command.OptionSpec
	for _, k := range command.Kinds() {
		opts = append(opts, command.OptionSpec{Kind: k, Name: k.String(), Description: k.String()})
	}
	cmd := Build("all", []*command.Definition{{Name: "kinds", Description: "d", Options: opts}})

	require.Len(t, cmd.Options[0].Options, len(command.Kinds()))
	for i, k := range command.Kinds() {
		want, _ := k.OptionType()
		assert.Equal(t, want, cmd.Options[0].Options[i].Type)
	}
}

func TestCategoryDescription(t *testing.T) {
	assert.Equal(t, "Info commands", categoryDescription("info"))
	assert.Equal(t, "Émoji commands", categoryDescription("émoji"))
	assert.Equal(t, "Commands", categoryDescription(""))
}
