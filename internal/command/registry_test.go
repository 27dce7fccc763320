package command

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAliasCollisionsAreDropped(t *testing.T) {
	r := NewRegistry()

	dropped, err := r.Add(&Definition{Name: "help", Aliases: []string{"h", "commands"}, Category: "misc"})
	require.NoError(t, err)
	assert.Empty(t, dropped)

	dropped, err = r.Add(&Definition{Name: "hello", Aliases: []string{"h", "help", "hi"}, Category: "misc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"h", "help"}, dropped)

	def, ok := r.Resolve("h")
	require.True(t, ok)
	assert.Equal(t, "help", def.Name)

	def, ok = r.Resolve("HI")
	require.True(t, ok)
	assert.Equal(t, "hello", def.Name)

	_, err = r.Add(&Definition{Name: "commands"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, ok = r.Resolve("missing")
	assert.False(t, ok)
	_, ok = r.Get("h")
	assert.False(t, ok)
}

func TestRegistryCategories(t *testing.T) {
	r := NewRegistry()
	for _, d := range []*Definition{
		{Name: "ping", Category: "misc"},
		{Name: "info", Category: "info"},
		{Name: "help", Category: "misc"},
	} {
		_, err := r.Add(d)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"info", "misc"}, r.Categories())
	misc := r.Category("misc")
	require.Len(t, misc, 2)
	assert.Equal(t, "ping", misc[0].Name)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "help", all[0].Name)
}

func TestDefinitionValidate(t *testing.T) {
	valid := Definition{Name: "help", Description: "Lists commands"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		def  Definition
	}{
		{"missing name", Definition{Description: "x"}},
		{"missing description", Definition{Name: "x"}},
		{"name with spaces", Definition{Name: "two words", Description: "x"}},
		{"long description", Definition{Name: "x", Description: string(make([]byte, 101))}},
		{"negative cooldown", Definition{Name: "x", Description: "x", Cooldown: -time.Second}},
		{"duplicate option", Definition{Name: "x", Description: "x", Options: []OptionSpec{
			{Kind: KindString, Name: "a", Description: "a"},
			{Kind: KindUser, Name: "A", Description: "a"},
		}}},
		{"required after optional", Definition{Name: "x", Description: "x", Options: []OptionSpec{
			{Kind: KindString, Name: "a", Description: "a"},
			{Kind: KindUser, Name: "b", Description: "b", Required: true},
		}}},
		{"blank alias", Definition{Name: "x", Description: "x", Aliases: []string{" "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.def.Validate(), ErrInvalidDefinition)
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		assert.Equal(t, k, ParseKind(k.String()))
		_, ok := k.OptionType()
		assert.True(t, ok, k.String())
	}
	assert.Equal(t, KindBoolean, ParseKind(" Boolean "))
	assert.Equal(t, KindUnknown, ParseKind("colour"))
	_, ok := KindUnknown.OptionType()
	assert.False(t, ok)
}

func TestOptionData(t *testing.T) {
	inv := &Invocation{Options: []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "question", Type: discordgo.ApplicationCommandOptionString, Value: "why"},
		{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
		{Name: "reset", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
		{Name: "target", Type: discordgo.ApplicationCommandOptionUser, Value: "42"},
	}}
	data, err := SlashOptions(inv)
	require.NoError(t, err)

	assert.Equal(t, "why", data.String("question"))
	n, ok := data.Int("count")
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)
	assert.True(t, data.Bool("reset"))
	assert.Equal(t, "42", data.String("target"))
	assert.Equal(t, "", data.String("missing"))
}

func TestPositional(t *testing.T) {
	extract := Positional("command", "rest")
	data, err := extract(&Invocation{Args: []string{"help", "with", "spaces"}})
	require.NoError(t, err)
	assert.Equal(t, OptionData{"command": "help", "rest": "with spaces"}, data)

	data, err = extract(&Invocation{})
	require.NoError(t, err)
	assert.Empty(t, data)
}
