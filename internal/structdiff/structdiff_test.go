package structdiff

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

type node struct {
	Name     string  `json:"name"`
	Parent   *node   `json:"parent,omitempty"`
	Children []*node `json:"children,omitempty"`
	hidden   string
	Skipped  string `json:"-"`
}

type plainThing struct{ v int }

func (p plainThing) PlainForm() any {
	return map[string]any{"value": p.v, "empty": []string{}}
}

type kindName string

func TestNormalizeScalars(t *testing.T) {
	assert.Nil(t, Normalize(nil))
	assert.Equal(t, "x", Normalize("x"))
	assert.Equal(t, true, Normalize(true))
	assert.Equal(t, float64(3), Normalize(3))
	assert.Equal(t, float64(3), Normalize(uint8(3)))
	assert.Equal(t, 1.5, Normalize(float32(1.5)))
	assert.Equal(t, "sub", Normalize(kindName("sub")))
}

func TestNormalizeCollapsesEmptiness(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"empty slice", []any{}},
		{"empty map", map[string]any{}},
		{"only nils", []any{nil, nil}},
		{"nested empties", map[string]any{"a": []any{}, "b": map[string]any{"c": nil}}},
		{"nil pointer", (*node)(nil)},
		{"zero struct with omitempty", struct {
			A string `json:"a,omitempty"`
		}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Normalize(tt.in))
		})
	}
}

func TestNormalizeDropsNilElements(t *testing.T) {
	got := Normalize([]any{nil, "a", []any{}, 2})
	assert.Equal(t, []any{"a", float64(2)}, got)
}

func TestNormalizeStructUsesJSONNames(t *testing.T) {
	got := Normalize(node{Name: "root", hidden: "h", Skipped: "s"})
	assert.Equal(t, map[string]any{"name": "root"}, got)
}

func TestNormalizeBreaksCycles(t *testing.T) {
	a := &node{Name: "a"}
	a.Parent = a
	child := &node{Name: "child", Parent: a}
	a.Children = []*node{child}

	got := Normalize(a)
	assert.Equal(t, map[string]any{
		"name": "a",
		"children": []any{
			map[string]any{"name": "child"},
		},
	}, got)
}

func TestNormalizeCyclicMap(t *testing.T) {
	m := map[string]any{"name": "loop"}
	m["self"] = m
	assert.Equal(t, map[string]any{"name": "loop"}, Normalize(m))
}

func TestNormalizeSharedSiblingsKept(t *testing.T) {
	shared := &node{Name: "shared"}
	got := Normalize([]*node{shared, shared})
	assert.Equal(t, []any{
		map[string]any{"name": "shared"},
		map[string]any{"name": "shared"},
	}, got)
}

func TestNormalizeUsesPlainForm(t *testing.T) {
	got := Normalize(map[string]any{"thing": plainThing{v: 7}})
	assert.Equal(t, map[string]any{"thing": map[string]any{"value": float64(7)}}, got)
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []any{
		nil,
		"s",
		[]any{1, "two", []any{}, map[string]any{"x": nil}},
		map[string]any{"a": 1, "b": []string{"c"}, "d": map[string]int{"e": 2}},
		node{Name: "n", Children: []*node{{Name: "c"}}},
		sampleCommand(),
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizeOnlyRestrictsTopLevel(t *testing.T) {
	remote := map[string]any{
		"id":      "123",
		"version": "9",
		"name":    "misc",
		"options": []any{map[string]any{"id": "nested-kept", "name": "help"}},
	}
	got := NormalizeOnly(remote, []string{"name", "options"})
	assert.Equal(t, map[string]any{
		"name":    "misc",
		"options": []any{map[string]any{"id": "nested-kept", "name": "help"}},
	}, got)

	assert.Nil(t, NormalizeOnly(remote, []string{}))
	assert.Equal(t, Normalize(remote), NormalizeOnly(remote, nil))
}

func TestKeys(t *testing.T) {
	assert.ElementsMatch(t, []string{"a", "b"}, Keys(map[string]any{"a": 1.0, "b": "x"}))
	assert.Nil(t, Keys("scalar"))
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		candidate any
		baseline  any
		want      any
	}{
		{"equal scalars", "a", "a", nil},
		{"changed scalar", "b", "a", "b"},
		{"nil candidate", nil, "a", nil},
		{"scalar vs missing", 1.0, nil, 1.0},
		{"type change", "1", 1.0, "1"},
		{"added key", map[string]any{"a": 1.0, "b": 2.0}, map[string]any{"a": 1.0}, map[string]any{"b": 2.0}},
		{"baseline only key ignored", map[string]any{"a": 1.0}, map[string]any{"a": 1.0, "z": 9.0}, nil},
		{"length mismatch replaces", []any{1.0, 2.0, 3.0}, []any{1.0, 2.0}, []any{1.0, 2.0, 3.0}},
		{"array vs scalar", []any{1.0}, "x", []any{1.0}},
		{"same length positional", []any{1.0, 2.0}, []any{1.0, 5.0}, []any{nil, 2.0}},
		{"same length equal", []any{1.0, "x"}, []any{1.0, "x"}, nil},
		{"object vs scalar", map[string]any{"a": 1.0}, "x", map[string]any{"a": 1.0}},
		{
			"nested",
			map[string]any{"o": []any{map[string]any{"n": "help", "d": "new"}}},
			map[string]any{"o": []any{map[string]any{"n": "help", "d": "old"}}},
			map[string]any{"o": []any{map[string]any{"d": "new"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.candidate, tt.baseline))
		})
	}
}

func TestDiffReflexive(t *testing.T) {
	values := []any{
		Normalize(sampleCommand()),
		Normalize([]any{1, "a", map[string]any{"b": true}}),
		"x",
		nil,
	}
	for _, v := range values {
		assert.Nil(t, Diff(v, v))
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(map[string]any{"a": 1.0}, map[string]any{"a": 1.0}))
	assert.False(t, Equal(map[string]any{"a": 1.0}, map[string]any{"a": 1.0, "b": 2.0}))
}

// A remote listing carries bookkeeping fields the local build never sets;
// restricting the remote side to the local key set hides them.
func TestLocalAgainstRemoteCommand(t *testing.T) {
	local := sampleCommand()

	remote := sampleCommand()
	remote.ID = "111"
	remote.ApplicationID = "222"
	remote.Version = "333"

	l := Normalize(local)
	r := NormalizeOnly(remote, Keys(l))
	assert.Nil(t, Diff(l, r))

	remote.Options[0].Description = "changed remotely"
	r = NormalizeOnly(remote, Keys(l))
	assert.Equal(t, map[string]any{
		"options": []any{map[string]any{"description": "Lists every command"}},
	}, Diff(l, r))
}

func sampleCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "misc",
		Description: "misc commands",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "help",
				Description: "Lists every command",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "command",
						Description: "Command to explain",
					},
				},
			},
		},
	}
}
