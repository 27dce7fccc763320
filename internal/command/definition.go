// Package command holds command definitions, the registries built from them
// and the loader that reads them from disk.
package command

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidDefinition = errors.New("invalid command definition")
	ErrDuplicateName     = errors.New("duplicate command name")
	ErrNoHandler         = errors.New("no handler bound for command")
)

const (
	maxDescriptionLength = 100
	// MaxSubcommands is how many subcommands one umbrella command can carry.
	MaxSubcommands = 25
	maxOptions     = 25
)

var namePattern = regexp.MustCompile(`^[-_\p{L}\p{N}]{1,32}$`)

// Definition describes one command. The data part is read from a definition
// file; Handler is bound afterwards by name.
type Definition struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Usage       string        `yaml:"usage"`
	Aliases     []string      `yaml:"aliases"`
	Cooldown    time.Duration `yaml:"cooldown"`
	Options     []OptionSpec  `yaml:"options"`

	// Category is the directory the definition was found in.
	Category string `yaml:"-"`
	// Source is the file the definition was read from.
	Source  string  `yaml:"-"`
	Handler Handler `yaml:"-"`
}

// OptionSpec is one typed option of a command. On disk it is a mapping with a
// single kind key:
//
//	- user:
//	    name: target
//	    description: Who to look up
//	    required: true
type OptionSpec struct {
	Kind        Kind
	Tag         string
	Name        string
	Description string
	Required    bool
}

type optionDetails struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

func (o *OptionSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: option must be a mapping from kind to details", node.Line)
	}
	if n := len(node.Content) / 2; n != 1 {
		return fmt.Errorf("line %d: option must have exactly one kind, found %d", node.Line, n)
	}

	details := node.Content[1]
	if details.Kind == yaml.MappingNode {
		for i := 0; i < len(details.Content); i += 2 {
			switch key := details.Content[i]; key.Value {
			case "name", "description", "required":
			default:
				return fmt.Errorf("line %d: field %s not found in option details", key.Line, key.Value)
			}
		}
	}

	var d optionDetails
	if err := details.Decode(&d); err != nil {
		return fmt.Errorf("line %d: failed to decode option details: %w", node.Line, err)
	}

	o.Tag = node.Content[0].Value
	o.Kind = ParseKind(o.Tag)
	o.Name = d.Name
	o.Description = d.Description
	o.Required = d.Required
	return nil
}

// Key is the case-folded name used for lookups.
func (d *Definition) Key() string {
	return strings.ToLower(d.Name)
}

// Validate checks the shape of the data part of d. Handler binding is checked
// by the loader.
func (d *Definition) Validate() error {
	var problems []string

	if strings.TrimSpace(d.Name) == "" {
		problems = append(problems, "name is required")
	} else if !namePattern.MatchString(strings.ToLower(d.Name)) {
		problems = append(problems, fmt.Sprintf("name %q must be 1-32 letters, digits, '-' or '_'", d.Name))
	}
	if strings.TrimSpace(d.Description) == "" {
		problems = append(problems, "description is required")
	} else if len([]rune(d.Description)) > maxDescriptionLength {
		problems = append(problems, fmt.Sprintf("description exceeds %d characters", maxDescriptionLength))
	}
	if d.Cooldown < 0 {
		problems = append(problems, "cooldown must not be negative")
	}
	if len(d.Options) > maxOptions {
		problems = append(problems, fmt.Sprintf("at most %d options are allowed", maxOptions))
	}

	seen := make(map[string]bool, len(d.Options))
	for i, o := range d.Options {
		switch {
		case strings.TrimSpace(o.Name) == "":
			problems = append(problems, fmt.Sprintf("option %d: name is required", i))
		case !namePattern.MatchString(strings.ToLower(o.Name)):
			problems = append(problems, fmt.Sprintf("option %d: invalid name %q", i, o.Name))
		case seen[strings.ToLower(o.Name)]:
			problems = append(problems, fmt.Sprintf("option %d: duplicate name %q", i, o.Name))
		}
		seen[strings.ToLower(o.Name)] = true
		if strings.TrimSpace(o.Description) == "" {
			problems = append(problems, fmt.Sprintf("option %d: description is required", i))
		}
	}

	if !d.RequiredFirst() {
		problems = append(problems, "required options must come before optional ones")
	}

	for _, a := range d.Aliases {
		if strings.TrimSpace(a) == "" {
			problems = append(problems, "aliases must not be empty")
			break
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(problems, "; "))
	}
	return nil
}

// RequiredFirst reports whether every required option precedes every optional
// one, as the remote platform demands.
func (d *Definition) RequiredFirst() bool {
	optional := false
	for _, o := range d.Options {
		if !o.Required {
			optional = true
		} else if optional {
			return false
		}
	}
	return true
}
