package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/logger"
	"gopkg.in/yaml.v3"
)

// TargetBuilder turns the definitions of one category into the umbrella
// command that should be registered remotely.
type TargetBuilder func(category string, defs []*Definition) *discordgo.ApplicationCommand

// Catalog is everything the loader produced.
type Catalog struct {
	Registry *Registry
	// Targets holds one umbrella command per category, keyed by its name.
	Targets map[string]*discordgo.ApplicationCommand
	// Failures lists every file or directory that was skipped.
	Failures []error
}

// TargetList returns the targets sorted by name.
func (c *Catalog) TargetList() []*discordgo.ApplicationCommand {
	names := make([]string, 0, len(c.Targets))
	for n := range c.Targets {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]*discordgo.ApplicationCommand, 0, len(names))
	for _, n := range names {
		out = append(out, c.Targets[n])
	}
	return out
}

func (c *Catalog) fail(ctx context.Context, path string, err error) {
	err = fmt.Errorf("%s: %w", path, err)
	c.Failures = append(c.Failures, err)
	logger.Warn(ctx, "Skipping command definition", "path", path, "error", err)
}

// Loader reads definition files laid out as <root>/<category>/<name>.yaml.
type Loader struct {
	handlers HandlerSet
	build    TargetBuilder
}

func NewLoader(handlers HandlerSet, build TargetBuilder) *Loader {
	return &Loader{handlers: handlers, build: build}
}

// Load walks root once. Only an unreadable root is an error; a bad file or
// category directory is recorded in Catalog.Failures and skipped.
func (l *Loader) Load(ctx context.Context, root string) (*Catalog, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read commands directory %s: %w", root, err)
	}

	cat := &Catalog{
		Registry: NewRegistry(),
		Targets:  make(map[string]*discordgo.ApplicationCommand),
	}
	seen := make(map[string]string)

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		category := entry.Name()
		dir := filepath.Join(root, category)

		key := strings.ToLower(category)
		if !namePattern.MatchString(key) {
			cat.fail(ctx, dir, fmt.Errorf("%w: category %q is not a valid command name", ErrInvalidDefinition, category))
			continue
		}
		if other, dup := seen[key]; dup {
			cat.fail(ctx, dir, fmt.Errorf("%w: category %q clashes with %q", ErrDuplicateName, category, other))
			continue
		}
		seen[key] = category

		defs := l.loadCategory(ctx, cat, dir, category)
		if len(defs) == 0 || l.build == nil {
			continue
		}
		target := l.build(category, defs)
		cat.Targets[target.Name] = target
	}

	logger.Info(ctx, "Loaded command definitions",
		"commands", cat.Registry.Len(),
		"categories", len(cat.Targets),
		"failures", len(cat.Failures),
	)
	return cat, nil
}

func (l *Loader) loadCategory(ctx context.Context, cat *Catalog, dir, category string) []*Definition {
	files, err := os.ReadDir(dir)
	if err != nil {
		cat.fail(ctx, dir, err)
		return nil
	}

	var defs []*Definition
	for _, f := range files {
		if f.IsDir() || !isDefinitionFile(f.Name()) {
			continue
		}
		path := filepath.Join(dir, f.Name())

		def, err := l.loadFile(path, category)
		if err != nil {
			cat.fail(ctx, path, err)
			continue
		}
		if len(defs) >= MaxSubcommands {
			cat.fail(ctx, path, fmt.Errorf("%w: category %q already has %d commands", ErrInvalidDefinition, category, MaxSubcommands))
			continue
		}

		dropped, err := cat.Registry.Add(def)
		if err != nil {
			cat.fail(ctx, path, err)
			continue
		}
		for _, alias := range dropped {
			logger.Warn(ctx, "Dropping colliding alias", "command", def.Name, "alias", alias, "path", path)
		}
		defs = append(defs, def)
	}
	return defs
}

func (l *Loader) loadFile(path, category string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", ErrInvalidDefinition)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file must hold exactly one definition", ErrInvalidDefinition)
	}

	def.Category = category
	def.Source = path
	if err := def.Validate(); err != nil {
		return nil, err
	}

	h, ok := l.handlers.Lookup(def.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoHandler, def.Name)
	}
	def.Handler = h
	return &def, nil
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
