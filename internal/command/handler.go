package command

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Source tells which kind of event produced an invocation.
type Source int

const (
	FromMessage Source = iota
	FromInteraction
)

func (s Source) String() string {
	if s == FromInteraction {
		return "interaction"
	}
	return "message"
}

// Replier answers the invoker in whatever way fits the invocation source.
type Replier interface {
	Reply(ctx context.Context, content string) error
	ReplyEmbed(ctx context.Context, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) error
}

// Deferrer is implemented by repliers that can acknowledge an invocation
// before a slow handler produces its reply.
type Deferrer interface {
	Defer(ctx context.Context) error
}

// Invocation is one resolved call of a command.
type Invocation struct {
	Source    Source
	Command   string
	Prefix    string
	GuildID   string
	ChannelID string
	User      *discordgo.User
	Member    *discordgo.Member

	// Set for FromMessage.
	Message *discordgo.Message
	Args    []string

	// Set for FromInteraction. Options are those of the invoked subcommand.
	Interaction *discordgo.Interaction
	Options     []*discordgo.ApplicationCommandInteractionDataOption

	Replier
}

// UserID returns the invoker's ID, or "" when unknown.
func (inv *Invocation) UserID() string {
	if inv.User != nil {
		return inv.User.ID
	}
	if inv.Member != nil && inv.Member.User != nil {
		return inv.Member.User.ID
	}
	return ""
}

// OptionData is the uniform option value handed to Execute, whichever way
// the command was invoked.
type OptionData map[string]any

func (o OptionData) String(name string) string {
	switch v := o[name].(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (o OptionData) Int(name string) (int64, bool) {
	switch v := o[name].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func (o OptionData) Bool(name string) bool {
	switch v := o[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

type (
	ExecuteFunc func(ctx context.Context, inv *Invocation, opts OptionData) error
	// Extractor builds option data from an invocation. It must only read inv.
	Extractor func(inv *Invocation) (OptionData, error)
)

// Handler is the compiled behaviour bound to a definition.
type Handler struct {
	Execute      ExecuteFunc
	TextExtract  Extractor
	SlashExtract Extractor
}

// HandlerSet binds handlers to definition names.
type HandlerSet map[string]Handler

// Bind registers h for the named command, replacing any earlier binding.
func (hs HandlerSet) Bind(name string, h Handler) {
	hs[strings.ToLower(name)] = h
}

func (hs HandlerSet) Lookup(name string) (Handler, bool) {
	h, ok := hs[strings.ToLower(name)]
	if !ok || h.Execute == nil {
		return Handler{}, false
	}
	return h, true
}

// SlashOptions is an Extractor that maps each interaction option to its
// value. User, channel, role and mentionable options yield their IDs.
func SlashOptions(inv *Invocation) (OptionData, error) {
	data := make(OptionData, len(inv.Options))
	for _, opt := range inv.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionInteger:
			data[opt.Name] = opt.IntValue()
		case discordgo.ApplicationCommandOptionNumber:
			data[opt.Name] = opt.FloatValue()
		case discordgo.ApplicationCommandOptionBoolean:
			data[opt.Name] = opt.BoolValue()
		case discordgo.ApplicationCommandOptionString:
			data[opt.Name] = opt.StringValue()
		default:
			if s, ok := opt.Value.(string); ok {
				data[opt.Name] = s
			}
		}
	}
	return data, nil
}

// Positional returns an Extractor that assigns message arguments to names in
// order. The last name receives the remaining arguments joined by spaces.
func Positional(names ...string) Extractor {
	return func(inv *Invocation) (OptionData, error) {
		data := make(OptionData, len(names))
		for i, name := range names {
			if i >= len(inv.Args) {
				break
			}
			if i == len(names)-1 {
				data[name] = strings.Join(inv.Args[i:], " ")
				break
			}
			data[name] = inv.Args[i]
		}
		return data, nil
	}
}
