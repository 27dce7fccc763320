package command

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Kind is the type tag of an option. It is the single key of an option
// mapping on disk.
type Kind int

const (
	// KindUnknown marks an option whose tag is not a known kind. Such options
	// survive loading and are skipped, with a warning, when the slash command
	// is built.
	KindUnknown Kind = iota
	KindString
	KindInteger
	KindBoolean
	KindUser
	KindChannel
	KindRole
	KindAttachment
	KindNumber
	KindMentionable
)

var kindNames = map[Kind]string{
	KindString:      "string",
	KindInteger:     "integer",
	KindBoolean:     "boolean",
	KindUser:        "user",
	KindChannel:     "channel",
	KindRole:        "role",
	KindAttachment:  "attachment",
	KindNumber:      "number",
	KindMentionable: "mentionable",
}

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindString, KindInteger, KindBoolean, KindUser, KindChannel,
		KindRole, KindAttachment, KindNumber, KindMentionable,
	}
}

// ParseKind maps a tag to its kind. Tags are case-insensitive.
func ParseKind(tag string) Kind {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for k, name := range kindNames {
		if name == tag {
			return k
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// OptionType is the remote option type of k. ok is false for KindUnknown.
func (k Kind) OptionType() (t discordgo.ApplicationCommandOptionType, ok bool) {
	switch k {
	case KindString:
		return discordgo.ApplicationCommandOptionString, true
	case KindInteger:
		return discordgo.ApplicationCommandOptionInteger, true
	case KindBoolean:
		return discordgo.ApplicationCommandOptionBoolean, true
	case KindUser:
		return discordgo.ApplicationCommandOptionUser, true
	case KindChannel:
		return discordgo.ApplicationCommandOptionChannel, true
	case KindRole:
		return discordgo.ApplicationCommandOptionRole, true
	case KindAttachment:
		return discordgo.ApplicationCommandOptionAttachment, true
	case KindNumber:
		return discordgo.ApplicationCommandOptionNumber, true
	case KindMentionable:
		return discordgo.ApplicationCommandOptionMentionable, true
	}
	return 0, false
}
