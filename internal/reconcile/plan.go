package reconcile

import (
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/structdiff"
)

// Update pairs a registered command with the target that replaces it.
type Update struct {
	Remote RemoteCommand
	Local  *discordgo.ApplicationCommand
	// Patch is the part of the normalized target the remote side lacks.
	Patch any
}

// Plan is the set of mutations that brings one scope in line with the
// targets. ToAdd, ToUpdate and ToDelete never share a name.
type Plan struct {
	Scope     string
	ToAdd     []*discordgo.ApplicationCommand
	ToUpdate  []Update
	ToDelete  []RemoteCommand
	Unchanged int
}

// Empty reports whether applying p would not touch anything.
func (p *Plan) Empty() bool {
	return len(p.ToAdd) == 0 && len(p.ToUpdate) == 0 && len(p.ToDelete) == 0
}

// Compute matches targets against remotes by exact name. A target without a
// remote is added, a remote without a target is deleted, and a matched pair
// is updated only if the normalized target differs from the remote restricted
// to the target's keys.
func Compute(scope string, targets []*discordgo.ApplicationCommand, remotes []RemoteCommand) *Plan {
	plan := &Plan{Scope: scope}

	byName := make(map[string][]int, len(remotes))
	for i, r := range remotes {
		byName[r.Name()] = append(byName[r.Name()], i)
	}

	sorted := append([]*discordgo.ApplicationCommand(nil), targets...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	matched := make([]bool, len(remotes))
	for _, local := range sorted {
		idx := byName[local.Name]
		if len(idx) == 0 {
			plan.ToAdd = append(plan.ToAdd, local)
			continue
		}

		normLocal := structdiff.Normalize(local)
		keys := structdiff.Keys(normLocal)
		for _, i := range idx {
			matched[i] = true
			normRemote := structdiff.NormalizeOnly(remotes[i].Body, keys)
			if patch := structdiff.Diff(normLocal, normRemote); patch != nil {
				plan.ToUpdate = append(plan.ToUpdate, Update{Remote: remotes[i], Local: local, Patch: patch})
			} else {
				plan.Unchanged++
			}
		}
	}

	for i, r := range remotes {
		if !matched[i] {
			plan.ToDelete = append(plan.ToDelete, r)
		}
	}
	return plan
}
