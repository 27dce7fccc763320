package reconcile

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Options configures a Reconciler.
type Options struct {
	AppID string
	// Global registers application-wide commands instead of per-guild ones.
	Global             bool
	MutationsPerSecond float64
}

// Reconciler brings remote registrations in line with a fixed set of targets.
type Reconciler struct {
	client  CommandClient
	applier *Applier
	appID   string
	global  bool
	targets []*discordgo.ApplicationCommand
}

func New(client CommandClient, targets []*discordgo.ApplicationCommand, opts Options) *Reconciler {
	return &Reconciler{
		client:  client,
		applier: NewApplier(client, opts.AppID, opts.MutationsPerSecond),
		appID:   opts.AppID,
		global:  opts.Global,
		targets: targets,
	}
}

func (r *Reconciler) Global() bool {
	return r.global
}

// Fetch returns what is registered in scope.
func (r *Reconciler) Fetch(ctx context.Context, scope string) ([]RemoteCommand, error) {
	cmds, err := r.client.ApplicationCommands(r.appID, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s commands: %w", scopeName(scope), err)
	}
	return ProjectAll(cmds), nil
}

// Plans computes one plan per scope: the global scope, or every listed guild.
// A guild whose commands cannot be fetched is planned as if it had none. Only
// a failed global fetch is returned as an error.
func (r *Reconciler) Plans(ctx context.Context, guildIDs []string) ([]*Plan, error) {
	if r.global {
		remotes, err := r.Fetch(ctx, GlobalScope)
		if err != nil {
			return nil, err
		}
		return []*Plan{Compute(GlobalScope, r.targets, remotes)}, nil
	}

	plans := make([]*Plan, len(guildIDs))
	var g errgroup.Group
	for i, guildID := range guildIDs {
		g.Go(func() error {
			remotes, err := r.Fetch(ctx, guildID)
			if err != nil {
				logger.Warn(ctx, "Treating guild as having no commands", "guild_id", guildID, "error", err)
				remotes = nil
			}
			plans[i] = Compute(guildID, r.targets, remotes)
			return nil
		})
	}
	_ = g.Wait()
	return plans, nil
}

// Apply applies plans one scope at a time.
func (r *Reconciler) Apply(ctx context.Context, plans []*Plan) []Result {
	results := make([]Result, 0, len(plans))
	for _, p := range plans {
		results = append(results, r.applier.Apply(ctx, p))
	}
	return results
}

// Reconcile plans and applies every scope. It runs when the gateway session
// becomes ready.
func (r *Reconciler) Reconcile(ctx context.Context, guildIDs []string) ([]Result, error) {
	plans, err := r.Plans(ctx, guildIDs)
	if err != nil {
		logger.Error(ctx, "Skipping command reconciliation", "error", err)
		return nil, err
	}
	return r.Apply(ctx, plans), nil
}

// GuildJoined pushes every target to a newly joined guild. It does nothing
// when commands are registered globally.
func (r *Reconciler) GuildJoined(ctx context.Context, guildID string) (Result, bool) {
	if r.global {
		return Result{}, false
	}
	return r.applier.Push(ctx, guildID, r.targets), true
}

// Clean deletes everything registered in scope.
func (r *Reconciler) Clean(ctx context.Context, scope string) (Result, error) {
	remotes, err := r.Fetch(ctx, scope)
	if err != nil {
		return Result{}, err
	}
	return r.applier.Apply(ctx, Compute(scope, nil, remotes)), nil
}
