package reconcile

import (
	"context"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Result counts what applying a plan did.
type Result struct {
	Scope     string
	Added     int
	Updated   int
	Deleted   int
	Unchanged int
	Failed    int
}

// Applier issues the mutations of a plan against the platform.
type Applier struct {
	client  CommandClient
	appID   string
	limiter *rate.Limiter
}

// NewApplier limits mutations to perSecond; zero or less means unlimited.
func NewApplier(client CommandClient, appID string, perSecond float64) *Applier {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	return &Applier{
		client:  client,
		appID:   appID,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Apply runs deletions, then updates, then additions. Mutations inside a phase
// run concurrently; each failure is logged and counted without affecting the
// others.
func (a *Applier) Apply(ctx context.Context, plan *Plan) Result {
	var added, updated, deleted, failed atomic.Int32
	scope := plan.Scope

	runPhase(plan.ToDelete, func(r RemoteCommand) {
		if err := a.wait(ctx); err != nil {
			a.fail(ctx, &failed, "delete", scope, r.Name(), err)
			return
		}
		if err := a.client.ApplicationCommandDelete(a.appID, scope, r.ID); err != nil {
			a.fail(ctx, &failed, "delete", scope, r.Name(), err)
			return
		}
		logger.Debug(ctx, "Deleted command", "scope", scopeName(scope), "command", r.Name())
		deleted.Add(1)
	})

	runPhase(plan.ToUpdate, func(u Update) {
		if err := a.wait(ctx); err != nil {
			a.fail(ctx, &failed, "update", scope, u.Local.Name, err)
			return
		}
		if _, err := a.client.ApplicationCommandEdit(a.appID, scope, u.Remote.ID, u.Local); err != nil {
			a.fail(ctx, &failed, "update", scope, u.Local.Name, err)
			return
		}
		logger.Debug(ctx, "Updated command", "scope", scopeName(scope), "command", u.Local.Name, "patch", u.Patch)
		updated.Add(1)
	})

	runPhase(plan.ToAdd, func(cmd *discordgo.ApplicationCommand) {
		if err := a.create(ctx, scope, cmd); err != nil {
			a.fail(ctx, &failed, "create", scope, cmd.Name, err)
			return
		}
		added.Add(1)
	})

	res := Result{
		Scope:     scope,
		Added:     int(added.Load()),
		Updated:   int(updated.Load()),
		Deleted:   int(deleted.Load()),
		Unchanged: plan.Unchanged,
		Failed:    int(failed.Load()),
	}
	logger.Info(ctx, "Reconciled commands",
		"scope", scopeName(scope),
		"added", res.Added,
		"updated", res.Updated,
		"deleted", res.Deleted,
		"unchanged", res.Unchanged,
		"failed", res.Failed,
	)
	return res
}

// Push creates every target in scope without looking at what is registered.
func (a *Applier) Push(ctx context.Context, scope string, targets []*discordgo.ApplicationCommand) Result {
	return a.Apply(ctx, &Plan{Scope: scope, ToAdd: targets})
}

// runPhase calls fn for every item concurrently and waits for all of them.
func runPhase[T any](items []T, fn func(T)) {
	var g errgroup.Group
	for _, item := range items {
		g.Go(func() error {
			fn(item)
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Applier) create(ctx context.Context, scope string, cmd *discordgo.ApplicationCommand) error {
	if err := a.wait(ctx); err != nil {
		return err
	}
	if _, err := a.client.ApplicationCommandCreate(a.appID, scope, cmd); err != nil {
		return err
	}
	logger.Debug(ctx, "Created command", "scope", scopeName(scope), "command", cmd.Name)
	return nil
}

func (a *Applier) wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

func (a *Applier) fail(ctx context.Context, failed *atomic.Int32, op, scope, name string, err error) {
	failed.Add(1)
	logger.Error(ctx, "Failed to "+op+" command", "scope", scopeName(scope), "command", name, "error", err)
}

func scopeName(scope string) string {
	if scope == GlobalScope {
		return "global"
	}
	return scope
}
