package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/pauljones0/syncbot/internal/command"
	"github.com/pauljones0/syncbot/internal/commands"
	"github.com/pauljones0/syncbot/internal/config"
	"github.com/pauljones0/syncbot/internal/logger"
	"github.com/pauljones0/syncbot/internal/reconcile"
	"github.com/pauljones0/syncbot/internal/slash"
	"github.com/spf13/cobra"
)

// userGuildsPage is the page size of the current-user guilds endpoint.
const userGuildsPage = 200

type app struct {
	cfg        *config.Registrar
	session    *discordgo.Session
	guildID    string
	listGuilds func() ([]string, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "register",
		Short: "Inspect and reconcile the bot's slash commands",
		Long: `Runs the same reconciliation the bot runs at startup, without opening the gateway.
Without --guild every subcommand follows GLOBAL_COMMANDS: the global scope, or every guild the bot is in.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.guildID, "guild", "", "restrict to one guild")
	root.PersistentFlags().String("commands-dir", "", "definition directory (default COMMANDS_DIR)")

	root.AddCommand(a.listCommand(), a.syncCommand(), a.cleanCommand())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadRegistrar()
	if err != nil {
		return err
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	if dir, _ := cmd.Flags().GetString("commands-dir"); dir != "" {
		cfg.CommandsDir = dir
	}

	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	if cfg.AppID == "" {
		me, err := s.User("@me")
		if err != nil {
			return fmt.Errorf("failed to resolve application ID: %w", err)
		}
		cfg.AppID = me.ID
	}
	a.cfg, a.session = cfg, s
	a.listGuilds = a.guilds
	return nil
}

// reconciler loads the local targets and returns a reconciler plus the
// guilds it should cover.
func (a *app) reconciler(ctx context.Context) (*reconcile.Reconciler, []string, error) {
	catalog, err := command.NewLoader(commands.New(commands.Deps{}).Handlers(), slash.Build).Load(ctx, a.cfg.CommandsDir)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range catalog.Failures {
		logger.Warn(ctx, "Skipped definition", "error", f)
	}

	opts := reconcile.Options{
		AppID:              a.cfg.AppID,
		Global:             a.cfg.GlobalCommands && a.guildID == "",
		MutationsPerSecond: a.cfg.MutationRate,
	}
	r := reconcile.New(a.session, catalog.TargetList(), opts)
	if opts.Global {
		return r, nil, nil
	}
	guilds, err := a.scopes()
	return r, guilds, err
}

func (a *app) guilds() ([]string, error) {
	var ids []string
	after := ""
	for {
		page, err := a.session.UserGuilds(userGuildsPage, "", after, false)
		if err != nil {
			return nil, fmt.Errorf("failed to list guilds: %w", err)
		}
		for _, g := range page {
			ids = append(ids, g.ID)
		}
		if len(page) < userGuildsPage {
			return ids, nil
		}
		after = page[len(page)-1].ID
	}
}

// scopes returns the scopes list and clean operate on.
func (a *app) scopes() ([]string, error) {
	switch {
	case a.guildID != "":
		return []string{a.guildID}, nil
	case a.cfg.GlobalCommands:
		return []string{reconcile.GlobalScope}, nil
	}
	return a.listGuilds()
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the commands registered remotely",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := reconcile.New(a.session, nil, reconcile.Options{AppID: a.cfg.AppID})
			scopes, err := a.scopes()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, scope := range scopes {
				remotes, err := r.Fetch(cmd.Context(), scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d command(s)\n", scopeLabel(scope), len(remotes))
				for _, rc := range remotes {
					fmt.Fprintf(out, "  %-20s id=%s version=%s subcommands=%d\n", rc.Name(), rc.ID, rc.Version, len(rc.Body.Options))
				}
			}
			return nil
		},
	}
}

func (a *app) syncCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile remote commands with the definition directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, guilds, err := a.reconciler(ctx)
			if err != nil {
				return err
			}
			plans, err := r.Plans(ctx, guilds)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				for _, p := range plans {
					if err := printPlan(out, p); err != nil {
						return err
					}
				}
				return nil
			}

			var failed int
			for _, res := range r.Apply(ctx, plans) {
				fmt.Fprintf(out, "%s: added=%d updated=%d deleted=%d unchanged=%d failed=%d\n",
					scopeLabel(res.Scope), res.Added, res.Updated, res.Deleted, res.Unchanged, res.Failed)
				failed += res.Failed
			}
			if failed > 0 {
				return fmt.Errorf("%d mutation(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without applying it")
	return cmd
}

func (a *app) cleanCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete every remote command in the scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete commands without --yes")
			}
			scopes, err := a.scopes()
			if err != nil {
				return err
			}
			r := reconcile.New(a.session, nil, reconcile.Options{AppID: a.cfg.AppID, MutationsPerSecond: a.cfg.MutationRate})
			for _, scope := range scopes {
				res, err := r.Clean(cmd.Context(), scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: deleted=%d failed=%d\n", scopeLabel(scope), res.Deleted, res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func printPlan(w io.Writer, p *reconcile.Plan) error {
	fmt.Fprintf(w, "%s: add=%d update=%d delete=%d unchanged=%d\n",
		scopeLabel(p.Scope), len(p.ToAdd), len(p.ToUpdate), len(p.ToDelete), p.Unchanged)
	for _, c := range p.ToAdd {
		fmt.Fprintf(w, "  + %s\n", c.Name)
	}
	for _, u := range p.ToUpdate {
		patch, err := json.Marshal(u.Patch)
		if err != nil {
			return fmt.Errorf("failed to encode patch of %s: %w", u.Local.Name, err)
		}
		fmt.Fprintf(w, "  ~ %s %s\n", u.Local.Name, patch)
	}
	for _, rc := range p.ToDelete {
		fmt.Fprintf(w, "  - %s (%s)\n", rc.Name(), rc.ID)
	}
	return nil
}

func scopeLabel(scope string) string {
	if scope == reconcile.GlobalScope {
		return "global"
	}
	return "guild " + scope
}
