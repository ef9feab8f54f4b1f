package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fortuna/diamond/internal/app"
	"github.com/fortuna/diamond/internal/batch"
	"github.com/fortuna/diamond/internal/ingest"
	"github.com/fortuna/diamond/internal/sink"
	"github.com/fortuna/diamond/internal/store/repository"
	"github.com/fortuna/diamond/internal/teams"
)

type category struct {
	name  string
	scope batch.Scope
	short string
}

var categories = []category{
	{"player_splits", batch.ScopeBatters, "Batting splits page (every configured split, defaults filled)."},
	{"splits_api", batch.ScopeBatters, "Batting splits from the ESPN JSON API."},
	{"bat_vs_pitch", batch.ScopeBatters, "Career line against every pitcher of all 30 clubs."},
	{"pitching_splits", batch.ScopePitchers, "Pitching splits (home/away, day/night, month, all-star break)."},
	{"player_stats", batch.ScopePlayers, "Season-by-season stats table."},
	{"gamelog", batch.ScopePlayers, "Game log from the ESPN JSON API."},
	{"player_bio", batch.ScopePlayers, "Player biography from the ESPN athlete API."},
	{"team_splits", batch.ScopeTeams, "Team split tables."},
	{"roster", batch.ScopeTeams, "Team roster from the ESPN roster API (replaces the team's rows)."},
	{"roster_page", batch.ScopeTeams, "Team roster page rendered in Chrome (replaces the team's rows)."},
	{"schedule", batch.ScopeTeams, "Team schedule rendered in Chrome."},
	{"news", batch.ScopeTeams, "Team news headlines."},
	{"trends", batch.ScopeTeams, "teamrankings.com trend tables."},
	{"injuries", batch.ScopeLeague, "League injury report rendered in Chrome."},
	{"espn_team_stats", batch.ScopeLeague, "ESPN team batting, pitching and fielding leaderboards."},
	{"league_news", batch.ScopeLeague, "League-wide player news headlines."},
	{"odds", batch.ScopeLeague, "Moneyline odds from The Odds API."},
	{"team_rankings", batch.ScopeLeague, "teamrankings.com league stat tables."},
}

var playerFlags struct {
	team string
	role string
}

func init() {
	for _, c := range categories {
		rootCmd.AddCommand(categoryCommand(c))
	}
	rootCmd.AddCommand(runCmd, jobsCmd)
}

func categoryCommand(c category) *cobra.Command {
	cmd := &cobra.Command{
		Use:   c.name + " " + usage(c.scope),
		Short: c.short,
		Args:  argsFor(c.scope),
		RunE: func(cmd *cobra.Command, args []string) error {
			return scrape(cmd, c.name, c.scope, args)
		},
	}
	if c.scope != batch.ScopeTeams && c.scope != batch.ScopeLeague {
		cmd.Flags().StringVar(&playerFlags.team, "team", "", "Player's team abbreviation.")
		cmd.Flags().StringVar(&playerFlags.role, "role", "", "batter or pitcher (default from the scope).")
	}
	return cmd
}

func usage(scope batch.Scope) string {
	switch scope {
	case batch.ScopeTeams:
		return "[team...]"
	case batch.ScopeLeague:
		return ""
	default:
		return "[<player-id> <player-name>]"
	}
}

func argsFor(scope batch.Scope) cobra.PositionalArgs {
	switch scope {
	case batch.ScopeTeams:
		return cobra.ArbitraryArgs
	case batch.ScopeLeague:
		return cobra.NoArgs
	default:
		return func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected <player-id> <player-name> or no arguments, got %d", len(args))
			}
			return nil
		}
	}
}

// subjectsFromArgs turns positional arguments into subjects. No arguments
// selects the catalog's subjects for the scope.
func subjectsFromArgs(scope batch.Scope, args []string) ([]ingest.Subject, error) {
	switch {
	case len(args) == 0:
		return nil, nil
	case scope == batch.ScopeTeams:
		var out []ingest.Subject
		for _, a := range args {
			t, ok := teams.Resolve(a)
			if !ok {
				return nil, fmt.Errorf("unknown team %q", a)
			}
			s, _ := batch.TeamSubject(t.Abbr)
			out = append(out, s)
		}
		return out, nil
	default:
		role := playerFlags.role
		if role == "" {
			role = "batter"
			if scope == batch.ScopePitchers {
				role = "pitcher"
			}
		}
		return []ingest.Subject{{
			Kind: ingest.KindPlayer,
			ID:   strings.TrimSpace(args[0]),
			Name: strings.TrimSpace(args[1]),
			Team: strings.ToUpper(playerFlags.team),
			Role: role,
		}}, nil
	}
}

func scrape(cmd *cobra.Command, job string, scope batch.Scope, args []string) error {
	subjects, err := subjectsFromArgs(scope, args)
	if err != nil {
		return err
	}

	env, err := setup(cmd, !flags.noDB && !flags.dryRun)
	if err != nil {
		return err
	}
	defer env.Close()

	if subjects == nil {
		subjects = batch.Subjects(scope, env.cfg.Catalog)
	}
	if len(subjects) == 0 {
		return fmt.Errorf("%w for %s: add them to %s or pass them as arguments", batch.ErrNoSubjects, job, env.cfg.CatalogFile)
	}

	runner := newRunner(env)

	summary, err := runner.Run(cmd.Context(), batch.Spec{Job: job, Subjects: subjects, DryRun: flags.dryRun}, nil)
	if err != nil {
		return err
	}
	printSummary(env, job, summary)
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run [job...]",
	Short: "Run catalog jobs over the catalog's subjects (default: every job in the catalog).",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd, !flags.noDB && !flags.dryRun)
		if err != nil {
			return err
		}
		defer env.Close()

		jobs := args
		if len(jobs) == 0 {
			jobs = env.cfg.Catalog.Jobs
		}

		runner := newRunner(env)

		for _, job := range jobs {
			def, subjects, err := runner.Registry().Select(job, env.cfg.Catalog, nil)
			if err != nil {
				env.log.WithError(err).Warnf("⚠️ skipping %s", job)
				continue
			}
			summary, err := runner.Run(cmd.Context(), batch.Spec{Job: def.Name, Subjects: subjects, DryRun: flags.dryRun}, nil)
			if err != nil {
				return err
			}
			printSummary(env, job, summary)
		}
		return nil
	},
}

func newRunner(env *environment) *batch.Runner {

	opts := batch.RunnerOptions{
		Registry: batch.DefaultRegistry(app.NewSources(env.cfg, nil, env.log)),
		CSV:      &sink.CSVWriter{Dir: env.cfg.CSVDir},
		Delay:    env.cfg.SubjectDelay,
		Log:      env.log,
	}
	if env.db != nil {
		opts.Sink = sink.New(repository.NewRecordRepository(env.db), env.log)
	}
	if flags.print {
		opts.OnOutput = func(s ingest.Subject, out ingest.Output) {
			sink.Print(env.out, fmt.Sprintf("%s: %s", s.Name, out.Category), out)
		}
	}
	return batch.NewRunner(opts)
}

func printSummary(env *environment, job string, s batch.Summary) {
	fmt.Fprintf(env.out, "Done: %s, %d subjects (%d skipped), %d records, %d inserted, %d failed, %d csv files\n",
		job, s.Subjects, s.Skipped, s.Records, s.Inserted, s.Failed, s.CSVFiles)
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the scrape jobs.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range categories {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-8s %s\n", c.name, c.scope, c.short)
		}
		return nil
	},
}
