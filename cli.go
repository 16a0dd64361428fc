package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/spf13/cobra"

	"github.com/LostLucidity/lucid-ai-sub002/config"
	"github.com/LostLucidity/lucid-ai-sub002/gamedata"
	"github.com/LostLucidity/lucid-ai-sub002/plan"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "lucid",
		Short: "StarCraft II build-order planning sidecar",
		Long: `lucid turns build orders into unit commands for a StarCraft II bot.
The bot's host connects over a Unix socket and sends one game state per step.

Examples:
  lucid serve --config ./configs/config.yaml
  lucid plan validate ./builds/two-rax.yaml
  lucid plan show terran terran-beginner`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	root.AddCommand(newServeCommand())
	root.AddCommand(newPlanCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var socket string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planning sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if socket != "" {
				cfg.Socket.Path = socket
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&socket, "socket", "", "Unix socket path (overrides config)")
	return cmd
}

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect build orders",
	}
	cmd.AddCommand(newPlanValidateCommand())
	cmd.AddCommand(newPlanShowCommand())
	return cmd
}

func newPlanValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a build order file against the schema and catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := catalogSource(cfg.Plan)()
			if err != nil {
				return err
			}
			o, err := plan.LoadFile(c, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var undefined []string
			for _, s := range o.Steps {
				for _, a := range s.Actions {
					if !a.Defined() {
						undefined = append(undefined, fmt.Sprintf("supply %d: %q", s.Supply, s.Action))
						break
					}
				}
			}
			fmt.Fprintf(out, "✓ %s (%s, %s): %d steps\n", o.Key, gamedata.RaceName(o.Race), o.Title, len(o.Steps))
			for _, u := range undefined {
				fmt.Fprintf(out, "  unresolved %s\n", u)
			}
			return nil
		},
	}
}

func newPlanShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <race> <key>",
		Short: "Print a build order as the planner interprets it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			race, ok := gamedata.ParseRace(args[0])
			if !ok || !gamedata.KnownRace(race) {
				return fmt.Errorf("race %q: %w", args[0], plan.ErrUndefinedRace)
			}
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			c, err := catalogSource(cfg.Plan)()
			if err != nil {
				return err
			}
			lib, err := buildLibrary(cfg.Plan)(c)
			if err != nil {
				return err
			}
			o, ok := lib.Get(args[1])
			if !ok || o.Race != race {
				return fmt.Errorf("no %s build order %q (have %s)", args[0], args[1], strings.Join(keysFor(lib, race), ", "))
			}
			printOrder(cmd.OutOrStdout(), o)
			return nil
		},
	}
}

func keysFor(lib *plan.Library, race api.Race) []string {
	var out []string
	for _, o := range lib.ForRace(race) {
		out = append(out, o.Key)
	}
	return out
}

func printOrder(w io.Writer, o *plan.BuildOrder) {
	fmt.Fprintf(w, "%s: %s\n", o.Key, o.Title)
	if o.Selector != "" {
		fmt.Fprintf(w, "selector: %s\n", o.Selector)
	}
	for i, s := range o.Steps {
		acts := make([]string, len(s.Actions))
		for j, a := range s.Actions {
			acts[j] = a.String()
			if !a.Defined() {
				acts[j] = "?" + s.Action
			}
		}
		fmt.Fprintf(w, "%3d  %3d  %-5s  %s\n", i+1, s.Supply, s.Time, strings.Join(acts, ", "))
	}
}
