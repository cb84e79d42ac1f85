package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sophialabs/redirectlint/internal/app"
)

// cli carries state shared by every subcommand.
type cli struct {
	out, errOut io.Writer
	configFile  string
	status      int
}

// flagKeys maps flag names to dotted config keys. A flag is only applied when
// set on the command line so it does not mask the config file or environment.
var flagKeys = map[string]string{
	"root":          "root",
	"recursive":     "recursive",
	"exclude":       "exclude",
	"verbose":       "verbose",
	"log-level":     "log_level",
	"concurrency":   "check.concurrency",
	"timeout":       "check.timeout",
	"broken-status": "check.broken_statuses",
	"broken-expr":   "check.broken_expr",
	"host-rate":     "check.host_rate",
	"host-burst":    "check.host_burst",
	"method":        "check.method",
	"user-agent":    "check.user_agent",
	"script":        "encode.script",
	"pattern":       "encode.pattern",
	"dry-run":       "encode.dry_run",
}

func execute(ctx context.Context, args []string, out, errOut io.Writer) (int, error) {
	c := &cli{out: out, errOut: errOut}
	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1, err
	}
	return c.status, nil
}

func (c *cli) newRootCmd() *cobra.Command {
	defaults := app.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "redirectlint",
		Short: "Validate, check and encode redirect lists",
		Long: `redirectlint reads every *.yaml and *.yml redirect list in a directory,
reports invalid and duplicate entries, and optionally probes each destination
or encodes the combined list into a script.`,
		Version: version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.configFile, "config", "c", "", "config file (default <root>/"+app.ConfigFileName+")")
	pf.String("root", defaults.RootDir, "directory holding the redirect lists")
	pf.Bool("recursive", defaults.Recursive, "descend into subdirectories")
	pf.StringSlice("exclude", defaults.Exclude, "base-name globs never treated as redirect lists")
	pf.BoolP("verbose", "v", false, "print the combined list and encoded strings")
	pf.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(c.newValidateCmd())
	rootCmd.AddCommand(c.newCheckCmd(defaults))
	rootCmd.AddCommand(c.newEncodeCmd(defaults))
	rootCmd.AddCommand(c.newVersionCmd())
	return rootCmd
}

func (c *cli) newValidateCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate redirect lists and report duplicates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, app.WorkflowValidate, watch)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run whenever a redirect list changes")
	return cmd
}

func (c *cli) newCheckCmd(defaults app.Config) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate redirect lists and probe every destination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, app.WorkflowCheck, watch)
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&watch, "watch", "w", false, "re-run whenever a redirect list changes")
	f.Int("concurrency", defaults.Check.Concurrency, "maximum probes in flight (0 = unlimited)")
	f.Duration("timeout", defaults.Check.Timeout, "per-probe timeout")
	f.IntSlice("broken-status", nil, "statuses treated as broken (default built-in set)")
	f.String("broken-expr", "", `extra broken rule, e.g. 'status >= 300 && url contains "old"'`)
	f.Float64("host-rate", defaults.Check.HostRate, "probes per second per host (0 = unpaced)")
	f.Int("host-burst", defaults.Check.HostBurst, "probe burst per host")
	f.String("method", defaults.Check.Method, "probe method (GET or HEAD)")
	f.String("user-agent", defaults.Check.UserAgent, "User-Agent header sent with probes")
	return cmd
}

func (c *cli) newEncodeCmd(defaults app.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Validate redirect lists and splice the encoded list into a script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, app.WorkflowEncode, false)
		},
	}
	f := cmd.Flags()
	f.String("script", defaults.Encode.Script, "script file holding the encoded list")
	f.String("pattern", "", "splice regex with exactly three groups (default list = \"...\")")
	f.Bool("dry-run", false, "compute the new script without writing it")
	return cmd
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func (c *cli) run(cmd *cobra.Command, wf app.Workflow, watch bool) error {
	cfg, err := app.LoadConfig(app.LoadOptions{
		ConfigFile: c.configFile,
		Overrides:  changedFlags(cmd),
	})
	if err != nil {
		return err
	}

	a, err := app.New(cfg, wf, c.out, c.errOut)
	if err != nil {
		return err
	}
	defer a.Close()

	if watch {
		c.status = a.Watch(cmd.Context(), wf)
	} else {
		c.status = a.Run(cmd.Context(), wf)
	}
	return nil
}

// changedFlags collects explicitly set flags as config overrides.
func changedFlags(cmd *cobra.Command) map[string]any {
	overrides := map[string]any{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		overrides[key] = flagValue(f)
	})
	return overrides
}

func flagValue(f *pflag.Flag) any {
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		return sv.GetSlice()
	}
	switch f.Value.Type() {
	case "bool":
		b, _ := strconv.ParseBool(f.Value.String())
		return b
	}
	return strings.TrimSpace(f.Value.String())
}
