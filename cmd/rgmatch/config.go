package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/rgmatch/internal/match"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage default match options",
		Long: `Show, get, or set defaults for the match command. Keys are the long flag
names of "rgmatch match" plus verbose. Values are checked the same way match
checks them before anything is written to ~/.rgmatch.yaml.`,
		Example: `  rgmatch config                               # show saved defaults
  rgmatch config set report gene                # report at gene level
  rgmatch config set rules TSS,PROMOTER,1st_EXON # change the area priority
  rgmatch config get distance                   # saved value or flag default`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and save a default",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

// optionFlags returns a fresh copy of the flags a config key may name.
func optionFlags() *pflag.FlagSet {
	fs := newMatchCmd().Flags()
	fs.Bool("verbose", false, "Enable debug logging")
	return fs
}

func lookupOption(fs *pflag.FlagSet, key string) (*pflag.Flag, error) {
	if f := fs.Lookup(key); f != nil {
		return f, nil
	}
	var keys []string
	fs.VisitAll(func(f *pflag.Flag) { keys = append(keys, f.Name) })
	slices.Sort(keys)
	return nil, fmt.Errorf("unknown key %q (valid keys: %s)", key, strings.Join(keys, ", "))
}

// normalizeOption checks value for key as the match command would and
// returns the typed value to store. Rule lists and report levels are saved in
// canonical form.
func normalizeOption(key, value string) (any, error) {
	fs := optionFlags()
	if _, err := lookupOption(fs, key); err != nil {
		return nil, err
	}
	if err := fs.Set(key, value); err != nil {
		return nil, fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	opts := loadMatchOptions(v)
	cfg, err := opts.matchConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	if err := opts.pipelineConfig().Validate(); err != nil {
		return nil, fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}

	switch key {
	case "rules":
		return match.FormatRules(cfg.Rules), nil
	case "report":
		return cfg.Level.String(), nil
	}
	return v.Get(key), nil
}

func runConfigShow(cmd *cobra.Command) error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "# No configuration set. Config file: ~/.rgmatch.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	stored, err := normalizeOption(key, value)
	if err != nil {
		return err
	}
	viper.Set(key, stored)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".rgmatch.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", key, stored, cfgFile)
	return nil
}

// runConfigGet prints the saved value of key, or the flag default when
// nothing is saved.
func runConfigGet(cmd *cobra.Command, key string) error {
	f, err := lookupOption(optionFlags(), key)
	if err != nil {
		return err
	}
	if val := viper.Get(key); val != nil {
		fmt.Fprintln(cmd.OutOrStdout(), val)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (default)\n", f.DefValue)
	return nil
}
