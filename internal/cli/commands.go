package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/config"
	"github.com/smokyabdulrahman/quranlake/internal/display"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long:  "Display the config file, or use subcommands to modify it.\nEnvironment variables (QURANLAKE_*) and flags take precedence over the file.",
		RunE:  runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a config value",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigGet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n  quranlake config set latitude 21.4225\n  quranlake config set locate static\n  quranlake config set method 4\n  quranlake config set time_format 12h\n  quranlake config set adhan_audio \"adhan.mp3,Fajr=fajr.mp3\"\n  quranlake config set notify log,mqtt",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset config to defaults",
		Long:  "Delete the config file and restore all settings to defaults.",
		RunE:  runConfigReset,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		RunE:  runConfigPath,
	})

	return cmd
}

// runConfigShow displays the config file values. Where defaults, the
// environment or flags resolve a key to something else, the effective
// value follows in brackets.
func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	eff, err := effectiveConfig(cmd)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  Configuration (%s)\n\n", path)

	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		line := describeValue(key, val)
		if val == "" {
			line = "(not set)"
		}
		if ev, _ := eff.Get(key); ev != "" && ev != val {
			line += display.Dim("  [" + describeValue(key, ev) + "]")
		}
		fmt.Fprintf(w, "  %-14s %s\n", key, line)
	}
	return nil
}

func describeValue(key, val string) string {
	switch key {
	case "method":
		return formatMethodValue(val)
	case "school":
		return formatSchoolValue(val)
	default:
		return val
	}
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	val, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}

// runConfigSet sets a config key to the given value.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

// runConfigReset deletes the config file.
func runConfigReset(cmd *cobra.Command, args []string) error {
	if err := config.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
	return nil
}

// runConfigPath prints the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// formatMethodValue adds the method name to the numeric value.
func formatMethodValue(val string) string {
	id, err := strconv.Atoi(val)
	if err != nil {
		return val
	}
	if name, ok := api.MethodName(id); ok {
		return fmt.Sprintf("%s (%s)", val, name)
	}
	return val
}

// formatSchoolValue adds the school name to the numeric value.
func formatSchoolValue(val string) string {
	switch val {
	case "0":
		return "0 (Shafi)"
	case "1":
		return "1 (Hanafi)"
	default:
		return val
	}
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List all calculation methods",
		Long:  "Print the table of all supported Al Adhan API calculation methods.",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Supported calculation methods:")
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  %-4s %s\n", "ID", "Name")
			fmt.Fprintf(w, "  %-4s %s\n", "──", "────")
			for _, m := range api.Methods {
				fmt.Fprintf(w, "  %-4d %s\n", m.ID, m.Name)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Use --method <ID> to select a calculation method.")
			fmt.Fprintf(w, "If omitted, method %d (Umm Al-Qura) is used.\n", api.DefaultMethod)
			return nil
		},
	}
}
