package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/quranlake/internal/config"
	"github.com/smokyabdulrahman/quranlake/internal/display"
	"github.com/smokyabdulrahman/quranlake/internal/logging"
)

// Global flags shared across all subcommands.
var (
	FlagCity       string
	FlagCountry    string
	FlagLatitude   float64
	FlagLongitude  float64
	FlagMethod     int
	FlagSchool     int
	FlagJSON       bool
	FlagCacheDir   string
	FlagTimeFormat string
	FlagLocate     string
	FlagLogLevel   string
	FlagRefresh    bool
)

// loadedConfig holds the config file loaded during PersistentPreRunE.
var loadedConfig *config.Config

// NewRootCmd creates the root command for the quranlake CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "quranlake",
		Short:   "Prayer times, adhan and Quran recitations",
		Long:    "Shows today's prayer times for your location, plays the adhan on time\nand browses Quran reciters. Data comes from the Al Adhan and mp3quran APIs.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagCity, "city", "", "Override city label")
	pf.StringVar(&FlagCountry, "country", "", "Override country label")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude")
	pf.IntVar(&FlagMethod, "method", -1, "Override calculation method (0-23)")
	pf.IntVar(&FlagSchool, "school", -1, "Override school (0=Shafi, 1=Hanafi)")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/quranlake/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagLocate, "locate", "", "Location source: ip, static or off")
	pf.BoolVar(&FlagRefresh, "refresh", false, "Fetch fresh prayer times even when today's are cached")
	pf.StringVar(&FlagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error or disabled")

	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAdhanCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newRecitersCmd())
	rootCmd.AddCommand(newSurahsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())

	return rootCmd
}

// effectiveConfig layers CLI flags over environment, config file and
// defaults. Only flags that were explicitly set take part.
func effectiveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Resolve(loadedConfig)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	var over config.Config
	if flagWasSet(flags, root, "city") {
		over.City = FlagCity
	}
	if flagWasSet(flags, root, "country") {
		over.Country = FlagCountry
	}
	if flagWasSet(flags, root, "latitude") {
		over.Latitude = FlagLatitude
	}
	if flagWasSet(flags, root, "longitude") {
		over.Longitude = FlagLongitude
	}
	if flagWasSet(flags, root, "method") {
		m := FlagMethod
		over.Method = &m
	}
	if flagWasSet(flags, root, "school") {
		s := FlagSchool
		over.School = &s
	}
	if flagWasSet(flags, root, "cache-dir") {
		over.CacheDir = FlagCacheDir
	}
	if flagWasSet(flags, root, "time-format") {
		if err := over.Set("time_format", FlagTimeFormat); err != nil {
			return config.Config{}, err
		}
	}
	if flagWasSet(flags, root, "locate") {
		if err := over.Set("locate", FlagLocate); err != nil {
			return config.Config{}, err
		}
	}
	if flagWasSet(flags, root, "log-level") {
		if err := over.Set("log_level", FlagLogLevel); err != nil {
			return config.Config{}, err
		}
	}
	cfg.Merge(over)

	// Coordinates on the command line imply a fixed location.
	if over.Latitude != 0 || over.Longitude != 0 {
		cfg.Locate = "static"
	}
	return cfg, nil
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// newLogger writes to the command's stderr. One-shot commands stay quiet
// unless a level was configured; fallback is used otherwise.
func newLogger(cmd *cobra.Command, cfg config.Config, fallback string) (zerolog.Logger, error) {
	level := cfg.LogLevel
	if level == "" {
		level = fallback
	}
	return logging.New(cmd.ErrOrStderr(), level, display.IsTerminal(os.Stderr))
}

// goTimeFormat maps the 12h/24h setting to a Go layout.
func goTimeFormat(cfg config.Config) string {
	if cfg.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}
