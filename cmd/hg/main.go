package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"hg-go/internal/app"
	"hg-go/internal/config"
	"hg-go/internal/hg"
	"hg-go/internal/timing"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var verbose bool

// newApp reads the config and creates an HGApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Start", "Watch").
func newApp(operation string) (*app.HGApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewHGApp(cfg, operation, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on stderr and reads a line from the terminal
// without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func printEntry(e *hg.Entry) {
	fmt.Printf("%s  %s\n", shortID(e.ID), e.Timer)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var rootCmd = &cobra.Command{
	Use:          "hg",
	Short:        "Hourglass countdown timers",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		noEncryption, _ := cmd.Flags().GetBool("no-encryption")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])

		if noEncryption {
			return nil
		}

		pass, err := readPassphrase("Passphrase for export key: ")
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := app.SetupEncryption(cfg.Encryption, pass); err != nil {
			return err
		}
		fmt.Printf("Public key: %s\n", cfg.Encryption.PublicKeyPath)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Tick Interval: %s\n", cfg.TickInterval)
		fmt.Printf("Database:      %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Encryption:    %s %s\n", cfg.Encryption.Type, cfg.Encryption.PublicKeyPath)
		fmt.Printf("Sound:         %s x%d\n", cfg.Sound.Type, cfg.Sound.Repeat)
		return nil
	},
}

// start command
var startCmd = &cobra.Command{
	Use:   "start INPUT...",
	Short: "Start a timer",
	Long: `Start a timer from a duration ("25", "1h30m", "1w2d"), the next
occurrence of a time ("until 17:30"), a date ("until 2026-12-24 18:00")
or a weekly slot ("every friday 16:00").`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Start")
		if err != nil {
			return err
		}
		defer a.Close()

		b := a.DefaultOptions()
		if err := applyOptionFlags(cmd, b); err != nil {
			return err
		}

		e, err := a.Start(strings.Join(args, " "), b.Freeze())
		if err != nil {
			return fmt.Errorf("starting timer: %w", err)
		}

		printEntry(e)
		return nil
	},
}

// applyOptionFlags overrides the defaults in b with the flags given on the
// command line.
func applyOptionFlags(cmd *cobra.Command, b *timing.OptionsBuilder) error {
	flags := cmd.Flags()

	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		if err := b.SetTitle(v); err != nil {
			return err
		}
	}
	if flags.Changed("sound") {
		v, _ := flags.GetString("sound")
		if err := b.SetSound(v); err != nil {
			return err
		}
	}

	bools := []struct {
		name string
		set  func(bool) error
	}{
		{"loop", b.SetLoopTimer},
		{"elapsed", b.SetShowTimeElapsed},
		{"loop-sound", b.SetLoopSound},
		{"close", b.SetCloseWhenExpired},
	}
	for _, f := range bools {
		if !flags.Changed(f.name) {
			continue
		}
		v, _ := flags.GetBool(f.name)
		if err := f.set(v); err != nil {
			return err
		}
	}
	return nil
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List timers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.List()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No timers.")
			return nil
		}

		for _, e := range entries {
			printEntry(e)
		}
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status ID",
	Short: "Show a timer in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.Get(args[0])
		if err != nil {
			return err
		}

		tm := e.Timer
		d := tm.Derived()
		opts := tm.Options()

		fmt.Printf("ID:        %s\n", e.ID)
		if opts.Title() != "" {
			fmt.Printf("Title:     %s\n", opts.Title())
		}
		fmt.Printf("State:     %s\n", tm.State())
		if s := tm.TimerStart(); s != nil {
			fmt.Printf("Start:     %s\n", s)
		}
		if t, ok := tm.StartTime(); ok {
			fmt.Printf("Began:     %s\n", t.Format("2006-01-02 15:04:05"))
		}
		if t, ok := tm.EndTime(); ok {
			fmt.Printf("Ends:      %s\n", t.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("Time left: %s\n", d.TimeLeft)
		if d.TimeElapsed != "" {
			fmt.Printf("Elapsed:   %s\n", d.TimeElapsed)
		}
		if d.TimeExpired != "" {
			fmt.Printf("Expired:   %s\n", d.TimeExpired)
		}
		if d.PercentageLeft != nil {
			fmt.Printf("Progress:  %.0f%%\n", *d.PercentageLeft)
		}
		return nil
	},
}

// newModifyCmd builds one of the single-timer commands that share the same
// shape: resolve, act, print.
func newModifyCmd(use, short, operation string, fn func(a *app.HGApp, id string) (*hg.Entry, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(operation)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := fn(a, args[0])
			if err != nil {
				return err
			}

			printEntry(e)
			return nil
		},
	}
}

var (
	pauseCmd   = newModifyCmd("pause", "Pause a timer", "Pause", (*app.HGApp).Pause)
	resumeCmd  = newModifyCmd("resume", "Resume a paused timer", "Resume", (*app.HGApp).Resume)
	stopCmd    = newModifyCmd("stop", "Stop a timer", "Stop", (*app.HGApp).Stop)
	restartCmd = newModifyCmd("restart", "Restart a timer", "Restart", (*app.HGApp).Restart)
)

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Remove a timer and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Remove")
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.Remove(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Removed %s\n", id)
		return nil
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch [ID...]",
	Short: "Watch timers until they finish or Ctrl-C",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Watch")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tty := term.IsTerminal(int(os.Stdout.Fd()))
		render := func(entries []*hg.Entry) {
			if tty {
				fmt.Print("\033[H\033[2J")
			}
			for _, e := range entries {
				printEntry(e)
			}
		}

		return a.Watch(ctx, args, render)
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history ID",
	Short: "View timer transitions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("History")
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.History(args[0], limit)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Println("No history.")
			return nil
		}

		for _, ev := range events {
			fmt.Printf("#%d  %s  %-8s  %s\n",
				ev.ID,
				ev.OccurredAt.Local().Format("2006-01-02 15:04:05"),
				ev.Kind,
				ev.State,
			)
		}
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export PATH",
	Short: "Export all timers to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Export(args[0], format, encrypt)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported %d timer(s) to %s\n", n, args[0])
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import PATH",
	Short: "Import timers from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Import(args[0], format, func() (string, error) {
			return readPassphrase("Passphrase: ")
		})
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Printf("Imported %d timer(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().Bool("no-encryption", false, "Skip generating the export key pair")

	// start flags
	startCmd.Flags().StringP("title", "t", "", "Timer title")
	startCmd.Flags().BoolP("loop", "l", false, "Restart the timer each time it expires")
	startCmd.Flags().BoolP("elapsed", "e", false, "Show time elapsed instead of time left")
	startCmd.Flags().StringP("sound", "s", "", "Sound to play on expiry (empty for none)")
	startCmd.Flags().Bool("loop-sound", false, "Keep playing the sound while expired")
	startCmd.Flags().BoolP("close", "c", false, "Stop watching once expired")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of transitions to show")
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("format", "", "toml, yaml or cbor (default: from extension)")
	exportCmd.Flags().Bool("encrypt", false, "Encrypt with the configured age key")
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("format", "", "toml, yaml or cbor (default: from extension)")
}
