package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/lichlaunch/internal/config"
	"github.com/Iron-Ham/lichlaunch/internal/launcher"
	"github.com/Iron-Ham/lichlaunch/internal/logging"
	"github.com/Iron-Ham/lichlaunch/internal/process"
	"github.com/Iron-Ham/lichlaunch/internal/tui"
	"github.com/Iron-Ham/lichlaunch/internal/tui/terminal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "lichlaunch",
	Short: "Pick a character and attach to its Lich session",
	Long: `lichlaunch shows the characters from your config, marks the ones whose
Lich backend is already running, and attaches Profanity to the one you pick.

If the character has no backend, lichlaunch starts one on the next free
detachable-client port (8000 and up), waits for it to come up, and then
attaches, retrying while the backend finishes logging in.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command and returns the process exit status. An
// interrupt is not a failure: the terminal is restored and the status is 0.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "lichlaunch: %v\n", err)
		return 1
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/lichlaunch/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/lichlaunch")
		viper.AddConfigPath(".")
	}

	config.ConfigureEnv()

	// Reported by loadConfig, so commands that need no config still run.
	configReadErr = viper.ReadInConfig()
}

// configReadErr is the result of reading the config file in initConfig.
var configReadErr error

// loadConfig reads and validates the config viper found.
func loadConfig() (*config.Config, error) {
	if configReadErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(configReadErr, &notFound) {
			return nil, &config.LoadError{
				Err: fmt.Errorf("%w in %s, $HOME/.config/lichlaunch or the current directory; run 'lichlaunch config init'",
					config.ErrNoConfigFile, config.ConfigDir()),
			}
		}
		return nil, &config.LoadError{Path: viper.ConfigFileUsed(), Err: configReadErr}
	}
	return config.Load()
}

// newLogger opens launcher.log in the state directory, or returns a logger
// that discards everything when logging is disabled or the file cannot be
// opened.
func newLogger(cfg *config.Config, stderr io.Writer) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}
	stateDir := cfg.Paths.ResolveStateDir()
	logger, err := logging.NewLoggerWithRotation(stateDir, cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(stderr, "lichlaunch: logging disabled: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

func newInspector(cfg *config.Config, logger *logging.Logger) *process.Inspector {
	return process.NewInspector(process.PSLister{}, cfg.Inspector.Timeout(), logger)
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	defer func() { _ = logger.Close() }()

	inspector := newInspector(cfg, logger)

	character, err := tui.Run(ctx, cfg.Accounts, inspector, logger)
	if err != nil {
		if interrupted(ctx, err) {
			return nil
		}
		logger.Error("selector failed", "error", err.Error())
		return err
	}
	if character == "" {
		logger.Info("selector closed without a selection")
		return nil
	}

	return launchCharacter(ctx, cmd, cfg, inspector, logger, character)
}

// launchCharacter runs one launch with the terminal guarded, so a frontend
// that dies in raw mode does not leave the shell unusable.
func launchCharacter(ctx context.Context, cmd *cobra.Command, cfg *config.Config, inspector launcher.Inspector, logger *logging.Logger, character string) error {
	guard, err := terminal.SaveStdin()
	if err != nil {
		logger.Warn("could not save terminal state", "error", err.Error())
	}
	defer func() {
		if err := guard.Restore(); err != nil {
			logger.Warn("could not restore terminal state", "error", err.Error())
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Launching %s...\n", character)

	l := launcher.New(launcher.OptionsFromConfig(cfg), inspector, process.ExecSpawner{}, logger)
	outcome, err := l.Launch(ctx, character)
	if err != nil {
		if interrupted(ctx, err) {
			return nil
		}
		return launchError(character, outcome, err)
	}
	return nil
}

// launchError adds what the launch managed to do before failing.
func launchError(character string, outcome *launcher.Outcome, err error) error {
	var qerr *process.QueryError
	switch {
	case errors.As(err, &qerr):
		return fmt.Errorf("status of %s unknown: %w", character, err)
	case errors.Is(err, launcher.ErrAttachExhausted) && outcome != nil && outcome.StartedBackend:
		return fmt.Errorf("%s: backend started on port %d but the frontend could not attach: %w",
			character, outcome.Port, err)
	default:
		return fmt.Errorf("%s: %w", character, err)
	}
}

// interrupted reports whether err is the result of ctx being cancelled by a
// signal rather than a real failure.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, ctx.Err()))
}
