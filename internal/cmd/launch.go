package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var launchCmd = &cobra.Command{
	Use:   "launch <character>",
	Short: "Launch a character without the menu",
	Long: `Attach to the named character's backend, starting one first if it is not
running. The name must be in the roster; case does not matter.

Examples:
  lichlaunch launch thorin`,
	Args: cobra.ExactArgs(1),
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	character, ok := cfg.Accounts.Find(args[0])
	if !ok {
		return fmt.Errorf("%q is not in the roster (see 'lichlaunch status')", args[0])
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	defer func() { _ = logger.Close() }()

	return launchCharacter(cmd.Context(), cmd, cfg, newInspector(cfg, logger), logger, character)
}
