package main

import (
	"fmt"
	"os"

	"tidy-go/internal/app"
	"tidy-go/internal/config"
	"tidy-go/internal/confirm"
	"tidy-go/internal/safety"

	"github.com/spf13/cobra"
)

// exitCode carries the workflow exit convention out of RunE handlers:
// 0 success, 1 blocked/total failure/internal error, 2 partial failure.
var exitCode int

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// When yes is true, confirmation prompts are answered automatically.
func newApp(yes bool) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var confirmer safety.Confirmer
	if yes {
		confirmer = &confirm.AutoConfirmer{Answer: true}
	} else {
		confirmer = confirm.NewTerminalConfirmer()
	}

	a, err := app.NewApp(cfg, confirmer)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "tidy",
	Short: "System maintenance with validation, backups, and undo",
}

// run command
var runCmd = &cobra.Command{
	Use:   "run TYPE TARGET...",
	Short: "Run one operation batch through the safety workflow",
	Long: `Run one operation batch through the safety workflow.

TYPE is one of: file_delete, file_modify, package_remove, service_stop,
directory_create. Every target is validated against the protection rules,
backed up per the safety level, and journaled for later undo.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("level")
		yes, _ := cmd.Flags().GetBool("yes")
		reason, _ := cmd.Flags().GetString("reason")

		opType := safety.OperationType(args[0])
		if !opType.Valid() {
			return fmt.Errorf("unknown operation type %q", args[0])
		}

		a, err := newApp(yes)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Run(opType, args[1:], reason, level)
		if err != nil {
			return err
		}

		printBatchResult(result)
		exitCode = result.ExitCode()
		return nil
	},
}

func printBatchResult(result *safety.BatchResult) {
	for _, w := range result.Warnings {
		fmt.Printf("warning [%s]: %s\n", w.Check, w.Message)
	}
	for _, r := range result.Results {
		detail := ""
		if r.Detail != "" {
			detail = "  (" + r.Detail + ")"
		}
		id := r.OperationID
		if id == "" {
			id = "-"
		}
		fmt.Printf("%-10s %-30s %s%s\n", r.Outcome, id, r.Target, detail)
	}
	fmt.Printf("%s: %d succeeded, %d failed, %d skipped\n",
		result.Classification, result.Succeeded, result.Failed, result.Skipped)
}

// ops command
var opsCmd = &cobra.Command{
	Use:   "ops [ID]",
	Short: "View the operation journal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			op, err := a.GetOperation(args[0])
			if err != nil {
				return err
			}
			if op == nil {
				return fmt.Errorf("no such operation: %s", args[0])
			}
			printOperation(op)
			return nil
		}

		ops, err := a.ListOperations(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}
		for _, op := range ops {
			fmt.Printf("%-30s %-15s %-10s %s\n",
				op.ID, op.Type, op.Status, op.Target)
		}
		return nil
	},
}

func printOperation(op *safety.Operation) {
	fmt.Printf("ID:          %s\n", op.ID)
	fmt.Printf("Type:        %s\n", op.Type)
	fmt.Printf("Target:      %s\n", op.Target)
	fmt.Printf("Status:      %s\n", op.Status)
	fmt.Printf("Created:     %s\n", op.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:     %s\n", op.UpdatedAt.Format("2006-01-02 15:04:05"))
	if op.Description != "" {
		fmt.Printf("Description: %s\n", op.Description)
	}
	if op.BackupRef != "" {
		fmt.Printf("Backup:      %s\n", op.BackupRef)
	}
	if op.Error != "" {
		fmt.Printf("Error:       %s\n", op.Error)
	}
}

// undo command
var undoCmd = &cobra.Command{
	Use:   "undo ID",
	Short: "Reverse a completed operation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, err := a.Undo(args[0], confirm.ReadPassphrase)
		if err != nil {
			return err
		}

		switch outcome.Kind {
		case safety.UndoAlreadyUndone:
			fmt.Printf("Operation %s was already undone.\n", outcome.OperationID)
		case safety.UndoDone:
			fmt.Printf("Operation %s undone.\n", outcome.OperationID)
		}
		for _, step := range outcome.Steps {
			if step.Err != nil {
				fmt.Printf("  FAILED %s: %v\n", step.Name, step.Err)
			} else {
				fmt.Printf("  ok     %s\n", step.Name)
			}
		}
		if outcome.Kind == safety.UndoFailedKind {
			exitCode = 1
		}
		return nil
	},
}

// rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage protection rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List system and user protection rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		rules, err := a.Rules()
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			fmt.Println("No rules configured (built-in critical protection always applies).")
			return nil
		}
		for _, r := range rules {
			fmt.Printf("%-8s %-8s %-13s %s\n", r.Tier, r.Effect, r.Scope, r.Pattern)
		}
		return nil
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add SCOPE PATTERN",
	Short: "Add a user-tier rule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		allow, _ := cmd.Flags().GetBool("allow")

		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		effect := safety.EffectProtect
		if allow {
			effect = safety.EffectAllow
		}
		rule := safety.ProtectionRule{
			Scope:   safety.RuleScope(args[0]),
			Pattern: args[1],
			Effect:  effect,
		}
		if err := a.AddRule(rule); err != nil {
			return err
		}
		fmt.Printf("Added %s rule %s:%s\n", effect, rule.Scope, rule.Pattern)
		return nil
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove SCOPE PATTERN",
	Short: "Remove a user-tier rule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.RemoveRule(safety.RuleScope(args[0]), args[1])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no user rule %s:%s", args[0], args[1])
		}
		fmt.Printf("Removed rule %s:%s\n", args[0], args[1])
		return nil
	},
}

// prune command
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply retention to the journal and snapshot store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Prune()
		if err != nil {
			return err
		}
		fmt.Printf("Journal: %d trimmed, %d purged\n", res.JournalTrimmed, res.JournalPurged)
		fmt.Printf("Snapshots: %d removed\n", res.SnapshotsRemoved)
		return nil
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the setup and report advisory warnings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		failed := false
		for _, res := range a.Check() {
			if res.Err != nil {
				failed = true
				fmt.Printf("FAIL %s: %v\n", res.Name, res.Err)
			} else {
				fmt.Printf("ok   %s\n", res.Name)
			}
		}
		for _, w := range a.Advisories() {
			fmt.Printf("warn %s: %s\n", w.Check, w.Message)
		}
		if failed {
			exitCode = 1
		}
		return nil
	},
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
		fmt.Printf("Default Level: %s\n", cfg.DefaultLevel)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Journal:       %s (%s)\n", cfg.Journal.Type, cfg.Journal.DataDir)
		fmt.Printf("Snapshots:     %s (%s)\n", cfg.Snapshots.Type, cfg.Snapshots.Root)
		fmt.Printf("System Rules:  %s\n", cfg.Rules.SystemPath)
		fmt.Printf("User Rules:    %s\n", cfg.Rules.UserPath)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := confirm.ReadPassphrase("Passphrase to protect the private key: ")
		if err != nil {
			return err
		}
		again, err := confirm.ReadPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != again {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.SetupKeys(pass); err != nil {
			return err
		}
		fmt.Println("Key pair generated.")
		return nil
	},
}

func init() {
	runCmd.Flags().StringP("level", "l", "", "Safety level: conservative, standard, aggressive (default from config)")
	runCmd.Flags().BoolP("yes", "y", false, "Answer confirmation prompts automatically")
	runCmd.Flags().String("reason", "", "Description recorded with each operation")
	rootCmd.AddCommand(runCmd)

	opsCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(opsCmd)

	rootCmd.AddCommand(undoCmd)

	rulesAddCmd.Flags().Bool("allow", false, "Add an allow rule instead of a protect rule")
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
	rootCmd.AddCommand(rulesCmd)

	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(checkCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	keysCmd.AddCommand(keysInitCmd)
	rootCmd.AddCommand(keysCmd)
}
