package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pm-go/internal/app"
	"pm-go/internal/config"
	"pm-go/internal/encryption"
	"pm-go/internal/model"
	"pm-go/internal/pm"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PMApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "add", "backup push").
func newApp(cmd *cobra.Command, operation string) (*app.PMApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config (run `pm config init` first): %w", err)
	}

	return openApp(cmd, cfg, operation)
}

func openApp(cmd *cobra.Command, cfg *config.Config, operation string) (*app.PMApp, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewPMApp(cmd.Context(), cfg, operation, app.Options{
		Verbose: verbose,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func formatFlag(cmd *cobra.Command) (outputFormat, error) {
	s, _ := cmd.Flags().GetString("format")
	return parseFormat(s)
}

var rootCmd = &cobra.Command{
	Use:          "pm",
	Short:        "Local password manager",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration, database and backup keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Fprintf(out, "Base Dir: %s\n", cfg.BaseDir)

		a, err := openApp(cmd, cfg, "config init")
		if err != nil {
			return err
		}
		defer a.Close()
		fmt.Fprintf(out, "Database: %s\n", cfg.Database.Path)

		if skip, _ := cmd.Flags().GetBool("no-keys"); skip {
			return nil
		}
		if a.EncryptionConfigured() {
			fmt.Fprintln(out, "Backup keys already exist.")
			return nil
		}
		passphrase, err := readNewSecret(cmd.InOrStdin(), out, "Backup passphrase")
		if err != nil {
			return err
		}
		if err := a.SetupEncryption(passphrase); err != nil {
			return err
		}
		fmt.Fprintf(out, "Backup keys written to %s\n", cfg.Encryption.PublicKeyPath)
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

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if cfg.Backup.S3SecretAccessKey != "" {
			cfg.Backup.S3SecretAccessKey = passwordMask
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration from %s:\n\n", defaults.ConfigPath)
		m := &config.Manager{}
		return m.Write(out, cfg)
	},
}

// ls command
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := formatFlag(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "ls")
		if err != nil {
			return err
		}
		defer a.Close()

		base, err := a.DefaultSort()
		if err != nil {
			return err
		}
		field, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")
		sort, err := resolveSort(base, field, order)
		if err != nil {
			return err
		}

		search, _ := cmd.Flags().GetString("search")
		show, _ := cmd.Flags().GetStringSlice("show")
		records := a.List(pm.ViewQuery{Search: search, Sort: sort}, show)
		return writeRecords(cmd.OutOrStdout(), format, records)
	},
}

// resolveSort applies the ls sort flags to the configured order. --sort
// toggles like a column header: a new field sorts ascending, the current
// field flips. --order, when given, sets the direction explicitly.
func resolveSort(base pm.SortState, field, order string) (pm.SortState, error) {
	sort := base
	if field != "" {
		f, err := pm.ParseSortField(field)
		if err != nil {
			return pm.SortState{}, err
		}
		sort = sort.Toggle(f)
	}
	if order != "" {
		o, err := pm.ParseSortOrder(order)
		if err != nil {
			return pm.SortState{}, err
		}
		sort.Order = o
	}
	return sort, nil
}

// show command
var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one entry including its password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := formatFlag(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "show")
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Get(args[0])
		if err != nil {
			return err
		}
		return writeRecord(cmd.OutOrStdout(), format, rec)
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := fieldsFromFlags(cmd, model.RecordFields{})
		generate, _ := cmd.Flags().GetBool("generate")
		if !generate && !cmd.Flags().Changed("password") {
			pw, err := readSecret(cmd.InOrStdin(), cmd.OutOrStdout(), "Password")
			if err != nil {
				return err
			}
			fields.Password = pw
		}

		a, err := newApp(cmd, "add")
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Add(cmd.Context(), fields, generate)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added %s (%s)\n", rec.ID, rec.Title)
		if generate {
			fmt.Fprintf(out, "Generated password: %s\n", rec.Password)
		}
		return nil
	},
}

// edit command
var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		generate, _ := cmd.Flags().GetBool("generate")
		var prompted *string
		if p, _ := cmd.Flags().GetBool("prompt-password"); p && !generate {
			pw, err := readSecret(cmd.InOrStdin(), cmd.OutOrStdout(), "New password")
			if err != nil {
				return err
			}
			prompted = &pw
		}

		a, err := newApp(cmd, "edit")
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Edit(cmd.Context(), args[0], func(f *model.RecordFields) {
			*f = fieldsFromFlags(cmd, *f)
			if prompted != nil {
				f.Password = *prompted
			}
		}, generate)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Updated %s (%s)\n", rec.ID, rec.Title)
		if generate {
			fmt.Fprintf(out, "Generated password: %s\n", rec.Password)
		}
		return nil
	},
}

// fieldsFromFlags overlays the record flags that were set on base.
func fieldsFromFlags(cmd *cobra.Command, base model.RecordFields) model.RecordFields {
	set := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	set("title", &base.Title)
	set("username", &base.Username)
	set("password", &base.Password)
	set("website", &base.Website)
	set("email", &base.Email)
	return base
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := newApp(cmd, "rm")
		if err != nil {
			return err
		}
		defer a.Close()

		var askErr error
		removed, err := a.Remove(cmd.Context(), args[0], func(r model.CredentialRecord) bool {
			if yes {
				return true
			}
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete %q (%s)?", r.Title, r.Username))
			askErr = err
			return ok
		})
		if err != nil {
			return err
		}
		if askErr != nil {
			return askErr
		}
		if !removed {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

// gen command
var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Print a generated password",
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := pm.GeneratePassword()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pw)
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage encrypted backups",
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Store an encrypted snapshot on the backup target",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "backup push")
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.PushBackup(cmd.Context())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d bytes)\n", info.Name, info.Size)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups on the backup target",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := formatFlag(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "backup list")
		if err != nil {
			return err
		}
		defer a.Close()

		infos, err := a.ListBackups(cmd.Context())
		if err != nil {
			return err
		}
		return writeBackups(cmd.OutOrStdout(), format, infos)
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore NAME",
	Short: "Replace all entries with the content of a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := cmd.InOrStdin(), cmd.OutOrStdout()

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			ok, err := confirm(in, out, "Replace every entry with the content of "+args[0]+"?")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
		}

		passphrase, err := readSecret(in, out, "Backup passphrase")
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "backup restore")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.RestoreBackup(cmd.Context(), args[0], passphrase)
		if errors.Is(err, encryption.ErrWrongPassphrase) {
			return errors.New("incorrect passphrase")
		}
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Fprintf(out, "Restored %d entries from %s\n", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror debug logs to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().Bool("no-keys", false, "Do not create backup keys")

	// record commands
	lsCmd.Flags().StringP("search", "s", "", "Only entries whose title, username, website or email contains this text")
	lsCmd.Flags().String("sort", "", "Sort by "+strings.Join([]string{
		string(pm.SortByTitle), string(pm.SortByUsername), string(pm.SortByCreatedAt), string(pm.SortByUpdatedAt),
	}, ", "))
	lsCmd.Flags().String("order", "", "Sort order: asc or desc")
	lsCmd.Flags().StringSlice("show", nil, "Reveal the passwords of these entry ids")

	for _, c := range []*cobra.Command{lsCmd, showCmd, backupListCmd} {
		c.Flags().StringP("format", "o", string(formatText), "Output format: text, json or yaml")
	}

	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().String("title", "", "Entry title")
		c.Flags().StringP("username", "u", "", "Username")
		c.Flags().String("password", "", "Password (prompted when omitted)")
		c.Flags().String("website", "", "Website")
		c.Flags().String("email", "", "Email")
		c.Flags().BoolP("generate", "g", false, "Use a generated password")
	}
	editCmd.Flags().Bool("prompt-password", false, "Prompt for a new password")

	rmCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	backupRestoreCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	backupCmd.AddCommand(backupPushCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(backupCmd)
}
