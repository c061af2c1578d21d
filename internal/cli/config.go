package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bch9248/benchctl/internal/config"
	"github.com/bch9248/benchctl/internal/envfile"
	bencherrors "github.com/bch9248/benchctl/internal/errors"
	"github.com/bch9248/benchctl/internal/keys"
	"github.com/bch9248/benchctl/internal/runtime"
)

// newConfigCmd creates the config command
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the credentials env file",
		Long: `Read and write entries of the credentials env file.

Secret values are redacted in listings; pass --reveal to print them in full.

Examples:
  benchctl config list
  benchctl config get AZURE_OPENAI_ENDPOINT
  benchctl config set AZURE_OPENAI_DEPLOYMENT gpt-4o
  benchctl config unset GITHUB_TOKEN`,
	}

	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigUnsetCmd())

	return cmd
}

// loadEnvDocument opens the workspace credentials file leniently, so config
// commands keep working on files with stray lines in them.
func loadEnvDocument(ctx *runtime.Context) (*envfile.Document, error) {
	envPath, err := config.GetEnvFile(ctx.WorkspaceRoot)
	if err != nil {
		return nil, err
	}

	doc, err := envfile.Load(envPath)
	if errors.Is(err, bencherrors.ErrEnvFileMissing) {
		return envfile.New(envPath), nil
	}
	if err != nil {
		return nil, err
	}
	for _, warning := range doc.Warnings() {
		ctx.Console.Warn("%s:%d: %s", envPath, warning.Line, warning.Message)
	}
	return doc, nil
}

// newConfigListCmd creates the config list command
func newConfigListCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all entries of the credentials file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			doc, err := loadEnvDocument(ctx)
			if err != nil {
				return err
			}

			for _, entry := range doc.Entries() {
				fmt.Printf("%s=%s\n", entry.Key, keys.Display(entry.Key, entry.Value, reveal))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print secret values in full")

	return cmd
}

// newConfigGetCmd creates the config get command
func newConfigGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one value from the credentials file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			doc, err := loadEnvDocument(ctx)
			if err != nil {
				return err
			}

			value, ok := doc.Get(args[0])
			if !ok {
				return fmt.Errorf("key %s is not set", args[0])
			}
			fmt.Println(value)
			return nil
		},
	}

	return cmd
}

// newConfigSetCmd creates the config set command
func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one value in the credentials file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			doc, err := loadEnvDocument(ctx)
			if err != nil {
				return err
			}

			if err := doc.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := doc.Save(); err != nil {
				return err
			}

			ctx.Console.Info("Set %s to %s", args[0], keys.Display(args[0], args[1], false))
			return nil
		},
	}

	return cmd
}

// newConfigUnsetCmd creates the config unset command
func newConfigUnsetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove one entry from the credentials file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.GetContext(cmd.Context())
			if err != nil {
				return err
			}

			doc, err := loadEnvDocument(ctx)
			if err != nil {
				return err
			}

			if !doc.Unset(args[0]) {
				return fmt.Errorf("key %s is not set", args[0])
			}
			if err := doc.Save(); err != nil {
				return err
			}

			ctx.Console.Info("Removed %s", args[0])
			return nil
		},
	}

	return cmd
}
