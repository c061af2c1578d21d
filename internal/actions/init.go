package actions

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"

	"github.com/bch9248/benchctl/internal/config"
	bencherrors "github.com/bch9248/benchctl/internal/errors"
	"github.com/bch9248/benchctl/internal/envfile"
	"github.com/bch9248/benchctl/internal/keys"
	"github.com/bch9248/benchctl/internal/runtime"
)

// InitOptions contains options for the init command
type InitOptions struct {
	AzureKey        string
	AzureEndpoint   string
	AzureDeployment string
	GithubToken     string
	EnvFile         string
	NoInteractive   bool
}

// InitAction creates or updates the workspace: the credentials file and the
// workspace config. Re-running it touches only the values the operator
// provides; everything else in the env file is left byte for byte as it was.
func InitAction(ctx *runtime.Context, opts InitOptions) error {
	console := ctx.Console

	envPath := opts.EnvFile
	if envPath == "" {
		var err error
		envPath, err = config.GetEnvFile(ctx.WorkspaceRoot)
		if err != nil {
			return err
		}
	}

	doc, err := envfile.Load(envPath)
	if errors.Is(err, bencherrors.ErrEnvFileMissing) {
		doc = envfile.New(envPath)
		err = nil
	}
	if err != nil {
		return err
	}
	for _, warning := range doc.Warnings() {
		console.Warn("%s:%d: %s", envPath, warning.Line, warning.Message)
	}

	wasInitialized := config.IsInitialized(ctx.WorkspaceRoot)
	if wasInitialized {
		console.Info("Reinitializing benchctl workspace...")
	} else {
		console.Info("Welcome to benchctl!")
	}
	console.Newline()

	provided := map[string]string{
		keys.AzureKey.Name:        opts.AzureKey,
		keys.AzureEndpoint.Name:   opts.AzureEndpoint,
		keys.AzureDeployment.Name: opts.AzureDeployment,
		keys.GithubToken.Name:     opts.GithubToken,
	}

	interactive := !opts.NoInteractive && isInteractive()
	for _, key := range keys.Required {
		value := provided[key.Name]
		if value == "" && interactive {
			value, err = promptForKey(doc, key)
			if err != nil {
				return err
			}
		}
		if value == "" {
			continue
		}
		if err := doc.Set(key.Name, value); err != nil {
			return err
		}
	}

	if err := doc.Save(); err != nil {
		return fmt.Errorf("failed to write %s: %w", envPath, err)
	}
	console.Info("Credentials written to %s", envPath)

	if !wasInitialized {
		if err := config.WriteWorkspaceConfig(ctx.WorkspaceRoot, &config.WorkspaceConfig{}); err != nil {
			return fmt.Errorf("failed to write workspace config: %w", err)
		}
		console.Info("Workspace config written to %s", config.ConfigFileName)
	}

	console.Newline()
	for _, key := range keys.Required {
		value, ok := doc.Get(key.Name)
		if !ok || value == "" {
			console.Warn("%s is not set", key.Name)
			continue
		}
		console.Info("  %s=%s", key.Name, keys.Display(key.Name, value, false))
	}

	if missing := keys.Missing(doc); len(missing) > 0 {
		console.Newline()
		console.Tip("Run 'benchctl init' again to fill in the remaining keys, or edit %s directly.", envPath)
	} else {
		console.Newline()
		console.Info("✅ All required keys are present. Try 'benchctl probe' to verify connectivity.")
	}

	return nil
}

// promptForKey asks for one credential. Secrets use a password prompt and an
// empty answer keeps whatever the file already holds.
func promptForKey(doc *envfile.Document, key keys.Key) (string, error) {
	current, _ := doc.Get(key.Name)

	var value string
	if key.Secret {
		message := fmt.Sprintf("%s (%s)", key.Name, key.Description)
		if current != "" {
			message = fmt.Sprintf("%s [current: %s]", message, keys.Redact(current))
		}
		prompt := &survey.Password{Message: message}
		if err := survey.AskOne(prompt, &value); err != nil {
			return "", fmt.Errorf("canceled")
		}
	} else {
		prompt := &survey.Input{
			Message: fmt.Sprintf("%s (%s)", key.Name, key.Description),
			Default: current,
		}
		if err := survey.AskOne(prompt, &value); err != nil {
			return "", fmt.Errorf("canceled")
		}
	}

	return value, nil
}

// isInteractive checks if we're in an interactive terminal
func isInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
