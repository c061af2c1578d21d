// Package keys defines the credential schema of the env artifact: the four
// required keys, their legacy fallback aliases, and display redaction for
// secret values.
package keys

import (
	"os"
	"strings"

	bencherrors "github.com/bch9248/benchctl/internal/errors"
	"github.com/bch9248/benchctl/internal/envfile"
)

// Key describes one recognized credential.
type Key struct {
	Name        string
	Description string
	Secret      bool
	// Aliases are accepted stand-ins, in priority order. Each is looked up
	// first in the env file, then in the process environment.
	Aliases []string
}

var (
	AzureKey = Key{
		Name:        "AZURE_OPENAI_KEY",
		Description: "Azure OpenAI API key",
		Secret:      true,
		Aliases:     []string{"AZURE_OPENAI_API_KEY", "OPENAI_API_KEY", "OPENAI_KEY"},
	}
	AzureEndpoint = Key{
		Name:        "AZURE_OPENAI_ENDPOINT",
		Description: "Azure OpenAI endpoint URL (https://<resource>.openai.azure.com)",
		Aliases:     []string{"OPENAI_API_BASE"},
	}
	AzureDeployment = Key{
		Name:        "AZURE_OPENAI_DEPLOYMENT",
		Description: "Azure OpenAI model deployment name",
		Aliases:     []string{"OPENAI_DEPLOYMENT"},
	}
	GithubToken = Key{
		Name:        "GITHUB_TOKEN",
		Description: "GitHub token for cloning the agent and reading releases",
		Secret:      true,
		Aliases:     []string{"GH_TOKEN"},
	}
)

// Required lists the keys every workspace must provide, in display order.
var Required = []Key{AzureKey, AzureEndpoint, AzureDeployment, GithubToken}

// Credentials holds the resolved values of the required keys.
type Credentials struct {
	AzureKey        string
	AzureEndpoint   string
	AzureDeployment string
	GithubToken     string
}

// Lookup returns the schema entry for a canonical key name.
func Lookup(name string) (Key, bool) {
	for _, k := range Required {
		if k.Name == name {
			return k, true
		}
	}
	return Key{}, false
}

// IsSecret reports whether a key's value should be redacted in output.
// Known keys use their schema flag; unknown keys fall back to a name
// heuristic so passed-through credentials are not echoed.
func IsSecret(name string) bool {
	if k, ok := Lookup(name); ok {
		return k.Secret
	}
	for _, k := range Required {
		for _, alias := range k.Aliases {
			if alias == name {
				return k.Secret
			}
		}
	}
	upper := strings.ToUpper(name)
	for _, marker := range []string{"KEY", "TOKEN", "SECRET", "PASSWORD"} {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// Resolve extracts the required credentials from doc, falling back per key to
// its aliases (file first, then process environment). Missing keys are
// reported together in a single MissingKeysError naming canonical keys.
func Resolve(doc *envfile.Document) (*Credentials, error) {
	creds := &Credentials{}
	var missing []string

	fields := []struct {
		key  Key
		dest *string
	}{
		{AzureKey, &creds.AzureKey},
		{AzureEndpoint, &creds.AzureEndpoint},
		{AzureDeployment, &creds.AzureDeployment},
		{GithubToken, &creds.GithubToken},
	}

	for _, f := range fields {
		value, ok := resolveOne(doc, f.key)
		if !ok {
			missing = append(missing, f.key.Name)
			continue
		}
		*f.dest = value
	}

	if len(missing) > 0 {
		path := ""
		if doc != nil {
			path = doc.Path()
		}
		return nil, bencherrors.NewMissingKeysError(path, missing)
	}
	return creds, nil
}

// Validate checks that every required key resolves, without returning values.
func Validate(doc *envfile.Document) error {
	_, err := Resolve(doc)
	return err
}

// Missing returns the canonical names of required keys that do not resolve.
func Missing(doc *envfile.Document) []string {
	var missing []string
	for _, k := range Required {
		if _, ok := resolveOne(doc, k); !ok {
			missing = append(missing, k.Name)
		}
	}
	return missing
}

func resolveOne(doc *envfile.Document, key Key) (string, bool) {
	names := append([]string{key.Name}, key.Aliases...)
	for _, name := range names {
		if doc != nil {
			if v, ok := doc.Get(name); ok && v != "" {
				return v, true
			}
		}
	}
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v, true
		}
	}
	return "", false
}

// Redact masks a secret for display, keeping the first four characters as an
// identification hint. Values too short for a safe prefix are fully masked.
func Redact(value string) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= 8 {
		return strings.Repeat("*", 8)
	}
	return string(runes[:4]) + "…"
}

// Display renders a key's value for console output, redacting secrets unless
// reveal is set.
func Display(name, value string, reveal bool) string {
	if !reveal && IsSecret(name) {
		return Redact(value)
	}
	return value
}
