package keys

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	bencherrors "github.com/bch9248/benchctl/internal/errors"
	"github.com/bch9248/benchctl/internal/envfile"
)

func docWith(t *testing.T, pairs map[string]string) *envfile.Document {
	t.Helper()
	doc := envfile.New(filepath.Join(t.TempDir(), ".env"))
	for k, v := range pairs {
		require.NoError(t, doc.Set(k, v))
	}
	return doc
}

func TestResolve(t *testing.T) {
	t.Run("returns all four credentials when present", func(t *testing.T) {
		doc := docWith(t, map[string]string{
			"AZURE_OPENAI_KEY":        "sk-abcdef",
			"AZURE_OPENAI_ENDPOINT":   "https://res.openai.azure.com",
			"AZURE_OPENAI_DEPLOYMENT": "gpt-4",
			"GITHUB_TOKEN":            "ghp_123",
		})

		creds, err := Resolve(doc)
		require.NoError(t, err)
		require.Equal(t, "sk-abcdef", creds.AzureKey)
		require.Equal(t, "https://res.openai.azure.com", creds.AzureEndpoint)
		require.Equal(t, "gpt-4", creds.AzureDeployment)
		require.Equal(t, "ghp_123", creds.GithubToken)
	})

	t.Run("reports every missing key at once", func(t *testing.T) {
		// Make sure ambient fallbacks cannot satisfy the lookup.
		for _, k := range Required {
			t.Setenv(k.Name, "")
			for _, alias := range k.Aliases {
				t.Setenv(alias, "")
			}
		}

		doc := docWith(t, map[string]string{"AZURE_OPENAI_KEY": "sk-abcdef"})
		_, err := Resolve(doc)
		require.Error(t, err)
		require.ErrorIs(t, err, bencherrors.ErrMissingKey)

		var missing *bencherrors.MissingKeysError
		require.ErrorAs(t, err, &missing)
		require.Equal(t, []string{
			"AZURE_OPENAI_ENDPOINT",
			"AZURE_OPENAI_DEPLOYMENT",
			"GITHUB_TOKEN",
		}, missing.Keys)
	})

	t.Run("falls back to aliases in the file", func(t *testing.T) {
		for _, k := range Required {
			t.Setenv(k.Name, "")
			for _, alias := range k.Aliases {
				t.Setenv(alias, "")
			}
		}

		doc := docWith(t, map[string]string{
			"OPENAI_API_KEY":    "sk-alias",
			"OPENAI_API_BASE":   "https://alias.openai.azure.com",
			"OPENAI_DEPLOYMENT": "gpt-35",
			"GH_TOKEN":          "ghp_alias",
		})

		creds, err := Resolve(doc)
		require.NoError(t, err)
		require.Equal(t, "sk-alias", creds.AzureKey)
		require.Equal(t, "https://alias.openai.azure.com", creds.AzureEndpoint)
		require.Equal(t, "gpt-35", creds.AzureDeployment)
		require.Equal(t, "ghp_alias", creds.GithubToken)
	})

	t.Run("prefers the canonical key over aliases", func(t *testing.T) {
		doc := docWith(t, map[string]string{
			"AZURE_OPENAI_KEY":        "sk-canonical",
			"OPENAI_API_KEY":          "sk-alias",
			"AZURE_OPENAI_ENDPOINT":   "https://e",
			"AZURE_OPENAI_DEPLOYMENT": "d",
			"GITHUB_TOKEN":            "t",
		})

		creds, err := Resolve(doc)
		require.NoError(t, err)
		require.Equal(t, "sk-canonical", creds.AzureKey)
	})

	t.Run("falls back to the process environment", func(t *testing.T) {
		t.Setenv("AZURE_OPENAI_KEY", "sk-env")
		t.Setenv("AZURE_OPENAI_ENDPOINT", "https://env")
		t.Setenv("AZURE_OPENAI_DEPLOYMENT", "env-deploy")
		t.Setenv("GITHUB_TOKEN", "ghp_env")

		doc := docWith(t, nil)
		creds, err := Resolve(doc)
		require.NoError(t, err)
		require.Equal(t, "sk-env", creds.AzureKey)
		require.Equal(t, "ghp_env", creds.GithubToken)
	})

	t.Run("file value wins over environment", func(t *testing.T) {
		t.Setenv("AZURE_OPENAI_KEY", "sk-env")

		doc := docWith(t, map[string]string{
			"AZURE_OPENAI_KEY":        "sk-file",
			"AZURE_OPENAI_ENDPOINT":   "https://e",
			"AZURE_OPENAI_DEPLOYMENT": "d",
			"GITHUB_TOKEN":            "t",
		})

		creds, err := Resolve(doc)
		require.NoError(t, err)
		require.Equal(t, "sk-file", creds.AzureKey)
	})
}

func TestMissing(t *testing.T) {
	t.Run("lists unresolved keys in schema order", func(t *testing.T) {
		for _, k := range Required {
			t.Setenv(k.Name, "")
			for _, alias := range k.Aliases {
				t.Setenv(alias, "")
			}
		}

		doc := docWith(t, map[string]string{"GITHUB_TOKEN": "t"})
		require.Equal(t, []string{
			"AZURE_OPENAI_KEY",
			"AZURE_OPENAI_ENDPOINT",
			"AZURE_OPENAI_DEPLOYMENT",
		}, Missing(doc))
	})
}

func TestRedact(t *testing.T) {
	t.Parallel()

	t.Run("keeps a four character hint on long values", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "sk-a…", Redact("sk-abcdef123"))
	})

	t.Run("fully masks short values", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "********", Redact("short"))
	})

	t.Run("leaves empty values empty", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "", Redact(""))
	})
}

func TestIsSecret(t *testing.T) {
	t.Parallel()

	t.Run("flags schema secrets", func(t *testing.T) {
		t.Parallel()
		require.True(t, IsSecret("AZURE_OPENAI_KEY"))
		require.True(t, IsSecret("GITHUB_TOKEN"))
		require.False(t, IsSecret("AZURE_OPENAI_ENDPOINT"))
		require.False(t, IsSecret("AZURE_OPENAI_DEPLOYMENT"))
	})

	t.Run("flags aliases of secret keys", func(t *testing.T) {
		t.Parallel()
		require.True(t, IsSecret("OPENAI_API_KEY"))
		require.True(t, IsSecret("GH_TOKEN"))
	})

	t.Run("uses a name heuristic for unknown keys", func(t *testing.T) {
		t.Parallel()
		require.True(t, IsSecret("MY_SERVICE_SECRET"))
		require.True(t, IsSecret("DB_PASSWORD"))
		require.False(t, IsSecret("LOG_LEVEL"))
	})
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	t.Run("redacts secrets unless revealed", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "sk-a…", Display("AZURE_OPENAI_KEY", "sk-abcdef123", false))
		require.Equal(t, "sk-abcdef123", Display("AZURE_OPENAI_KEY", "sk-abcdef123", true))
		require.Equal(t, "https://e", Display("AZURE_OPENAI_ENDPOINT", "https://e", false))
	})
}
