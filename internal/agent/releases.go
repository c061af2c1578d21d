package agent

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/bch9248/benchctl/internal/runner"
)

// Release is a published version of the agent tool.
type Release struct {
	Tag         string
	Name        string
	PublishedAt time.Time
	URL         string
}

// NewGitHubClient creates a GitHub API client. With an empty token the client
// is unauthenticated, which is enough for public release lookups at a lower
// rate limit.
func NewGitHubClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return github.NewClient(tc)
}

// ResolveToken finds a GitHub token without failing: the env-file value
// first, then the environment, then the gh CLI. Returns "" when none is
// available.
func ResolveToken(ctx context.Context, r runner.Runner, fromFile string) string {
	if fromFile != "" {
		return fromFile
	}
	if fromEnv := os.Getenv("GITHUB_TOKEN"); fromEnv != "" {
		return fromEnv
	}

	output, err := r.Run(ctx, "gh", "auth", "token")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(output)
}

// LatestRelease looks up the newest published release of ownerRepo.
func LatestRelease(ctx context.Context, client *github.Client, ownerRepo string) (*Release, error) {
	owner, name, err := SplitRepo(ownerRepo)
	if err != nil {
		return nil, err
	}

	release, _, err := client.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release of %s: %w", ownerRepo, err)
	}
	return convertRelease(release), nil
}

// ReleaseByTag looks up one release of ownerRepo by its tag.
func ReleaseByTag(ctx context.Context, client *github.Client, ownerRepo, tag string) (*Release, error) {
	owner, name, err := SplitRepo(ownerRepo)
	if err != nil {
		return nil, err
	}

	release, _, err := client.Repositories.GetReleaseByTag(ctx, owner, name, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release %s of %s: %w", tag, ownerRepo, err)
	}
	return convertRelease(release), nil
}

func convertRelease(release *github.RepositoryRelease) *Release {
	out := &Release{
		Tag:  release.GetTagName(),
		Name: release.GetName(),
		URL:  release.GetHTMLURL(),
	}
	if ts := release.PublishedAt; ts != nil {
		out.PublishedAt = ts.Time
	}
	return out
}

// VerifyToken makes a cheap authenticated call and returns the token's login.
func VerifyToken(ctx context.Context, client *github.Client) (string, error) {
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("token verification failed: %w", err)
	}
	return user.GetLogin(), nil
}
