// Package agent manages the external agent tool benchctl drives: its git
// checkout, its GitHub releases, and the batch command line it is launched
// with.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	bencherrors "github.com/bch9248/benchctl/internal/errors"
)

// CheckoutStatus describes the state of an agent checkout.
type CheckoutStatus struct {
	Path   string
	Ref    string
	Branch string
	Dirty  bool
}

// CloneURL returns the HTTPS clone URL for an owner/name repository.
func CloneURL(ownerRepo string) string {
	return fmt.Sprintf("https://github.com/%s.git", ownerRepo)
}

func cloneAuth(token string) *githttp.BasicAuth {
	if token == "" {
		return nil
	}
	// GitHub accepts any username when the token is supplied as the password.
	return &githttp.BasicAuth{Username: "x-access-token", Password: token}
}

// openCheckout opens the repository at dir, mapping absence onto
// ErrCheckoutMissing.
func openCheckout(dir string) (*gogit.Repository, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", dir, bencherrors.ErrCheckoutMissing)
	}

	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s is not a git repository: %w", dir, bencherrors.ErrCheckoutMissing)
		}
		return nil, fmt.Errorf("failed to open agent checkout: %w", err)
	}
	return repo, nil
}

// Status reports the HEAD revision, branch and cleanliness of the checkout.
func Status(dir string) (*CheckoutStatus, error) {
	repo, err := openCheckout(dir)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	status := &CheckoutStatus{
		Path: dir,
		Ref:  head.Hash().String()[:12],
	}
	if head.Name().IsBranch() {
		status.Branch = head.Name().Short()
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	wtStatus, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	status.Dirty = !wtStatus.IsClean()

	return status, nil
}

// Clone clones the agent repository into dir. When ref is non-empty the
// checkout is switched to it after cloning; ref may be a tag, branch or SHA.
func Clone(ctx context.Context, dir, ownerRepo, ref, token string, progress io.Writer) error {
	_, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:      CloneURL(ownerRepo),
		Auth:     cloneAuth(token),
		Progress: progress,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", ownerRepo, err)
	}

	if ref == "" {
		return nil
	}
	return CheckoutRef(dir, ref)
}

// CheckoutRef moves the checkout to ref (tag, branch or SHA), detached.
func CheckoutRef(dir, ref string) error {
	repo, err := openCheckout(dir)
	if err != nil {
		return err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("failed to resolve ref %q: %w", ref, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := worktree.Checkout(&gogit.CheckoutOptions{Hash: *hash}); err != nil {
		return fmt.Errorf("failed to check out %q: %w", ref, err)
	}
	return nil
}

// Update fast-forwards an existing checkout from its origin remote. An
// already up to date checkout is not an error.
func Update(ctx context.Context, dir, token string, progress io.Writer) error {
	repo, err := openCheckout(dir)
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		RemoteName: "origin",
		Auth:       cloneAuth(token),
		Progress:   progress,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to update agent checkout: %w", err)
	}
	return nil
}

// InstalledVersion reads the agent version out of the checkout's HEAD when it
// sits on a tag, falling back to the short SHA.
func InstalledVersion(dir string) (string, error) {
	repo, err := openCheckout(dir)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	tags, err := repo.Tags()
	if err == nil {
		version := ""
		_ = tags.ForEach(func(ref *plumbing.Reference) error {
			if ref.Hash() == head.Hash() {
				version = ref.Name().Short()
			}
			return nil
		})
		if version != "" {
			return version, nil
		}
	}

	return head.Hash().String()[:12], nil
}

// SplitRepo splits an "owner/name" spec.
func SplitRepo(ownerRepo string) (string, string, error) {
	parts := strings.Split(ownerRepo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q (expected owner/name)", ownerRepo)
	}
	return parts[0], parts[1], nil
}
