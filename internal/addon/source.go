package addon

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/nightwatch-dev/nwupd/internal/archive"
)

// githubScheme prefixes manifest links that name a GitHub repository
// instead of a direct download URL: github:owner/repo or
// github:owner/repo@tag.
const githubScheme = "github:"

// Resolver turns a manifest source link into a directly fetchable URL.
type Resolver interface {
	Resolve(ctx context.Context, link string) (string, error)
}

// DirectResolver passes links through untouched. It is the resolver for
// manifests that only carry plain URLs.
type DirectResolver struct{}

func (DirectResolver) Resolve(_ context.Context, link string) (string, error) {
	if strings.HasPrefix(link, githubScheme) {
		return "", fmt.Errorf("github release links are not supported without a GitHub resolver: %s", link)
	}
	return link, nil
}

// GitHubResolver resolves github:owner/repo links to the first archive
// asset of the named (or latest) release. Plain URLs pass through.
type GitHubResolver struct {
	client *github.Client
}

// NewGitHubResolver builds a resolver over the given HTTP client. A
// non-empty token authenticates API calls, which raises the rate limit
// and allows private repositories.
func NewGitHubResolver(base *http.Client, token string) *GitHubResolver {
	hc := base
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		hc = oauth2.NewClient(ctx, src)
	}
	return &GitHubResolver{client: github.NewClient(hc)}
}

// WithBaseURL points API calls at an alternate endpoint. Tests use it to
// target an httptest server. The URL must end in a slash.
func (r *GitHubResolver) WithBaseURL(rawURL string) error {
	u, err := r.client.BaseURL.Parse(rawURL)
	if err != nil {
		return err
	}
	r.client.BaseURL = u
	return nil
}

func (r *GitHubResolver) Resolve(ctx context.Context, link string) (string, error) {
	if !strings.HasPrefix(link, githubScheme) {
		return link, nil
	}

	ref := strings.TrimPrefix(link, githubScheme)
	repoPart, tag, _ := strings.Cut(ref, "@")
	owner, repo, ok := strings.Cut(repoPart, "/")
	if !ok || owner == "" || repo == "" {
		return "", fmt.Errorf("malformed github link %q, want github:owner/repo[@tag]", link)
	}

	var (
		release *github.RepositoryRelease
		err     error
	)
	if tag == "" {
		release, _, err = r.client.Repositories.GetLatestRelease(ctx, owner, repo)
	} else {
		release, _, err = r.client.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve release for %s/%s: %w", owner, repo, err)
	}

	for _, asset := range release.Assets {
		if archive.DetectFormat(asset.GetName()) != "" {
			return asset.GetBrowserDownloadURL(), nil
		}
	}
	return "", fmt.Errorf("release %s of %s/%s has no archive asset", release.GetTagName(), owner, repo)
}
