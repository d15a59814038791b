package releases

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/google/go-github/v61/github"
	"github.com/sirupsen/logrus"
)

// DefaultUserAgent identifies the tool to the GitHub API
const DefaultUserAgent = "kicad-repo-sync"

// pageSize is the largest page the releases endpoint serves
const pageSize = 100

// GitHubSource implements Source using the GitHub REST API
type GitHubSource struct {
	client *github.Client
	owner  string
	repo   string
}

// GitHubOption configures a GitHubSource
type GitHubOption func(*GitHubSource) error

// WithToken authenticates requests with a personal access token
func WithToken(token string) GitHubOption {
	return func(s *GitHubSource) error {
		if token != "" {
			s.client = s.client.WithAuthToken(token)
		}
		return nil
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) GitHubOption {
	return func(s *GitHubSource) error {
		if ua != "" {
			s.client.UserAgent = ua
		}
		return nil
	}
}

// WithBaseURL points the source at another API root, such as a test server
func WithBaseURL(baseURL string) GitHubOption {
	return func(s *GitHubSource) error {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		s.client.BaseURL = u
		return nil
	}
}

// NewGitHubSource creates a new GitHub release source for owner/repo
func NewGitHubSource(httpClient *http.Client, owner, repo string, opts ...GitHubOption) (*GitHubSource, error) {
	client := github.NewClient(httpClient)
	client.UserAgent = DefaultUserAgent

	s := &GitHubSource{
		client: client,
		owner:  owner,
		repo:   repo,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, models.NewError(models.ErrInvalidConfig, "github", err)
		}
	}

	return s, nil
}

// Releases lists every release of the repository, following pagination
func (s *GitHubSource) Releases(ctx context.Context) ([]models.Release, error) {
	subject := fmt.Sprintf("%s/%s", s.owner, s.repo)
	opts := &github.ListOptions{PerPage: pageSize}

	var releases []models.Release
	for {
		logrus.Debugf("Fetching releases of %s (page %d)", subject, max(opts.Page, 1))

		page, resp, err := s.client.Repositories.ListReleases(ctx, s.owner, s.repo, opts)
		if err != nil {
			return nil, models.NewError(models.ErrFetch, subject, fmt.Errorf("failed to list releases: %w", err))
		}

		for _, r := range page {
			releases = append(releases, convertRelease(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logrus.Infof("Fetched %d releases of %s", len(releases), subject)
	return releases, nil
}

func convertRelease(r *github.RepositoryRelease) models.Release {
	release := models.Release{
		Tag:    r.GetTagName(),
		Assets: make([]models.Asset, 0, len(r.Assets)),
	}

	for _, a := range r.Assets {
		release.Assets = append(release.Assets, models.Asset{
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
		})
	}

	return release
}
