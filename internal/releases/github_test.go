package releases

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const releasesPath = "/repos/CDFER/JLCPCB-Kicad-Library/releases"

var pages = map[string]string{
	"": `[
		{"tag_name": "2024.06.01", "assets": [
			{"name": "JLCPCB-KiCad-Library-2024.06.01.zip", "browser_download_url": "https://example.com/2024.06.01.zip"},
			{"name": "checksums.txt", "browser_download_url": "https://example.com/checksums.txt"}
		]},
		{"tag_name": "2024.05.01", "assets": []}
	]`,
	"2": `[
		{"tag_name": "2024.04.01", "assets": [
			{"name": "JLCPCB-KiCad-Library-2024.04.01.zip", "browser_download_url": "https://example.com/2024.04.01.zip"}
		]},
		{"assets": []}
	]`,
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubSourceReleases(t *testing.T) {
	var userAgents, apiVersions, accepts, auths []string

	var srv *httptest.Server
	srv = newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != releasesPath {
			http.NotFound(w, r)
			return
		}
		userAgents = append(userAgents, r.Header.Get("User-Agent"))
		apiVersions = append(apiVersions, r.Header.Get("X-GitHub-Api-Version"))
		accepts = append(accepts, r.Header.Get("Accept"))
		auths = append(auths, r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		page := r.URL.Query().Get("page")
		body, ok := pages[page]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if page == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s%s?page=2&per_page=100>; rel="next"`, srv.URL, releasesPath))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})

	src, err := NewGitHubSource(srv.Client(), "CDFER", "JLCPCB-Kicad-Library",
		WithBaseURL(srv.URL),
		WithToken("secret"),
	)
	require.NoError(t, err)

	releases, err := src.Releases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.Release{
		{Tag: "2024.06.01", Assets: []models.Asset{
			{Name: "JLCPCB-KiCad-Library-2024.06.01.zip", DownloadURL: "https://example.com/2024.06.01.zip"},
			{Name: "checksums.txt", DownloadURL: "https://example.com/checksums.txt"},
		}},
		{Tag: "2024.05.01", Assets: []models.Asset{}},
		{Tag: "2024.04.01", Assets: []models.Asset{
			{Name: "JLCPCB-KiCad-Library-2024.04.01.zip", DownloadURL: "https://example.com/2024.04.01.zip"},
		}},
		{Tag: "", Assets: []models.Asset{}},
	}, releases)

	require.Len(t, userAgents, 2)
	for i := range userAgents {
		assert.Equal(t, DefaultUserAgent, userAgents[i])
		assert.NotEmpty(t, apiVersions[i])
		assert.Contains(t, accepts[i], "application/vnd.github")
		assert.Equal(t, "Bearer secret", auths[i])
	}
}

func TestGitHubSourceUserAgent(t *testing.T) {
	var got string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		fmt.Fprint(w, `[]`)
	})

	src, err := NewGitHubSource(srv.Client(), "o", "r", WithBaseURL(srv.URL), WithUserAgent("custom/1.0"))
	require.NoError(t, err)

	releases, err := src.Releases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, releases)
	assert.Equal(t, "custom/1.0", got)
}

func TestGitHubSourceFailures(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"NotFound": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "Not Found"}`)
		},
		"ServerError": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"MalformedBody": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"not": "an array"`)
		},
	} {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, handler)

			src, err := NewGitHubSource(srv.Client(), "o", "r", WithBaseURL(srv.URL))
			require.NoError(t, err)

			releases, err := src.Releases(context.Background())
			assert.Nil(t, releases)
			require.Error(t, err)
			assert.True(t, models.IsType(err, models.ErrFetch))
		})
	}

	t.Run("Unreachable", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
		url := srv.URL
		srv.Close()

		src, err := NewGitHubSource(nil, "o", "r", WithBaseURL(url))
		require.NoError(t, err)

		_, err = src.Releases(context.Background())
		assert.True(t, models.IsType(err, models.ErrFetch))
	})
}

func TestWithBaseURLInvalid(t *testing.T) {
	_, err := NewGitHubSource(nil, "o", "r", WithBaseURL("://bad"))
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrInvalidConfig))
}
