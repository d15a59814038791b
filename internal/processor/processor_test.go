package processor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tag = "2024.06.01"

func createArchive(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func serve(t *testing.T, routes map[string][]byte) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files left behind")
}

func TestProcess(t *testing.T) {
	metadata := []byte(`{
		"versions": [
			{"version": "2024.05.01", "status": "stable", "kicad_version": "7.0"},
			{"version": "2024.06.01", "status": "testing", "kicad_version": "8.0.2"}
		]
	}`)
	data := createArchive(t, map[string][]byte{
		"metadata.json":         metadata,
		"symbols/lib.kicad_sym": bytes.Repeat([]byte("x"), 1000),
	})
	srv := serve(t, map[string][]byte{"/lib.zip": data})

	tmp := t.TempDir()
	p := NewAssetProcessor(srv.Client(), tmp)

	meta, err := p.Process(context.Background(), tag, models.Asset{
		Name:        "JLCPCB-KiCad-Library-2024.06.01.zip",
		DownloadURL: srv.URL + "/lib.zip",
	})
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), meta.SHA256)
	assert.Equal(t, int64(len(data)), meta.DownloadSize)
	assert.Equal(t, int64(len(metadata)+1000), meta.InstallSize)
	assert.Equal(t, "testing", meta.Status)
	assert.Equal(t, "8.0.2", meta.KiCadVersion)

	assertEmptyDir(t, tmp)
}

func TestProcessMetadataDefaults(t *testing.T) {
	cases := map[string]map[string][]byte{
		"MissingMetadata": {"lib.kicad_sym": []byte("lib")},
		"NoMatchingVersion": {
			"metadata.json": []byte(`{"versions": [{"version": "1.0", "status": "testing", "kicad_version": "7.0"}]}`),
		},
		"MalformedMetadata": {"metadata.json": []byte(`{"versions": [`)},
		"InvalidFields": {
			"metadata.json": []byte(`{"versions": [{"version": "2024.06.01", "status": "bogus", "kicad_version": "not a version"}]}`),
		},
		"EmptyFields": {
			"metadata.json": []byte(`{"versions": [{"version": "2024.06.01"}]}`),
		},
	}

	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, map[string][]byte{"/lib.zip": createArchive(t, files)})
			p := NewAssetProcessor(srv.Client(), t.TempDir())

			meta, err := p.Process(context.Background(), tag, models.Asset{
				Name:        "lib.zip",
				DownloadURL: srv.URL + "/lib.zip",
			})
			require.NoError(t, err)
			assert.Equal(t, models.DefaultStatus, meta.Status)
			assert.Equal(t, models.DefaultKiCadVersion, meta.KiCadVersion)
		})
	}
}

func TestProcessFailures(t *testing.T) {
	srv := serve(t, map[string][]byte{
		"/corrupt.zip": []byte("definitely not a zip archive"),
		"/blob":        []byte("no recognizable magic"),
	})

	for name, asset := range map[string]models.Asset{
		"NotFound":       {Name: "lib.zip", DownloadURL: srv.URL + "/missing.zip"},
		"CorruptArchive": {Name: "lib.zip", DownloadURL: srv.URL + "/corrupt.zip"},
		"UnknownFormat":  {Name: "lib", DownloadURL: srv.URL + "/blob"},
		"BadURL":         {Name: "lib.zip", DownloadURL: "http://[::1]:namedport/lib.zip"},
	} {
		t.Run(name, func(t *testing.T) {
			tmp := t.TempDir()
			p := NewAssetProcessor(srv.Client(), tmp)

			meta, err := p.Process(context.Background(), tag, asset)
			assert.Nil(t, meta)
			require.Error(t, err)
			assert.True(t, models.IsType(err, models.ErrAsset))

			assertEmptyDir(t, tmp)
		})
	}
}

func TestDownloadCleanup(t *testing.T) {
	srv := serve(t, map[string][]byte{"/asset": []byte("payload")})
	tmp := t.TempDir()

	path, cleanup, err := Download(context.Background(), srv.Client(), tmp, srv.URL+"/asset")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// A second cleanup is harmless
	cleanup()
	assertEmptyDir(t, tmp)
}

func TestDownloadCanceled(t *testing.T) {
	srv := serve(t, map[string][]byte{"/asset": []byte("payload")})
	tmp := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, cleanup, err := Download(ctx, srv.Client(), tmp, srv.URL+"/asset")
	assert.Error(t, err)
	assert.Nil(t, cleanup)
	assertEmptyDir(t, tmp)
}
