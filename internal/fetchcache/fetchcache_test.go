package fetchcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecraft/recipeforge/internal/artifact"
	"github.com/forgecraft/recipeforge/internal/log"
)

func TestBuildDownloadsOnMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	buildFolder := t.TempDir()
	normalized, err := artifact.NormalizeURL(srv.URL + "/data.csv")
	require.NoError(t, err)
	f := &artifact.Fetch{URL: normalized}

	c := New(5*time.Second, log.NewNoop())
	require.NoError(t, c.Build(context.Background(), f, buildFolder, false))

	content, err := os.ReadFile(f.BuildPath(buildFolder))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

func TestBuildSkipsOnCacheHit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	buildFolder := t.TempDir()
	normalized, err := artifact.NormalizeURL(srv.URL + "/data.csv")
	require.NoError(t, err)
	f := &artifact.Fetch{URL: normalized}

	c := New(5*time.Second, log.NewNoop())
	require.NoError(t, c.Build(context.Background(), f, buildFolder, false))
	require.NoError(t, c.Build(context.Background(), f, buildFolder, false))

	assert.Equal(t, 1, calls, "second build should be a cache hit, no second download")
}

func TestBuildOverrideForcesRedownload(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	buildFolder := t.TempDir()
	normalized, err := artifact.NormalizeURL(srv.URL + "/data.csv")
	require.NoError(t, err)
	f := &artifact.Fetch{URL: normalized}

	c := New(5*time.Second, log.NewNoop())
	require.NoError(t, c.Build(context.Background(), f, buildFolder, false))
	require.NoError(t, c.Build(context.Background(), f, buildFolder, true))

	assert.Equal(t, 2, calls)
}

func TestBuildDeletesPartialFileOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	buildFolder := t.TempDir()
	normalized, err := artifact.NormalizeURL(srv.URL + "/data.csv")
	require.NoError(t, err)
	f := &artifact.Fetch{URL: normalized}

	c := New(5*time.Second, log.NewNoop())
	err = c.Build(context.Background(), f, buildFolder, false)
	require.Error(t, err)

	_, statErr := os.Stat(f.BuildPath(buildFolder))
	assert.True(t, os.IsNotExist(statErr), "partial/failed download must not leave a cache file behind")
}

func TestBuildUsesCachePathDerivedFromURL(t *testing.T) {
	buildFolder := t.TempDir()
	f := &artifact.Fetch{URL: "https://example.com/data.csv"}

	want := filepath.Join(buildFolder, "fetch_cache", artifact.CacheKey(f.URL))
	assert.Equal(t, want, f.BuildPath(buildFolder))
}
