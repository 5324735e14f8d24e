package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jobrunner/granula/internal/domain"
)

func TestBatchCommandsCheckDirFirst(t *testing.T) {
	t.Chdir(t.TempDir())

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Header().Set("CMR-Hits", "0")
	}))
	defer srv.Close()

	missing := filepath.Join(t.TempDir(), "missing")
	common := []string{
		"--dir", missing,
		"--netrc", filepath.Join(t.TempDir(), "netrc"),
		"--prompt=false",
		"--progress=false",
	}

	tests := []struct {
		name string
		args []string
	}{
		{"download", append([]string{"download", "--short-name", "X", "--cmr-endpoint", srv.URL}, common...)},
		{"fetch", append([]string{"fetch", srv.URL + "/data/a.nc"}, common...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests.Store(0)
			rootCmd.SetArgs(tt.args)
			rootCmd.SetOut(io.Discard)
			defer rootCmd.SetArgs(nil)

			err := rootCmd.Execute()
			if !errors.Is(err, domain.ErrOutputDirMissing) {
				t.Fatalf("Execute() error = %v, want ErrOutputDirMissing", err)
			}
			if n := requests.Load(); n != 0 {
				t.Errorf("server saw %d requests, want 0", n)
			}
		})
	}
}
