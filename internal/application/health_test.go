package application

import (
	"context"
	"testing"

	"github.com/jobrunner/granula/internal/domain"
)

func TestHealthServiceIsHealthy(t *testing.T) {
	service := NewHealthService(newTestMirror(t, &mockStorage{}))

	if !service.IsHealthy(context.Background()) {
		t.Error("IsHealthy() should return true")
	}
}

func TestHealthServiceGetHealthDetails(t *testing.T) {
	mirror := newTestMirror(t, &mockStorage{})
	writeFiles(t, mirror.localDir, "a.nc", "b.nc")

	if _, err := mirror.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	details := NewHealthService(mirror).GetHealthDetails(context.Background())

	if !details.Healthy {
		t.Error("expected healthy")
	}
	if details.LocalFiles != 2 || details.Mirrored != 2 {
		t.Errorf("details = %+v", details)
	}
	if details.Components["storage"] != "ok" {
		t.Errorf("storage component = %q", details.Components["storage"])
	}
}

func TestHealthServiceReportsStorageError(t *testing.T) {
	mirror := newTestMirror(t, &mockStorage{listErr: domain.ErrStorageUnavailable})
	_, _ = mirror.Sync(context.Background())

	details := NewHealthService(mirror).GetHealthDetails(context.Background())
	if details.Components["storage"] == "ok" {
		t.Error("storage component should report the sync error")
	}
}
