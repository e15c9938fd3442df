// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/sessiond/internal/api"
	"github.com/ManuGH/sessiond/internal/config"
	"github.com/ManuGH/sessiond/internal/initiator"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg := config.Defaults()
	cfg.AppID = "com.example.app"
	cfg.DataDir = t.TempDir()
	cfg.Lifecycle.Signals = false
	return cfg
}

func getSession(t *testing.T, h http.Handler) (api.SessionResponse, int) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
	var resp api.SessionResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return resp, w.Code
}

func postLifecycle(t *testing.T, h http.Handler, event string) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/lifecycle/"+event, nil))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
}

func TestApp_ColdStart(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	resp, code := getSession(t, a.Handler())
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 0, resp.Session.SessionIndex)
	require.Len(t, resp.Session.SessionID, 32)
	require.Equal(t, resp.Session.SessionID, resp.Session.FirstSessionID)
	require.Equal(t, initiator.PhaseRunning, resp.Initiator.Phase)

	_, err = os.Stat(filepath.Join(cfg.DataDir, "installation_id"))
	require.NoError(t, err)
}

func TestApp_ShortBackgroundKeepsSession(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()
	h := a.Handler()

	first, _ := getSession(t, h)

	postLifecycle(t, h, "background")
	require.Eventually(t, func() bool {
		return a.initiator.Status().Visibility == initiator.Background
	}, 2*time.Second, 5*time.Millisecond)

	postLifecycle(t, h, "foreground")
	require.Eventually(t, func() bool {
		return a.initiator.Status().Visibility == initiator.Foreground
	}, 2*time.Second, 5*time.Millisecond)

	after, _ := getSession(t, h)
	require.Equal(t, first.Session.SessionID, after.Session.SessionID)
	require.Equal(t, 0, after.Session.SessionIndex)
}

func TestApp_LongBackgroundStartsSession(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Timeout = time.Millisecond
	a, err := newApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()
	h := a.Handler()

	first, _ := getSession(t, h)

	postLifecycle(t, h, "background")
	require.Eventually(t, func() bool {
		return a.initiator.Status().Visibility == initiator.Background
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	postLifecycle(t, h, "become-active")
	require.Eventually(t, func() bool {
		resp, _ := getSession(t, h)
		return resp.Session.SessionIndex == 1
	}, 2*time.Second, 5*time.Millisecond)

	after, _ := getSession(t, h)
	require.NotEqual(t, first.Session.SessionID, after.Session.SessionID)
	require.Equal(t, first.Session.SessionID, after.Session.PreviousSessionID)
	require.Equal(t, first.Session.SessionID, after.Session.FirstSessionID)
}

func TestApp_RejectsBadDispatch(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Dispatch = "later"
	_, err := newApp(context.Background(), cfg, nil)
	require.ErrorIs(t, err, initiator.ErrUnknownDispatch)
}

func TestApp_ReadyAfterStart(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"initiator"`)
}
