package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Tuncayozalici/ONERI-sub000/internal/config"
	"github.com/Tuncayozalici/ONERI-sub000/internal/logging"
)

func writeScrapWorkbook(t *testing.T, dir string) {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()
	if err := wb.SetSheetName(wb.GetSheetName(0), "Fire"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	rows := [][]interface{}{
		{"Tarih", "Bölüm", "Malzeme", "Fire Nedeni", "Miktar"},
		{"18.02.2026", "Pres", "Sac", "Kesim", 4},
		{"18.02.2026", "Pres", "sac", "Çapak", 3},
		{"19.02.2026", "Kaynak", "Profil", "Kesim", 1},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := wb.SetSheetRow("Fire", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := wb.SaveAs(filepath.Join(dir, "fire_takip.xlsx")); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestServer_RefreshThenQuery(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SetBaseDir(t.TempDir())
	if _, err := config.EnsureDataDir(cfg); err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
	writeScrapWorkbook(t, cfg.WorkbookPath())

	srv, err := NewServer(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	h := srv.Handler()

	// 刷新之前：没有快照
	w := do(t, h, http.MethodGet, "/api/dashboards/scrap?date=2026-02-18")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "veri hazır değil") {
		t.Fatalf("before refresh: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/dashboards/scrap?date=2026-02-18")
	var resp struct {
		Data struct {
			TotalQuantity int    `json:"totalQuantity"`
			TopMaterial   string `json:"topMaterial"`
		} `json:"data"`
		Aux struct {
			Label  string `json:"label"`
			Notice string `json:"notice"`
		} `json:"aux"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	if resp.Data.TotalQuantity != 7 || resp.Data.TopMaterial != "Sac (7)" || resp.Aux.Notice != "" || resp.Aux.Label != "18.02.2026" {
		t.Fatalf("unexpected scrap dashboard: %+v", resp)
	}

	w = do(t, h, http.MethodGet, "/api/status")
	var status struct {
		Ready       bool `json:"ready"`
		TotalRows   int  `json:"totalRows"`
		LastRefresh struct {
			Status string `json:"status"`
		} `json:"lastRefresh"`
		Sources []struct {
			Source string `json:"source"`
			Status string `json:"status"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Ready || status.TotalRows != 3 || status.LastRefresh.Status != "succeeded" || len(status.Sources) != 11 {
		t.Fatalf("unexpected status: %s", w.Body.String())
	}

	if last := srv.Driver().LastResult(); last.SnapshotID == "" {
		t.Fatalf("driver did not record the snapshot: %+v", last)
	}
	if logs, err := srv.GetStore().RecentRefreshLogs(5); err != nil || len(logs) != 1 {
		t.Fatalf("RecentRefreshLogs = %v, %v", logs, err)
	}

	w = do(t, h, http.MethodGet, "/api/refresh/logs")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"succeeded"`) {
		t.Fatalf("refresh logs: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `oneri_refresh_cycles_total{status="succeeded"} 1`) {
		t.Fatalf("metrics missing refresh counter: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "oneri_snapshot_cache_hits_total") {
		t.Fatalf("metrics missing cache counters")
	}

	if w := do(t, h, http.MethodGet, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
}
