// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakePrompter answers prompts from fixed values.
type fakePrompter struct {
	email, password string
	asked           []string
}

func (p *fakePrompter) Line(prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	if p.email == "" {
		return "", errors.New("EOF")
	}
	return p.email, nil
}

func (p *fakePrompter) Password(prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	if p.password == "" {
		return "", errors.New("EOF")
	}
	return p.password, nil
}

// isolate points every storefront path at a temp dir and clears env
// overrides that would leak in from the developer's shell.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("STOREFRONT_HOME", home)
	for _, k := range []string{"STOREFRONT_API_URL", "STOREFRONT_EMAIL", PasswordEnv,
		"STOREFRONT_IDLE_TIMEOUT", "STOREFRONT_WARNING_LEAD", "STOREFRONT_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return home
}

func run(t *testing.T, p prompter, args ...string) (string, error) {
	t.Helper()
	if p == nil {
		p = &fakePrompter{}
	}
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&env{in: strings.NewReader(""), out: &out, errOut: &errOut, prompt: p})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) JSONResponse {
	t.Helper()
	var resp JSONResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	return resp
}

// =============================================================================
// COMMAND TREE
// =============================================================================

func TestNewRootCmd_RegistersSubcommandsAndVersion(t *testing.T) {
	oldV := Version
	Version = "v9.9.9"
	defer func() { Version = oldV }()

	cmd := NewRootCmd()
	if !strings.Contains(cmd.Version, "v9.9.9") {
		t.Fatalf("expected version to contain v9.9.9, got %s", cmd.Version)
	}

	for _, n := range []string{"warnings", "config", "audit", "orders", "version"} {
		found := false
		for _, c := range cmd.Commands() {
			if c.Name() == n {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %s to be registered", n)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	isolate(t)
	out, err := run(t, nil, "version", "--json")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	resp := decodeResponse(t, out)
	if !resp.Success || resp.Command != "version" {
		t.Errorf("unexpected response: %+v", resp)
	}
	data := resp.Data.(map[string]interface{})
	if data["version"] != Version {
		t.Errorf("version = %v, want %s", data["version"], Version)
	}
}

// =============================================================================
// WARNINGS
// =============================================================================

func TestWarnings_Toggle(t *testing.T) {
	home := isolate(t)

	out, err := run(t, nil, "warnings", "--json")
	if err != nil {
		t.Fatalf("warnings status failed: %v", err)
	}
	data := decodeResponse(t, out).Data.(map[string]interface{})
	if data["warnings_enabled"] != true {
		t.Errorf("warnings should default to on, got %v", data["warnings_enabled"])
	}

	if _, err := run(t, nil, "warnings", "off"); err != nil {
		t.Fatalf("warnings off failed: %v", err)
	}
	out, err = run(t, nil, "warnings", "status", "--json")
	if err != nil {
		t.Fatalf("warnings status failed: %v", err)
	}
	data = decodeResponse(t, out).Data.(map[string]interface{})
	if data["warnings_enabled"] != false {
		t.Errorf("warnings should be off after 'warnings off'")
	}
	if path, _ := data["prefs_path"].(string); !strings.HasPrefix(path, home) {
		t.Errorf("prefs path %q should be inside %q", path, home)
	}

	out, err = run(t, nil, "warnings", "on")
	if err != nil {
		t.Fatalf("warnings on failed: %v", err)
	}
	if !strings.Contains(out, "on") {
		t.Errorf("expected human output to show the new state, got %q", out)
	}
}

func TestWarnings_UnknownAction(t *testing.T) {
	isolate(t)
	if _, err := run(t, nil, "warnings", "maybe"); err == nil {
		t.Fatal("expected an error for an unknown action")
	}
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigPath(t *testing.T) {
	home := isolate(t)
	out, err := run(t, nil, "config", "path")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if got, want := strings.TrimSpace(out), filepath.Join(home, "config.toml"); got != want {
		t.Errorf("config path = %q, want %q", got, want)
	}
}

func TestConfigSetGet(t *testing.T) {
	isolate(t)
	if _, err := run(t, nil, "config", "set", "session.idle_timeout_secs", "600"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	out, err := run(t, nil, "config", "get", "session.idle_timeout_secs")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out) != "600" {
		t.Errorf("config get = %q, want 600", out)
	}
}

func TestConfigSet_RejectsInvalid(t *testing.T) {
	isolate(t)
	if _, err := run(t, nil, "config", "set", "ui.theme", "neon"); err == nil {
		t.Fatal("expected an invalid theme to be rejected")
	}
}

func TestConfigValidate_ReportsAllErrors(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.toml")
	bad := "[api]\nbase_url = \"ftp://example.com\"\n\n[ui]\ntheme = \"neon\"\n"
	if err := os.WriteFile(path, []byte(bad), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, nil, "config", "validate", "--json")
	if err == nil {
		t.Fatal("expected validate to fail")
	}
	resp := decodeResponse(t, out)
	if resp.Success {
		t.Error("response should report failure")
	}

	out, _ = run(t, nil, "config", "validate")
	if !strings.Contains(out, "api.base_url") || !strings.Contains(out, "ui.theme") {
		t.Errorf("expected both errors to be listed, got:\n%s", out)
	}
}

func TestConfigValidate_DefaultsAreValid(t *testing.T) {
	isolate(t)
	out, err := run(t, nil, "config", "validate")
	if err != nil {
		t.Fatalf("validate failed on defaults: %v", err)
	}
	if !strings.Contains(out, "valid") {
		t.Errorf("unexpected output: %q", out)
	}
}

// =============================================================================
// AUDIT AND ORDERS
// =============================================================================

func TestAudit_Empty(t *testing.T) {
	isolate(t)
	out, err := run(t, nil, "audit")
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if !strings.Contains(out, "No session events") {
		t.Errorf("unexpected output: %q", out)
	}
}

// newStore serves a one-order backend.
func newStore(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	order := map[string]interface{}{
		"id":        "ord_1",
		"number":    "1001",
		"status":    "delivered",
		"placed_at": time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		"items": []map[string]interface{}{
			{"sku": "TEA-1", "name": "Green tea", "quantity": 2, "unit_price": map[string]interface{}{"amount": 450, "currency": "USD"}},
		},
		"total": map[string]interface{}{"amount": 900, "currency": "USD"},
	}
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]interface{}{
			"token": "tok",
			"user":  map[string]interface{}{"id": "u1", "email": "ada@example.com", "name": "Ada"},
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]interface{}{"orders": []interface{}{order}})
	})
	mux.HandleFunc("/orders/ord_1", func(w http.ResponseWriter, r *http.Request) {
		write(w, order)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOrdersList_RecordsSession(t *testing.T) {
	isolate(t)
	srv := newStore(t)
	t.Setenv("STOREFRONT_API_URL", srv.URL)
	t.Setenv(PasswordEnv, "secret")

	out, err := run(t, nil, "orders", "list", "--email", "ada@example.com", "--json")
	if err != nil {
		t.Fatalf("orders list failed: %v", err)
	}
	data := decodeResponse(t, out).Data.(map[string]interface{})
	if data["count"] != float64(1) {
		t.Errorf("count = %v, want 1", data["count"])
	}

	out, err = run(t, nil, "audit", "--json")
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	events := decodeResponse(t, out).Data.(map[string]interface{})["events"].([]interface{})
	var types []string
	for _, ev := range events {
		types = append(types, ev.(map[string]interface{})["event_type"].(string))
	}
	joined := strings.Join(types, ",")
	if !strings.Contains(joined, "SESSION_LOGIN") || !strings.Contains(joined, "SESSION_LOGOUT") {
		t.Errorf("expected login and logout events, got %v", types)
	}
}

func TestOrdersList_PromptsForCredentials(t *testing.T) {
	isolate(t)
	srv := newStore(t)
	t.Setenv("STOREFRONT_API_URL", srv.URL)

	p := &fakePrompter{email: "ada@example.com", password: "secret"}
	out, err := run(t, p, "orders", "list")
	if err != nil {
		t.Fatalf("orders list failed: %v", err)
	}
	if len(p.asked) != 2 {
		t.Errorf("expected e-mail and password prompts, got %v", p.asked)
	}
	if !strings.Contains(out, "1001") {
		t.Errorf("expected the order number in output, got:\n%s", out)
	}
}

func TestOrdersList_NoCredentials(t *testing.T) {
	isolate(t)
	if _, err := run(t, nil, "orders", "list"); err == nil {
		t.Fatal("expected an error without credentials")
	}
}

func TestOrdersReceipt_PlainOutput(t *testing.T) {
	isolate(t)
	srv := newStore(t)
	t.Setenv("STOREFRONT_API_URL", srv.URL)
	t.Setenv(PasswordEnv, "secret")

	out, err := run(t, nil, "orders", "receipt", "ord_1", "--email", "ada@example.com")
	if err != nil {
		t.Fatalf("orders receipt failed: %v", err)
	}
	if !strings.Contains(out, "1001") || !strings.Contains(out, "Green tea") {
		t.Errorf("receipt missing order details:\n%s", out)
	}
}

func TestOrdersExport_WritesFile(t *testing.T) {
	isolate(t)
	srv := newStore(t)
	t.Setenv("STOREFRONT_API_URL", srv.URL)
	t.Setenv(PasswordEnv, "secret")
	dir := t.TempDir()

	out, err := run(t, nil, "orders", "export", "--email", "ada@example.com", "--format", "json", "--out", dir, "--json")
	if err != nil {
		t.Fatalf("orders export failed: %v", err)
	}
	data := decodeResponse(t, out).Data.(map[string]interface{})
	path, _ := data["path"].(string)
	if filepath.Dir(path) != dir {
		t.Errorf("export path %q not in %q", path, dir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{49 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestValidateOutputPath_RejectsTraversal(t *testing.T) {
	if _, err := ValidateOutputPath("../../etc"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}
