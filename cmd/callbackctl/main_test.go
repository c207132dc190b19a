package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ArowuTest/topup-callback/internal/services"
	pkgjwt "github.com/ArowuTest/topup-callback/pkg/jwt"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestSignCommand(t *testing.T) {
	path := writeConfig(t, "provider:\n  partner_id: p1\n  secret_key: s3cret\n")

	out, err := execute(t, "--config", path, "sign", "--code", "123", "--serial", "456")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if want := services.SignPayload("s3cret", "123", "456"); out != want {
		t.Fatalf("expected %s, got %q", want, out)
	}

	if _, err := execute(t, "--config", path, "sign", "--code", "123"); err == nil {
		t.Fatalf("expected error without --serial")
	}
}

func TestTokenCommand(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: cli-secret\n")

	out, err := execute(t, "--config", path, "token", "--subject", "shop")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	claims, err := pkgjwt.NewTokenService("cli-secret", 0).Parse(out)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != "shop" || !claims.HasScope(pkgjwt.ScopeIntake) {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestImportAndStatusCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, "store:\n  driver: sqlite\nsqlite:\n  path: "+filepath.Join(dir, "topup.db")+"\nprovider:\n  partner_id: p1\n  secret_key: s3cret\n")
	csvPath := filepath.Join(dir, "requests.csv")
	csv := "request_id,owner_ref,telco,denomination\nR1,100,viettel,10000\nR2,101,mobifone,20000\nR1,100,viettel,10000\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out, err := execute(t, "--config", cfgPath, "import", csvPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var result struct {
		Created    int `json:"created"`
		Duplicates int `json:"duplicates"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if result.Created != 2 || result.Duplicates != 1 {
		t.Fatalf("unexpected import result %+v", result)
	}

	out, err = execute(t, "--config", cfgPath, "status", "R2")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, `"status": "pending"`) {
		t.Fatalf("unexpected status output %s", out)
	}

	if _, err := execute(t, "--config", cfgPath, "status", "missing"); err == nil {
		t.Fatalf("expected error for unknown request")
	}
}
