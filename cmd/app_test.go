package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rhfolio/rhfolio"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("ROBINHOOD_USER", "user@example.com")
	t.Setenv("ROBINHOOD_PASS", "hunter2")
	t.Setenv("MAIN_ACCOUNT", "5AB12345")
	t.Setenv("IRA_ACCOUNT", "519000001")
	t.Setenv("THIRD_ACCOUNT", "")
	t.Setenv("SPREADSHEET_ID", "1abcDEF")
	t.Setenv("GOOGLE_CREDENTIALS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}

	if cfg.Username != "user@example.com" {
		t.Errorf("Username = %q", cfg.Username)
	}
	if cfg.SpreadsheetID != "1abcDEF" {
		t.Errorf("SpreadsheetID = %q", cfg.SpreadsheetID)
	}
	if cfg.CredentialsFile != "credentials.json" {
		t.Errorf("CredentialsFile = %q, want the default", cfg.CredentialsFile)
	}

	want := []rhfolio.Account{
		{Name: "Main", Number: "5AB12345", Type: rhfolio.Standard},
		{Name: "IRA", Number: "519000001", Type: rhfolio.IRA},
	}
	if len(cfg.Accounts) != len(want) {
		t.Fatalf("got %d accounts, want %d", len(cfg.Accounts), len(want))
	}
	for i, a := range want {
		if cfg.Accounts[i] != a {
			t.Errorf("Accounts[%d] = %+v, want %+v", i, cfg.Accounts[i], a)
		}
	}
}

func TestLoadConfigNoAccounts(t *testing.T) {
	t.Setenv("MAIN_ACCOUNT", "")
	t.Setenv("IRA_ACCOUNT", "")
	t.Setenv("THIRD_ACCOUNT", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() accepted a configuration without accounts")
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	content := "MAIN_ACCOUNT=5AB12345\nSPREADSHEET_ID=from-file\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are set, even to empty, so
	// these must really be unset. t.Setenv first, to restore them after.
	for _, v := range []string{"MAIN_ACCOUNT", "IRA_ACCOUNT", "THIRD_ACCOUNT", "SPREADSHEET_ID"} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}

	old := *envFile
	*envFile = file
	defer func() { *envFile = old }()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if cfg.SpreadsheetID != "from-file" {
		t.Errorf("SpreadsheetID = %q, want the env file value", cfg.SpreadsheetID)
	}
	if len(cfg.Accounts) != 1 || cfg.Accounts[0].Number != "5AB12345" {
		t.Errorf("Accounts = %+v, want the env file account", cfg.Accounts)
	}
}
