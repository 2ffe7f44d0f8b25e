package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jbattja/fugata-sub001/internal/core"
)

func entryFor(action, principal string, success bool) core.AuditEntry {
	return core.AuditEntry{
		ID:          "req-" + action,
		Time:        time.Now(),
		Action:      action,
		PrincipalID: principal,
		Success:     success,
	}
}

func TestInMemoryAuditorGetRecent(t *testing.T) {
	auditor := NewInMemoryAuditor()
	for i := 0; i < 5; i++ {
		if err := auditor.Log(entryFor(fmt.Sprintf("token.issue.%d", i), "alice", true)); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := auditor.GetRecent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[1].Action != "token.issue.4" {
		t.Errorf("expected newest entry last, got %q", recent[1].Action)
	}

	// limit larger than the log returns everything
	all, err := auditor.GetRecent(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(all))
	}
}

func TestInMemoryAuditorFind(t *testing.T) {
	auditor := NewInMemoryAuditor()
	_ = auditor.Log(entryFor("token.issue", "alice", true))
	_ = auditor.Log(entryFor("redirect.navigate", "", true))
	_ = auditor.Log(entryFor("token.issue", "bob", false))

	failures, err := auditor.Find(func(entry core.AuditEntry) bool {
		return !entry.Success
	}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 || failures[0].PrincipalID != "bob" {
		t.Fatalf("unexpected matches: %+v", failures)
	}
}

func TestFileAuditorWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	auditor, err := NewFileAuditor(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := auditor.Log(entryFor("redirect.encrypt", "payment-data", true)); err != nil {
		t.Fatal(err)
	}
	if err := auditor.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, `"action":"redirect.encrypt"`) {
		t.Errorf("unexpected audit line: %s", line)
	}
	if strings.Count(string(data), "\n") != 1 {
		t.Errorf("expected a single JSON line, got: %q", string(data))
	}
}

func TestFingerprintNeverEchoesValue(t *testing.T) {
	secret := "eyJhbGciOiJIUzI1NiJ9.secret-token"
	for _, valueType := range []string{CredentialFingerprintType, EnvelopeFingerprintType} {
		fp := CalculateFingerprint(valueType, secret)
		if fp == "" || strings.Contains(fp, secret) {
			t.Errorf("%s fingerprint leaks its input: %q", valueType, fp)
		}
	}
	if got := CalculateFingerprint("unknown-type", secret); got != "(n/a)" {
		t.Errorf("unknown value type should fall back to default, got %q", got)
	}
}

func TestFingerprintIsDeterministic(t *testing.T) {
	a := CalculateFingerprint(CredentialFingerprintType, "token-a")
	b := CalculateFingerprint(CredentialFingerprintType, "token-a")
	if a != b {
		t.Errorf("fingerprints differ for the same input: %q vs %q", a, b)
	}
	if a == CalculateFingerprint(CredentialFingerprintType, "token-b") {
		t.Error("different inputs must not share a fingerprint")
	}
}
