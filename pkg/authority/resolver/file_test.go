package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

func writeIdentityMap(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "identity.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write identity map: %v", err)
	}
	return path
}

func TestFileResolver_Load(t *testing.T) {
	path := writeIdentityMap(t, t.TempDir(), `
principals:
  "system:kernel": SYSTEM
  "admin:alice": ADMIN
  "user:bob": USER
default_to_user: false
`)

	r, err := NewFileResolver(path, nil)
	if err != nil {
		t.Fatalf("NewFileResolver failed: %v", err)
	}

	tests := []struct {
		principal string
		want      authority.AuthorityLevel
	}{
		{"system:kernel", authority.AuthoritySystem},
		{"admin:alice", authority.AuthorityAdmin},
		{"user:bob", authority.AuthorityUser},
	}
	for _, tt := range tests {
		got, err := r.Resolve(tt.principal)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", tt.principal, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %s, want %s", tt.principal, got, tt.want)
		}
	}

	if _, err := r.Resolve("stranger"); err == nil {
		t.Error("expected error for unknown principal")
	}
}

func TestFileResolver_DefaultToUser(t *testing.T) {
	path := writeIdentityMap(t, t.TempDir(), `
principals:
  "admin:alice": ADMIN
default_to_user: true
`)

	r, err := NewFileResolver(path, nil)
	if err != nil {
		t.Fatalf("NewFileResolver failed: %v", err)
	}

	got, err := r.Resolve("stranger")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != authority.AuthorityUser {
		t.Errorf("Resolve = %s, want USER", got)
	}
}

func TestFileResolver_MissingFile(t *testing.T) {
	_, err := NewFileResolver(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileResolver_InvalidLevel(t *testing.T) {
	path := writeIdentityMap(t, t.TempDir(), `
principals:
  "admin:alice": SUPERUSER
`)

	_, err := NewFileResolver(path, nil)
	if err == nil {
		t.Fatal("expected error for unknown authority level name")
	}
}

func TestFileResolver_ReloadKeepsOldMapOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeIdentityMap(t, dir, `
principals:
  "admin:alice": ADMIN
`)

	r, err := NewFileResolver(path, nil)
	if err != nil {
		t.Fatalf("NewFileResolver failed: %v", err)
	}

	// Corrupt the file, then reload: error returned, old map retained.
	if err := os.WriteFile(path, []byte("principals: [not a map"), 0644); err != nil {
		t.Fatalf("failed to corrupt file: %v", err)
	}
	if err := r.Reload(); err == nil {
		t.Fatal("expected reload error for corrupt file")
	}

	got, err := r.Resolve("admin:alice")
	if err != nil {
		t.Fatalf("Resolve after failed reload: %v", err)
	}
	if got != authority.AuthorityAdmin {
		t.Errorf("Resolve = %s, want ADMIN", got)
	}
}

func TestFileResolver_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeIdentityMap(t, dir, `
principals:
  "user:bob": USER
`)

	r, err := NewFileResolver(path, nil)
	if err != nil {
		t.Fatalf("NewFileResolver failed: %v", err)
	}

	if err := os.WriteFile(path, []byte(`
principals:
  "user:bob": ADMIN
`), 0644); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	got, err := r.Resolve("user:bob")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != authority.AuthorityAdmin {
		t.Errorf("Resolve after reload = %s, want ADMIN", got)
	}
}

func TestFileResolver_UnknownPrincipalErrorType(t *testing.T) {
	path := writeIdentityMap(t, t.TempDir(), `
principals: {}
`)

	r, err := NewFileResolver(path, nil)
	if err != nil {
		t.Fatalf("NewFileResolver failed: %v", err)
	}

	_, err = r.Resolve("stranger")
	var unknownErr *authority.UnknownPrincipalError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownPrincipalError, got %T", err)
	}
}
