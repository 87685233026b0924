package resolver

import (
	"errors"
	"sync"
	"testing"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

func TestStaticResolver_Resolve(t *testing.T) {
	r := NewStaticResolver(map[string]authority.AuthorityLevel{
		"system:kernel": authority.AuthoritySystem,
		"admin:alice":   authority.AuthorityAdmin,
		"user:bob":      authority.AuthorityUser,
	}, Config{})

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
}

func TestStaticResolver_UnknownPrincipal(t *testing.T) {
	r := NewStaticResolver(nil, Config{})

	_, err := r.Resolve("stranger")
	if err == nil {
		t.Fatal("expected error for unknown principal")
	}

	var unknownErr *authority.UnknownPrincipalError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownPrincipalError, got %T", err)
	}
	if unknownErr.Principal != "stranger" {
		t.Errorf("error carries principal %q, want %q", unknownErr.Principal, "stranger")
	}
}

func TestStaticResolver_DefaultToUser(t *testing.T) {
	r := NewStaticResolver(nil, Config{DefaultToUser: true})

	got, err := r.Resolve("stranger")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != authority.AuthorityUser {
		t.Errorf("Resolve = %s, want USER", got)
	}
}

func TestStaticResolver_SetAndRemove(t *testing.T) {
	r := NewStaticResolver(nil, Config{})

	r.Set("admin:carol", authority.AuthorityAdmin)
	got, err := r.Resolve("admin:carol")
	if err != nil {
		t.Fatalf("Resolve after Set failed: %v", err)
	}
	if got != authority.AuthorityAdmin {
		t.Errorf("Resolve = %s, want ADMIN", got)
	}

	r.Remove("admin:carol")
	if _, err := r.Resolve("admin:carol"); err == nil {
		t.Error("expected error after Remove")
	}
}

func TestStaticResolver_CopiesInput(t *testing.T) {
	levels := map[string]authority.AuthorityLevel{
		"admin:alice": authority.AuthorityAdmin,
	}
	r := NewStaticResolver(levels, Config{})

	// Mutating the caller's map must not leak into the resolver.
	levels["admin:alice"] = authority.AuthoritySystem

	got, err := r.Resolve("admin:alice")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != authority.AuthorityAdmin {
		t.Errorf("Resolve = %s, want ADMIN", got)
	}
}

func TestStaticResolver_ConcurrentAccess(t *testing.T) {
	r := NewStaticResolver(map[string]authority.AuthorityLevel{
		"user:bob": authority.AuthorityUser,
	}, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = r.Resolve("user:bob")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Set("user:bob", authority.AuthorityUser)
			}
		}()
	}
	wg.Wait()
}
