// Package testutil provides shared test helpers for setting up vaults,
// session stores, and scripted LLM doubles.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/wayfare/learnctl/internal/llm"
	"github.com/wayfare/learnctl/internal/vault"
)

// TestVault creates a temporary vault directory with a vault.Provider.
func TestVault(t *testing.T) (string, vault.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := vault.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestSessionDB creates a temporary SQLite file path for the session store,
// cleaned up automatically. The caller opens it (sessionstore.Open expects
// a path, not a handle, since it owns busy-timeout/WAL pragma setup).
func TestSessionDB(t *testing.T) string {
	t.Helper()
	dbFile, err := os.CreateTemp("", "learnctl-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	return dbFile.Name()
}

// FakeLLM is a scripted llm.Client double: each call to Complete pops the
// next response off Responses, in order. If Err is set for that index, it
// is returned instead. Calls are recorded in Requests for assertions.
type FakeLLM struct {
	Responses []llm.Response
	Errs      []error
	Requests  []llm.Request

	next int
}

// Complete implements llm.Client.
func (f *FakeLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.Requests = append(f.Requests, req)
	i := f.next
	f.next++

	if i < len(f.Errs) && f.Errs[i] != nil {
		return llm.Response{}, f.Errs[i]
	}
	if i < len(f.Responses) {
		return f.Responses[i], nil
	}
	return llm.Response{Content: "ok"}, nil
}

// CallCount returns how many times Complete has been invoked.
func (f *FakeLLM) CallCount() int {
	return f.next
}
