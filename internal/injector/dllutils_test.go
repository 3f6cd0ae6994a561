package injector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveModulePath(t *testing.T) {
	dir := t.TempDir()
	if _, err := ResolveModulePath(dir, "msghook.dll"); !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("got %v, want ErrModuleNotFound", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "msghook.dll"), []byte("MZ"), 0644); err != nil {
		t.Fatal(err)
	}
	path, err := ResolveModulePath(dir, "msghook.dll")
	if err != nil {
		t.Fatalf("ResolveModulePath: %v", err)
	}
	if path != filepath.Join(dir, "msghook.dll") {
		t.Fatalf("path = %q", path)
	}

	// a directory with the module name is not a module
	if err := os.Mkdir(filepath.Join(dir, "other.dll"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveModulePath(dir, "other.dll"); !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("got %v, want ErrModuleNotFound for a directory", err)
	}
}

func TestFindExportRVARejectsNonPE(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notape.dll")
	if err := os.WriteFile(path, []byte("definitely not a portable executable"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := FindExportRVA(path, "MsgHookProc"); err == nil {
		t.Fatalf("expected an error for a non-PE file")
	}
	if _, err := FindExportRVA(filepath.Join(dir, "missing.dll"), "MsgHookProc"); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestInjectionErrorsShareParent(t *testing.T) {
	for _, err := range []error{ErrModuleNotFound, ErrExportNotFound, ErrWindowNotFound, ErrHookInstallFailed} {
		if !errors.Is(err, ErrInjection) {
			t.Fatalf("%v does not wrap ErrInjection", err)
		}
	}
}
