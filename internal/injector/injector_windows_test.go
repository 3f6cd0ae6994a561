//go:build windows

package injector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFindExportRVASystemModule(t *testing.T) {
	path := filepath.Join(os.Getenv("SystemRoot"), "System32", "kernel32.dll")
	rva, err := FindExportRVA(path, "GetProcAddress")
	if err != nil {
		t.Fatalf("FindExportRVA: %v", err)
	}
	if rva == 0 {
		t.Fatalf("expected a non-zero RVA")
	}
	if _, err := FindExportRVA(path, "DefinitelyNotAnExport"); err == nil {
		t.Fatalf("expected an error for an unknown export")
	}
}

func TestInjectMissingModule(t *testing.T) {
	inj := &Injector{ModuleName: "msghook.dll", ProcName: "MsgHookProc", Dir: t.TempDir()}
	if _, err := inj.Inject(0); !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("got %v, want ErrModuleNotFound", err)
	}
}

func TestInjectMissingExport(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "msghook.dll"), []byte("MZ not really"), 0644); err != nil {
		t.Fatal(err)
	}
	inj := &Injector{ModuleName: "msghook.dll", ProcName: "MsgHookProc", Dir: dir}
	if _, err := inj.Inject(0); !errors.Is(err, ErrExportNotFound) {
		t.Fatalf("got %v, want ErrExportNotFound", err)
	}
}
