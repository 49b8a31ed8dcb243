package system

import (
	"errors"
	"testing"
)

func TestMemFSExists(t *testing.T) {
	fs := NewMemFS()
	fs.AddFile("/root/a/file.txt", []byte("data"))

	if !fs.Exists("/root/a/file.txt") {
		t.Error("file should exist")
	}
	if !fs.Exists("/root/a") {
		t.Error("parent directory should exist")
	}
	if !fs.Exists("/root") {
		t.Error("grandparent directory should exist")
	}
	if fs.Exists("/root/b") {
		t.Error("missing path should not exist")
	}
	if fs.IsDir("/root/a/file.txt") {
		t.Error("file is not a directory")
	}
	if !fs.IsDir("/root/a") {
		t.Error("directory should be a directory")
	}
}

func TestMemFSClearDir(t *testing.T) {
	fs := NewMemFS()
	fs.AddFile("/app/Cache/a.bin", []byte("aa"))
	fs.AddFile("/app/Cache/sub/b.bin", []byte("bb"))
	fs.AddFile("/app/other.txt", []byte("keep"))

	if err := fs.ClearDir("/app/Cache"); err != nil {
		t.Fatalf("ClearDir() error = %v", err)
	}

	if !fs.IsDir("/app/Cache") {
		t.Error("cleared directory itself should remain")
	}
	if fs.Exists("/app/Cache/a.bin") || fs.Exists("/app/Cache/sub") {
		t.Error("directory contents should be gone")
	}
	if !fs.Exists("/app/other.txt") {
		t.Error("sibling file should be untouched")
	}

	if err := fs.ClearDir("/app/missing"); err == nil {
		t.Error("ClearDir() on missing directory should fail")
	}
}

func TestMemFSRemoveAndRename(t *testing.T) {
	fs := NewMemFS()
	fs.AddFile("/app/mail.ost", []byte("offline data"))

	if err := fs.Rename("/app/mail.ost", "/app/mail.ost.old"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if fs.Exists("/app/mail.ost") {
		t.Error("source should be gone after rename")
	}
	data, err := fs.ReadFile("/app/mail.ost.old")
	if err != nil || string(data) != "offline data" {
		t.Errorf("ReadFile() after rename = %q, %v", data, err)
	}

	if err := fs.Remove("/app/mail.ost.old"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := fs.Remove("/app/mail.ost.old"); err == nil {
		t.Error("Remove() of missing file should fail")
	}
}

func TestMemFSCopyFile(t *testing.T) {
	fs := NewMemFS()
	fs.AddFile("/app/config.json", []byte(`{"gpu":true}`))

	if err := fs.CopyFile("/app/config.json", "/app/config.json.bak"); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	data, err := fs.ReadFile("/app/config.json.bak")
	if err != nil || string(data) != `{"gpu":true}` {
		t.Errorf("backup content = %q, %v", data, err)
	}

	if err := fs.CopyFile("/app/missing", "/app/x"); err == nil {
		t.Error("CopyFile() of missing source should fail")
	}
}

func TestMemFSGlob(t *testing.T) {
	fs := NewMemFS()
	fs.AddFile("/app/RoamCache/Stream_Autocomplete_1.dat", nil)
	fs.AddFile("/app/RoamCache/Stream_Autocomplete_2.dat", nil)
	fs.AddFile("/app/RoamCache/Other.dat", nil)

	matches, err := fs.Glob("/app/RoamCache/Stream_Autocomplete*.dat")
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Glob() = %v, want 2 matches", matches)
	}

	none, err := fs.Glob("/app/*.ost")
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Glob() = %v, want no matches", none)
	}
}

func TestMemFSDirSize(t *testing.T) {
	fs := NewMemFS()
	fs.AddFile("/app/Cache/a", make([]byte, 100))
	fs.AddFile("/app/Cache/sub/b", make([]byte, 50))

	size, err := fs.DirSize("/app/Cache")
	if err != nil {
		t.Fatalf("DirSize() error = %v", err)
	}
	if size != 150 {
		t.Errorf("DirSize() = %d, want 150", size)
	}
}

func TestMemFSFailOn(t *testing.T) {
	fs := NewMemFS()
	fs.AddFile("/app/locked.db", []byte("x"))
	denied := errors.New("access denied")
	fs.FailOn("/app/locked.db", denied)

	if err := fs.Remove("/app/locked.db"); !errors.Is(err, denied) {
		t.Errorf("Remove() error = %v, want injected failure", err)
	}
	if !fs.Exists("/app/locked.db") {
		t.Error("failed remove should leave the file in place")
	}
}

func TestMemFSOpLog(t *testing.T) {
	fs := NewMemFS()
	fs.AddFile("/app/config.json", []byte("x"))

	_ = fs.CopyFile("/app/config.json", "/app/config.json.bak")
	_ = fs.Remove("/app/config.json")

	ops := fs.Ops()
	if len(ops) != 2 {
		t.Fatalf("Ops() = %v, want 2 entries", ops)
	}
	if ops[0].Kind != "copy" || ops[1].Kind != "remove" {
		t.Errorf("op order = %s, %s; want copy then remove", ops[0].Kind, ops[1].Kind)
	}
	if fs.OpCount("copy") != 1 || fs.OpCount("remove") != 1 {
		t.Error("OpCount() mismatch")
	}
}
