package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestServeRefusesWhenServerDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app-doctor.yaml")
	data := `apiVersion: app-doctor.io/v1alpha1
kind: AppDoctorConfig
metadata:
  name: test
server:
  enabled: false
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	oldPath := configPath
	configPath = path
	defer func() { configPath = oldPath }()

	cmd := newServeCmd()
	err := cmd.RunE(cmd, nil)
	if err == nil {
		t.Fatal("serve should refuse to start when server.enabled is false")
	}
	if !strings.Contains(err.Error(), "disabled") {
		t.Errorf("error = %v, want a mention of the server being disabled", err)
	}
}
