package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "desk")
	p := writeFile(t, "name: ${SAMPLE_NAME}\nport: 3000\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "desk" || s.Port != 3000 {
		t.Fatalf("got %+v", s)
	}
}

func TestLoad_RunsValidate(t *testing.T) {
	p := writeFile(t, "name: x\nport: 0\n")

	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadOrDefault_MissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 3000}
	loaded, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"), &s)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if loaded {
		t.Error("loaded = true for missing file")
	}
	if s.Name != "default" || s.Port != 3000 {
		t.Errorf("defaults changed: %+v", s)
	}

	bad := sample{}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"), &bad); err == nil {
		t.Error("expected defaults to be validated")
	}
}

func TestLoadOrDefault_OverlaysFile(t *testing.T) {
	p := writeFile(t, "port: 8080\n")
	s := sample{Name: "default", Port: 3000}

	loaded, err := LoadOrDefault(p, &s)
	if err != nil || !loaded {
		t.Fatalf("loaded=%v err=%v", loaded, err)
	}
	if s.Port != 8080 || s.Name != "default" {
		t.Errorf("got %+v", s)
	}
}
