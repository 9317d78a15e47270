package definition_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	loom "github.com/xraph/loom"
	"github.com/xraph/loom/definition"
	"github.com/xraph/loom/tree"
)

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.json")
	const body = `{
		"name": "deploy",
		"tasks": {
			"build": {"handler": "log", "parameters": {"log": "building"}}
		}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	def, err := definition.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if def.Name != "deploy" {
		t.Fatalf("name = %q, want deploy", def.Name)
	}
	if def.Tasks["build"].Status != tree.TaskWaiting {
		t.Fatalf("build.status = %q, want waiting", def.Tasks["build"].Status)
	}
	if len(def.Order) != 1 || def.Order[0] != "build" {
		t.Fatalf("order = %v, want [build]", def.Order)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.yaml")
	const body = `
name: deploy
tasks:
  build:
    handler: log
    parameters:
      log: building
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	def, err := definition.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if def.Name != "deploy" {
		t.Fatalf("name = %q, want deploy", def.Name)
	}
	if def.Tasks["build"].Handler != "log" {
		t.Fatalf("build.handler = %q, want log", def.Tasks["build"].Handler)
	}
}

func TestLoadMissingNameFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anon.json")
	if err := os.WriteFile(path, []byte(`{"tasks": {}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := definition.Load(path)
	if !errors.Is(err, loom.ErrMissingName) {
		t.Fatalf("err = %v, want ErrMissingName", err)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := definition.Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
