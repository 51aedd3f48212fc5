package tracker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTypeLabels(t *testing.T) {

	labels := NewTypeLabels([]string{"person", "car", "bicycle"})

	if labels.Name(1) != "car" {
		t.Errorf("expected type 1 to be car, got %s", labels.Name(1))
	}

	if labels.Name(99) != "unknown" || labels.Name(TypeUnknown) != "unknown" {
		t.Error("out of range types should map to unknown")
	}

	if labels.Type("bicycle") != 2 {
		t.Errorf("expected bicycle to be type 2, got %d", labels.Type("bicycle"))
	}

	if labels.Type("boat") != TypeUnknown {
		t.Errorf("unregistered names should map to TypeUnknown, got %d", labels.Type("boat"))
	}
}

func TestLoadTypeLabels(t *testing.T) {

	file := filepath.Join(t.TempDir(), "labels.txt")

	if err := os.WriteFile(file, []byte("person\ncar\n"), 0644); err != nil {
		t.Fatalf("error writing labels file: %v", err)
	}

	labels, err := LoadTypeLabels(file)

	if err != nil {
		t.Fatalf("error loading labels: %v", err)
	}

	if labels.Type("car") != 1 {
		t.Errorf("expected car to be type 1, got %d", labels.Type("car"))
	}

	if _, err := LoadTypeLabels(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected an error for a missing labels file")
	}
}
