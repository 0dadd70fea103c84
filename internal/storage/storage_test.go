package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewJSONStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")

	storage, err := NewJSONStorage(path)
	if err != nil {
		t.Fatalf("NewJSONStorage failed: %v", err)
	}
	if storage == nil {
		t.Fatal("Expected non-nil storage")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Opening a store must not create the file")
	}
}

func TestJSONStorage_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")

	storage, err := NewJSONStorage(path)
	if err != nil {
		t.Fatalf("NewJSONStorage failed: %v", err)
	}
	run, err := storage.AddRun("baseline", sampleResult(3))
	if err != nil {
		t.Fatalf("AddRun failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should be renamed away after save")
	}

	reopened, err := NewJSONStorage(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	got, err := reopened.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun after reopen failed: %v", err)
	}
	if got.Result.Ticks != 3 || !got.Result.Start.Equal(run.Result.Start) {
		t.Errorf("Round-tripped result differs: %+v", got.Result)
	}
	sr := got.Result.Strategies[0]
	if sr.Name != "SellWeeklyPuts(1.00)" || sr.Curve[0].MarketValue.String() != "-0.1" {
		t.Errorf("Round-tripped strategy differs: %+v", sr)
	}
	if sr.Statistics.FinalCash.String() != "1.5" || sr.Statistics.TradesOpened != 1 {
		t.Errorf("Round-tripped statistics differ: %+v", sr.Statistics)
	}
}

func TestJSONStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONStorage(path); err == nil {
		t.Error("Expected error loading a corrupt file")
	}
}

func TestJSONStorage_SaveFailureKeepsMemoryConsistent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	storage, err := NewJSONStorage(filepath.Join(dir, "results.json"))
	if err != nil {
		t.Fatalf("NewJSONStorage failed: %v", err)
	}
	if _, err := storage.AddRun("x", sampleResult(1)); err == nil {
		t.Fatal("Expected save into a missing directory to fail")
	}
	if len(storage.ListRuns()) != 0 {
		t.Error("Failed AddRun must not keep the run")
	}
}
