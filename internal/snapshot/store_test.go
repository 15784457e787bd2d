package snapshot

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"LottoSentinel/internal/model"
)

func quietLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(buf, "", 0)
}

func sampleStocks() []model.StockRecord {
	ts := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	return []model.StockRecord{
		{CountryCode: "US", StockName: "Dow Jones", ThreeDigits: "123", TwoDigits: "45", LastUpdated: ts},
		{CountryCode: "JP", StockName: "Nikkei", ThreeDigits: "678", TwoDigits: "90", LastUpdated: ts},
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	var buf bytes.Buffer
	s := NewStore[model.StockRecord](filepath.Join(t.TempDir(), "missing.json"), quietLogger(&buf))

	snap := s.Load()
	if len(snap.Data) != 0 || snap.RecordCount != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
	if buf.Len() != 0 {
		t.Errorf("missing file should not log, got %q", buf.String())
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stock.json")
	s := NewStore[model.StockRecord](path, nil)

	records := sampleStocks()
	if err := s.Save(records); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap := s.Load()
	if snap.RecordCount != len(records) {
		t.Errorf("record count: got %d, want %d", snap.RecordCount, len(records))
	}
	if len(snap.Data) != len(records) {
		t.Fatalf("data len: got %d, want %d", len(snap.Data), len(records))
	}
	for i := range records {
		got, want := snap.Data[i], records[i]
		if got.StockName != want.StockName || got.CountryCode != want.CountryCode ||
			got.ThreeDigits != want.ThreeDigits || got.TwoDigits != want.TwoDigits ||
			!got.LastUpdated.Equal(want.LastUpdated) {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
	}
	if snap.LastUpdated.IsZero() {
		t.Error("expected lastUpdated to be set")
	}
}

func TestStore_SaveWritesWrappedForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.json")
	s := NewStore[model.StockRecord](path, nil)
	if err := s.Save(sampleStocks()); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("expected JSON object: %v", err)
	}
	for _, key := range []string{"lastUpdated", "recordCount", "data"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	var count int
	json.Unmarshal(raw["recordCount"], &count)
	if count != 2 {
		t.Errorf("recordCount: got %d, want 2", count)
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, got %d entries", len(entries))
	}
}

func TestStore_SaveEmptyWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.json")
	s := NewStore[model.StockRecord](path, nil)
	if err := s.Save(nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"data": []`) {
		t.Errorf("expected empty data array, got %s", data)
	}
}

func TestStore_LoadLegacyArray(t *testing.T) {
	dir := t.TempDir()
	records := sampleStocks()

	wrappedPath := filepath.Join(dir, "wrapped.json")
	if err := NewStore[model.StockRecord](wrappedPath, nil).Save(records); err != nil {
		t.Fatalf("save: %v", err)
	}

	legacyPath := filepath.Join(dir, "legacy.json")
	legacy, _ := json.Marshal(records)
	if err := os.WriteFile(legacyPath, legacy, 0o644); err != nil {
		t.Fatalf("write legacy: %v", err)
	}

	wrapped := NewStore[model.StockRecord](wrappedPath, nil).Load()
	old := NewStore[model.StockRecord](legacyPath, nil).Load()

	if old.RecordCount != wrapped.RecordCount {
		t.Errorf("count: legacy %d, wrapped %d", old.RecordCount, wrapped.RecordCount)
	}
	for i := range wrapped.Data {
		if old.Data[i].StockName != wrapped.Data[i].StockName ||
			old.Data[i].ThreeDigits != wrapped.Data[i].ThreeDigits {
			t.Errorf("record %d differs: legacy %+v, wrapped %+v", i, old.Data[i], wrapped.Data[i])
		}
	}
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	snap := NewStore[model.LotteryRecord](path, quietLogger(&buf)).Load()
	if len(snap.Data) != 0 {
		t.Errorf("corrupt file should load empty, got %+v", snap)
	}
	if !strings.Contains(buf.String(), "[WARN]") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestDecode_LotteryLegacyJSShape(t *testing.T) {
	raw := `[
	  {"date":"1 October 2026","prizes":{"firstPrize":"123456","three_front":["111","222"],"three_end":["333","444"],"two_end":"55"},"lastUpdated":"2026-10-01T09:00:00.000Z"}
	]`
	snap, err := Decode[model.LotteryRecord]([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.RecordCount != 1 {
		t.Fatalf("count: got %d", snap.RecordCount)
	}
	r := snap.Data[0]
	if r.Date != "1 October 2026" || r.Prizes.FirstPrize != "123456" || r.Prizes.TwoEnd != "55" {
		t.Errorf("unexpected record: %+v", r)
	}
	if len(r.Prizes.ThreeFront) != 2 || r.Prizes.ThreeEnd[1] != "444" {
		t.Errorf("unexpected three-digit prizes: %+v", r.Prizes)
	}
}

func TestDecode_Empty(t *testing.T) {
	if _, err := Decode[model.StockRecord]([]byte("  \n")); err == nil {
		t.Error("expected error on empty input")
	}
}
