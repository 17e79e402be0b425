package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if om != nil {
		t.Fatal("empty dir should disable output")
	}
	// All writes on a nil manager are no-ops.
	if err := om.WriteFamily(nil); err != nil {
		t.Errorf("WriteFamily on nil manager: %v", err)
	}
	om.Close()
}

func TestOutputManagerWritesFamily(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	records := []FamilyRecord{
		{IndividualRecord: IndividualRecord{ID: 1, BirthYear: -1, Location: 0}},
		{IndividualRecord: IndividualRecord{ID: 3, FatherID: 1, MotherID: 2, BirthYear: 4, Location: 1}, CaptureYear: 9},
	}
	if err := om.WriteFamily(records); err != nil {
		t.Fatalf("WriteFamily: %v", err)
	}
	// A second batch must not repeat the header.
	if err := om.WriteFamily(records[:1]); err != nil {
		t.Fatalf("WriteFamily second batch: %v", err)
	}
	om.Close()

	data, err := os.ReadFile(filepath.Join(dir, "family.csv"))
	if err != nil {
		t.Fatalf("reading family.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("family.csv has %d lines, want header + 3 rows", len(lines))
	}
	if lines[0] != "id,father_id,mother_id,birth_year,location,capture_year" {
		t.Errorf("header = %q, violates the column layout contract", lines[0])
	}
	if lines[2] != "3,1,2,4,1,9" {
		t.Errorf("sampled row = %q, want %q", lines[2], "3,1,2,4,1,9")
	}
}

func TestOutputManagerWritesDemography(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	rows := []DemographyRow{
		{Year: 1, Quarter: 0, Location: 0, Age: 0, Count: 42},
	}
	if err := om.WriteDemography(rows); err != nil {
		t.Fatalf("WriteDemography: %v", err)
	}
	om.Close()

	data, err := os.ReadFile(filepath.Join(dir, "demography.csv"))
	if err != nil {
		t.Fatalf("reading demography.csv: %v", err)
	}
	want := "year,quarter,location,age,count\n1,0,0,0,42\n"
	if string(data) != want {
		t.Errorf("demography.csv = %q, want %q", string(data), want)
	}
}
