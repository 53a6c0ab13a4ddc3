package dataset

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fujit1113/ValueFromLog/internal/models"
)

func sampleDataset() *models.MatchedDataset {
	stateAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	opAt := time.Date(2023, 12, 31, 23, 58, 0, 0, time.UTC)
	diff := 120.0

	return &models.MatchedDataset{Records: []models.MatchedRecord{
		{
			ContractID:        "C1",
			StateTime:         stateAt,
			OperationTime:     &opAt,
			TimeDiffSeconds:   &diff,
			IsRemoteOperation: true,
			MessageName:       "PowerChanged",
			FloorCode:         "F1",
			RoomName:          "Living",
			EquipmentTypeID:   "AC01",
			EquipmentName:     "Aircon",
			PropertyCode:      "PC",
			PropertyName:      "Power",
			PropertyValue:     "on",
		},
		{
			ContractID: "C2",
			StateTime:  stateAt.Add(time.Hour),
			// Unmatched: operation time and diff stay null.
		},
		{
			ContractID: "C3",
			// Null state time from an unparseable source cell.
		},
	}}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Run("round trips all columns and null patterns", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "matched.duckdb")
		ds := sampleDataset()

		if err := Save(ds, path); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		if !reflect.DeepEqual(ds.Records, got.Records) {
			t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", ds.Records, got.Records)
		}
	})

	t.Run("round trips sub-second timestamps", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "matched.duckdb")
		at := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC)
		ds := &models.MatchedDataset{Records: []models.MatchedRecord{
			{ContractID: "C1", StateTime: at},
		}}

		if err := Save(ds, path); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !got.Records[0].StateTime.Equal(at) {
			t.Errorf("microsecond precision lost: %v != %v", got.Records[0].StateTime, at)
		}
	})

	t.Run("empty dataset round trips", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "matched.duckdb")
		if err := Save(models.NewMatchedDataset(), path); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Len() != 0 {
			t.Errorf("expected empty dataset, got %d records", got.Len())
		}
	})

	t.Run("save replaces an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "matched.duckdb")
		if err := Save(sampleDataset(), path); err != nil {
			t.Fatalf("first Save failed: %v", err)
		}
		small := &models.MatchedDataset{Records: sampleDataset().Records[:1]}
		if err := Save(small, path); err != nil {
			t.Fatalf("second Save failed: %v", err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Len() != 1 {
			t.Errorf("expected replacement, got %d records", got.Len())
		}
	})

	t.Run("loading a missing file fails", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.duckdb")); err == nil {
			t.Error("expected error for missing dataset file")
		}
	})
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(sampleDataset(), &buf); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ContractId,StateTime,OperationTime,TimeDiffSeconds,IsRemoteOperation") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "2023-12-31T23:58:00Z") || !strings.Contains(lines[1], "120") {
		t.Errorf("matched row missing operation fields: %s", lines[1])
	}
	if !strings.Contains(lines[2], ",,,false") {
		t.Errorf("unmatched row must have empty null cells: %s", lines[2])
	}
}
