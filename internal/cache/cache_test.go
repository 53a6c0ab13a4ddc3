package cache

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fujit1113/ValueFromLog/internal/models"
)

func createTestCache(t *testing.T) *Cache {
	c, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	return c
}

func sampleEvents() ([]models.OperationEvent, []models.StateChangeEvent) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ops := []models.OperationEvent{
		{ContractID: "C1", Timestamp: at, RoomName: "R1", PropertyValue: "on"},
		{ContractID: "C2", Timestamp: at.Add(time.Minute), Deleted: true},
	}
	states := []models.StateChangeEvent{
		{MessageName: "StateChanged", ContractID: "C1", Timestamp: at.Add(30 * time.Second), RoomName: "R1"},
	}
	return ops, states
}

func TestCache_StoreLoad(t *testing.T) {
	t.Run("round trips an event pair", func(t *testing.T) {
		c := createTestCache(t)
		ops, states := sampleEvents()

		if err := c.Store("key1", ops, states); err != nil {
			t.Fatalf("Store failed: %v", err)
		}

		gotOps, gotStates, ok := c.Load("key1")
		if !ok {
			t.Fatal("expected cache hit")
		}
		if len(gotOps) != len(ops) || len(gotStates) != len(states) {
			t.Fatalf("wrong counts: %d ops, %d states", len(gotOps), len(gotStates))
		}
		if !gotOps[0].Timestamp.Equal(ops[0].Timestamp) {
			t.Errorf("timestamp not preserved: %v != %v", gotOps[0].Timestamp, ops[0].Timestamp)
		}
		if gotOps[1].ContractID != "C2" || !gotOps[1].Deleted {
			t.Error("fields not preserved through msgpack round trip")
		}
		if gotStates[0].MessageName != "StateChanged" {
			t.Error("state fields not preserved")
		}
	})

	t.Run("absent key misses", func(t *testing.T) {
		c := createTestCache(t)
		if _, _, ok := c.Load("nope"); ok {
			t.Error("expected miss for unknown key")
		}
	})

	t.Run("empty slices round trip", func(t *testing.T) {
		c := createTestCache(t)
		if err := c.Store("empty", nil, nil); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
		ops, states, ok := c.Load("empty")
		if !ok {
			t.Fatal("expected hit for stored empty pair")
		}
		if len(ops) != 0 || len(states) != 0 {
			t.Error("expected empty slices")
		}
	})
}

func TestCache_Corruption(t *testing.T) {
	t.Run("corrupted blob is evicted and reported absent", func(t *testing.T) {
		c := createTestCache(t)
		ops, states := sampleEvents()
		if err := c.Store("key1", ops, states); err != nil {
			t.Fatalf("Store failed: %v", err)
		}

		opPath, statePath := c.Paths("key1")
		if err := os.WriteFile(opPath, []byte("not msgpack at all"), 0644); err != nil {
			t.Fatalf("Failed to corrupt blob: %v", err)
		}

		if _, _, ok := c.Load("key1"); ok {
			t.Fatal("expected miss on corrupted entry")
		}

		// Both halves of the stale pair must be gone so the next store
		// regenerates cleanly.
		if _, err := os.Stat(opPath); !os.IsNotExist(err) {
			t.Error("corrupted op blob should be deleted")
		}
		if _, err := os.Stat(statePath); !os.IsNotExist(err) {
			t.Error("sibling state blob should be deleted with it")
		}
	})

	t.Run("half-missing pair is a miss", func(t *testing.T) {
		c := createTestCache(t)
		ops, states := sampleEvents()
		if err := c.Store("key1", ops, states); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
		_, statePath := c.Paths("key1")
		os.Remove(statePath)

		if _, _, ok := c.Load("key1"); ok {
			t.Error("expected miss when one blob is missing")
		}
	})
}

func TestFingerprint(t *testing.T) {
	base := Request{
		OperationPath:    "/data/equipment_log_0101_operation.csv",
		StatePath:        "/data/equipment_log_0101_state.csv",
		OperationModTime: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		StateModTime:     time.Date(2024, 1, 1, 12, 0, 1, 0, time.UTC),
		OperationCols:    []string{"ContractId", "OrderReceiptDate"},
		StateCols:        []string{"ContractId", "ReportedDate"},
		ContractIDs:      []string{"C1", "C2"},
		Start:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("identical requests share a key", func(t *testing.T) {
		if Fingerprint(base) != Fingerprint(base) {
			t.Error("fingerprint is not deterministic")
		}
	})

	t.Run("contract id order does not matter", func(t *testing.T) {
		shuffled := base
		shuffled.ContractIDs = []string{"C2", "C1"}
		if Fingerprint(base) != Fingerprint(shuffled) {
			t.Error("fingerprint must be order-independent over contract ids")
		}
	})

	t.Run("every parameter participates", func(t *testing.T) {
		end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		variants := map[string]Request{}

		v := base
		v.Start = base.Start.Add(time.Second)
		variants["start"] = v

		v = base
		v.End = &end
		variants["end"] = v

		v = base
		v.ContractIDs = []string{"C1"}
		variants["contract ids"] = v

		v = base
		v.OperationCols = []string{"ContractId", "OrderReceiptDate", "RoomName"}
		variants["operation columns"] = v

		v = base
		v.StateModTime = base.StateModTime.Add(time.Nanosecond)
		variants["source mtime"] = v

		v = base
		v.OperationPath = "/data/equipment_log_0102_operation.csv"
		variants["source path"] = v

		baseKey := Fingerprint(base)
		for name, req := range variants {
			if Fingerprint(req) == baseKey {
				t.Errorf("changing %s must change the fingerprint", name)
			}
		}
	})
}
