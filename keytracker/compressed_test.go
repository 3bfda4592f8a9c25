package keytracker

import (
	"testing"

	"github.com/eth2030/lamport-wallet/lamport"
)

// TestCompressedTrackerInlineMatchesRetrieved pins the compression
// round trip: the keys handed back inline by More(3) must re-expand to
// the same pkh sequence that GetN(3) later returns.
func TestCompressedTrackerInlineMatchesRetrieved(t *testing.T) {
	tr := NewCompressedTracker()

	inline, err := tr.More(3)
	if err != nil {
		t.Fatalf("More: %v", err)
	}
	retrieved, err := tr.GetN(3)
	if err != nil {
		t.Fatalf("GetN: %v", err)
	}

	for i := 0; i < 3; i++ {
		inlinePKH := lamport.PublicKeyHash(inline[i].Pub)
		retrievedPKH := lamport.PublicKeyHash(retrieved[i].Pub)
		if inlinePKH != retrievedPKH {
			t.Errorf("key %d: inline pkh %s != retrieved pkh %s",
				i, inlinePKH.Hex(), retrievedPKH.Hex())
		}
	}
}

func TestCompressedTrackerExpansionValid(t *testing.T) {
	tr := NewCompressedTracker()
	tr.More(1)

	kp, err := tr.GetOne()
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	if len(kp.Pri) != lamport.NumBits || len(kp.Pub) != lamport.NumBits {
		t.Error("re-expanded key pair has wrong shape")
	}
}

func TestCompressedTrackerHashMismatch(t *testing.T) {
	tr := NewCompressedTracker()
	tr.More(1)

	// Corrupt the stored pkh to simulate storage damage.
	tr.mu.Lock()
	tr.queue[0].PKH[0] ^= 0xff
	tr.mu.Unlock()

	if _, err := tr.GetOne(); err != ErrHashMismatch {
		t.Errorf("GetOne on corrupted record: got %v, want ErrHashMismatch", err)
	}
}

func TestCompressedTrackerExhaustion(t *testing.T) {
	tr := NewCompressedTracker()
	if _, err := tr.GetOne(); err != ErrNoKeysLeft {
		t.Errorf("GetOne on empty: got %v, want ErrNoKeysLeft", err)
	}

	tr.More(1)
	if _, err := tr.GetN(2); err != ErrNoKeysLeft {
		t.Errorf("GetN beyond stock: got %v, want ErrNoKeysLeft", err)
	}
	if tr.Count() != 1 {
		t.Errorf("failed GetN consumed keys: Count = %d, want 1", tr.Count())
	}
}

func TestCompressedTrackerSnapshotRestore(t *testing.T) {
	tr := NewCompressedTracker()
	inline, err := tr.More(2)
	if err != nil {
		t.Fatalf("More: %v", err)
	}

	restored := restoreCompressed(tr.Snapshot())
	if restored.Count() != 2 {
		t.Fatalf("restored Count = %d, want 2", restored.Count())
	}

	kp, err := restored.GetOne()
	if err != nil {
		t.Fatalf("GetOne on restored: %v", err)
	}
	if lamport.PublicKeyHash(kp.Pub) != lamport.PublicKeyHash(inline[0].Pub) {
		t.Error("restored tracker returned a different first key")
	}
}
