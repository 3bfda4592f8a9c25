package keytracker

import (
	"sync"
	"testing"

	"github.com/eth2030/lamport-wallet/lamport"
)

func TestPlainTrackerMoreAndCount(t *testing.T) {
	tr := NewPlainTracker()
	if !tr.Exhausted() {
		t.Error("fresh tracker should be exhausted")
	}

	keys, err := tr.More(3)
	if err != nil {
		t.Fatalf("More: %v", err)
	}
	if len(keys) != 3 {
		t.Errorf("More returned %d keys, want 3", len(keys))
	}
	if tr.Count() != 3 {
		t.Errorf("Count = %d, want 3", tr.Count())
	}
	if tr.Exhausted() {
		t.Error("stocked tracker reported exhausted")
	}
}

func TestPlainTrackerFIFO(t *testing.T) {
	tr := NewPlainTracker()
	keys, err := tr.More(3)
	if err != nil {
		t.Fatalf("More: %v", err)
	}

	for i := 0; i < 3; i++ {
		kp, err := tr.GetOne()
		if err != nil {
			t.Fatalf("GetOne(%d): %v", i, err)
		}
		if lamport.PublicKeyHash(kp.Pub) != lamport.PublicKeyHash(keys[i].Pub) {
			t.Errorf("GetOne(%d) returned out-of-order key", i)
		}
	}
}

func TestPlainTrackerExhaustion(t *testing.T) {
	tr := NewPlainTracker()
	if _, err := tr.GetOne(); err != ErrNoKeysLeft {
		t.Errorf("GetOne on empty: got %v, want ErrNoKeysLeft", err)
	}

	tr.More(2)
	if _, err := tr.GetN(3); err != ErrNoKeysLeft {
		t.Errorf("GetN beyond stock: got %v, want ErrNoKeysLeft", err)
	}
	if tr.Count() != 2 {
		t.Errorf("failed GetN consumed keys: Count = %d, want 2", tr.Count())
	}
}

func TestPlainTrackerGetN(t *testing.T) {
	tr := NewPlainTracker()
	tr.More(4)

	batch, err := tr.GetN(3)
	if err != nil {
		t.Fatalf("GetN: %v", err)
	}
	if len(batch) != 3 {
		t.Errorf("GetN returned %d keys, want 3", len(batch))
	}
	if tr.Count() != 1 {
		t.Errorf("Count after GetN = %d, want 1", tr.Count())
	}
}

func TestPlainTrackerNonPositiveCount(t *testing.T) {
	tr := NewPlainTracker()
	if _, err := tr.More(0); err != ErrNonPositiveCount {
		t.Errorf("More(0): got %v, want ErrNonPositiveCount", err)
	}
	if _, err := tr.GetN(-1); err != ErrNonPositiveCount {
		t.Errorf("GetN(-1): got %v, want ErrNonPositiveCount", err)
	}
}

func TestPlainTrackerConcurrentGetOneUnique(t *testing.T) {
	tr := NewPlainTracker()
	if _, err := tr.More(16); err != nil {
		t.Fatalf("More: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan lamport.KeyPair, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kp, err := tr.GetOne()
			if err != nil {
				return
			}
			results <- kp
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for kp := range results {
		pkh := lamport.PublicKeyHash(kp.Pub).Hex()
		if seen[pkh] {
			t.Errorf("key %s issued twice", pkh)
		}
		seen[pkh] = true
	}
	if len(seen) != 16 {
		t.Errorf("issued %d distinct keys, want 16", len(seen))
	}
}
