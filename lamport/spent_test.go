package lamport

import (
	"sync"
	"testing"

	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/crypto"
)

func TestSpentSetSignOnce(t *testing.T) {
	guard := NewSpentSet()
	kp := DeriveKeyPair(types.HexToHash("0xaa"))
	msgHash := crypto.Keccak256Hash([]byte("first"))

	sig, err := guard.Sign(msgHash, kp)
	if err != nil {
		t.Fatalf("first Sign: %v", err)
	}
	if !Verify(msgHash, sig, kp.Pub) {
		t.Error("guarded signature failed verification")
	}

	_, err = guard.Sign(crypto.Keccak256Hash([]byte("second")), kp)
	if err != ErrKeySpent {
		t.Errorf("second Sign: got %v, want ErrKeySpent", err)
	}
}

func TestSpentSetMarkAndSpent(t *testing.T) {
	guard := NewSpentSet()
	pkh := types.HexToHash("0xbb")

	if guard.Spent(pkh) {
		t.Error("fresh pkh reported spent")
	}
	if !guard.Mark(pkh) {
		t.Error("Mark on fresh pkh returned false")
	}
	if guard.Mark(pkh) {
		t.Error("Mark on tombstoned pkh returned true")
	}
	if !guard.Spent(pkh) {
		t.Error("tombstoned pkh reported unspent")
	}
	if guard.Len() != 1 {
		t.Errorf("Len = %d, want 1", guard.Len())
	}
}

func TestSpentSetConcurrentSingleWinner(t *testing.T) {
	guard := NewSpentSet()
	kp := DeriveKeyPair(types.HexToHash("0xcc"))
	msgHash := crypto.Keccak256Hash([]byte("contested"))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := guard.Sign(msgHash, kp)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
		} else if err != ErrKeySpent {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("signatures produced = %d, want exactly 1", wins)
	}
}
