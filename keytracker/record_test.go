package keytracker

import (
	"testing"

	"github.com/eth2030/lamport-wallet/lamport"
)

// roundTrip marshals a tracker and rebuilds it from the bytes.
func roundTrip(t *testing.T, tr Tracker) Tracker {
	t.Helper()
	data, err := Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return restored
}

// drainPKHs pops every remaining key and returns the pkh sequence.
func drainPKHs(t *testing.T, tr Tracker) []string {
	t.Helper()
	var out []string
	for !tr.Exhausted() {
		kp, err := tr.GetOne()
		if err != nil {
			t.Fatalf("GetOne: %v", err)
		}
		out = append(out, lamport.PublicKeyHash(kp.Pub).Hex())
	}
	return out
}

func TestRecordRoundTripPlain(t *testing.T) {
	tr := NewPlainTracker()
	tr.More(3)

	restored := roundTrip(t, tr)
	if restored.Kind() != KindPlain {
		t.Errorf("restored kind = %q, want %q", restored.Kind(), KindPlain)
	}

	want := drainPKHs(t, tr)
	got := drainPKHs(t, restored)
	if len(got) != len(want) {
		t.Fatalf("restored %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRecordRoundTripCompressed(t *testing.T) {
	tr := NewCompressedTracker()
	tr.More(3)

	restored := roundTrip(t, tr)
	if restored.Kind() != KindCompressed {
		t.Errorf("restored kind = %q, want %q", restored.Kind(), KindCompressed)
	}

	want := drainPKHs(t, tr)
	got := drainPKHs(t, restored)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRecordRoundTripSeeded(t *testing.T) {
	tr, err := NewSeededTracker()
	if err != nil {
		t.Fatalf("NewSeededTracker: %v", err)
	}
	tr.More(4)
	tr.GetOne()

	restored := roundTrip(t, tr)
	if restored.Kind() != KindSeeded {
		t.Errorf("restored kind = %q, want %q", restored.Kind(), KindSeeded)
	}
	if restored.Count() != 3 {
		t.Errorf("restored Count = %d, want 3", restored.Count())
	}

	want := drainPKHs(t, tr)
	got := drainPKHs(t, restored)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRecordRoundTripMulti(t *testing.T) {
	plain := NewPlainTracker()
	plain.More(1)
	seeded, err := NewSeededTracker()
	if err != nil {
		t.Fatalf("NewSeededTracker: %v", err)
	}
	seeded.More(2)

	tr := NewMultiTracker(plain, seeded)
	restored := roundTrip(t, tr)
	if restored.Kind() != KindMulti {
		t.Errorf("restored kind = %q, want %q", restored.Kind(), KindMulti)
	}
	if restored.Count() != 3 {
		t.Fatalf("restored Count = %d, want 3", restored.Count())
	}

	multi, ok := restored.(*MultiTracker)
	if !ok {
		t.Fatalf("restored tracker is %T, want *MultiTracker", restored)
	}
	children := multi.Children()
	if len(children) != 2 {
		t.Fatalf("restored children = %d, want 2", len(children))
	}
	if children[0].Kind() != KindPlain || children[1].Kind() != KindSeeded {
		t.Errorf("restored child kinds = %q, %q", children[0].Kind(), children[1].Kind())
	}

	want := drainPKHs(t, tr)
	got := drainPKHs(t, restored)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRestoreRejectsUnknownKind(t *testing.T) {
	if _, err := Restore(Record{Kind: "bogus"}); err == nil {
		t.Error("unknown kind accepted")
	}
	if _, err := Snapshot(fakeTracker{}); err == nil {
		t.Error("unknown tracker type accepted")
	}
}

func TestRestoreRejectsMissingPayload(t *testing.T) {
	for _, kind := range []Kind{KindPlain, KindCompressed, KindSeeded, KindMulti} {
		if _, err := Restore(Record{Kind: kind}); err == nil {
			t.Errorf("kind %q: record without payload accepted", kind)
		}
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte("not json")); err == nil {
		t.Error("garbage bytes accepted")
	}
}

type fakeTracker struct{}

func (fakeTracker) Kind() Kind                          { return "fake" }
func (fakeTracker) Count() int                          { return 0 }
func (fakeTracker) Exhausted() bool                     { return true }
func (fakeTracker) More(int) ([]lamport.KeyPair, error) { return nil, ErrNoKeysLeft }
func (fakeTracker) GetOne() (lamport.KeyPair, error)    { return lamport.KeyPair{}, ErrNoKeysLeft }
func (fakeTracker) GetN(int) ([]lamport.KeyPair, error) { return nil, ErrNoKeysLeft }
