package keytracker

import (
	"encoding/json"
	"fmt"

	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/lamport"
)

// Record is the persisted form of a tracker: the kind tag plus exactly
// one kind-specific section. An external store (package keystore) reads
// and writes these; the counters inside must be written back immediately
// after every consuming call, since a crash between key consumption and
// the persisted record is the principal key-reuse hazard.
type Record struct {
	Kind       Kind              `json:"kind"`
	Plain      *PlainRecord      `json:"plain,omitempty"`
	Compressed *CompressedRecord `json:"compressed,omitempty"`
	Seeded     *SeededRecord     `json:"seeded,omitempty"`
	Multi      *MultiRecord      `json:"multi,omitempty"`
}

// PlainRecord holds a plain tracker's full key queue.
type PlainRecord struct {
	Keys []lamport.KeyPair `json:"keys"`
}

// CompressedRecord holds a compressed tracker's {secret, pkh} queue.
type CompressedRecord struct {
	Keys []CompressedKeyPair `json:"keys"`
}

// SeededRecord holds a seeded tracker's seed and counters.
type SeededRecord struct {
	Seed   types.Hash `json:"seed"`
	Nonce  uint64     `json:"nonce"`
	Issued uint64     `json:"issued"`
}

// MultiRecord holds the ordered child records of a multi tracker.
type MultiRecord struct {
	Children []Record `json:"children"`
}

// Snapshot captures a tracker's current state as a Record.
func Snapshot(t Tracker) (Record, error) {
	switch tr := t.(type) {
	case *PlainTracker:
		return Record{Kind: KindPlain, Plain: &PlainRecord{Keys: tr.Snapshot()}}, nil
	case *CompressedTracker:
		return Record{Kind: KindCompressed, Compressed: &CompressedRecord{Keys: tr.Snapshot()}}, nil
	case *SeededTracker:
		seed, nonce, issued := tr.Snapshot()
		return Record{Kind: KindSeeded, Seeded: &SeededRecord{Seed: seed, Nonce: nonce, Issued: issued}}, nil
	case *MultiTracker:
		children := tr.Children()
		recs := make([]Record, len(children))
		for i, c := range children {
			rec, err := Snapshot(c)
			if err != nil {
				return Record{}, err
			}
			recs[i] = rec
		}
		return Record{Kind: KindMulti, Multi: &MultiRecord{Children: recs}}, nil
	default:
		return Record{}, fmt.Errorf("%w: %T", ErrUnknownKind, t)
	}
}

// Restore rebuilds a tracker from its persisted record.
func Restore(rec Record) (Tracker, error) {
	switch rec.Kind {
	case KindPlain:
		if rec.Plain == nil {
			return nil, fmt.Errorf("keytracker: plain record missing payload")
		}
		return restorePlain(rec.Plain.Keys), nil
	case KindCompressed:
		if rec.Compressed == nil {
			return nil, fmt.Errorf("keytracker: compressed record missing payload")
		}
		return restoreCompressed(rec.Compressed.Keys), nil
	case KindSeeded:
		if rec.Seeded == nil {
			return nil, fmt.Errorf("keytracker: seeded record missing payload")
		}
		return RestoreSeededTracker(rec.Seeded.Seed, rec.Seeded.Nonce, rec.Seeded.Issued), nil
	case KindMulti:
		if rec.Multi == nil {
			return nil, fmt.Errorf("keytracker: multi record missing payload")
		}
		children := make([]Tracker, len(rec.Multi.Children))
		for i, childRec := range rec.Multi.Children {
			child, err := Restore(childRec)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		return NewMultiTracker(children...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
}

// Marshal serializes a tracker's snapshot as canonical JSON.
func Marshal(t Tracker) ([]byte, error) {
	rec, err := Snapshot(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// Unmarshal rebuilds a tracker from JSON produced by Marshal.
func Unmarshal(data []byte) (Tracker, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("keytracker: decoding record: %w", err)
	}
	return Restore(rec)
}
