package hashgraph

import (
	"testing"

	"github.com/champii/hashgraph/common"
)

func TestEventStoreInsertRoot(t *testing.T) {
	s := NewEventStore()

	e := NewEvent(0, common.PeerID(1), common.ZeroHash, common.ZeroHash, 100, nil, nil)

	ok, err := s.Insert(e)
	if err != nil || !ok {
		t.Fatalf("expected root insert to succeed, got ok=%v err=%v", ok, err)
	}

	got, ok := s.Get(e.Hash)
	if !ok || got != e {
		t.Fatalf("expected to retrieve inserted event by hash")
	}

	last, ok := s.LastOf(common.PeerID(1))
	if !ok || last != 0 {
		t.Fatalf("expected last sequence 0, got %d ok=%v", last, ok)
	}
}

func TestEventStoreRejectsDuplicate(t *testing.T) {
	s := NewEventStore()

	e := NewEvent(0, common.PeerID(1), common.ZeroHash, common.ZeroHash, 100, nil, nil)
	s.Insert(e)

	ok, err := s.Insert(e)
	if ok || err != ErrDuplicateEvent {
		t.Fatalf("expected duplicate rejection, got ok=%v err=%v", ok, err)
	}
}

func TestEventStoreRejectsSequenceGap(t *testing.T) {
	s := NewEventStore()

	root := NewEvent(0, common.PeerID(1), common.ZeroHash, common.ZeroHash, 100, nil, nil)
	s.Insert(root)

	skip := NewEvent(2, common.PeerID(1), root.Hash, common.ZeroHash, 200, nil, nil)

	ok, err := s.Insert(skip)
	if ok || err != ErrSequenceMismatch {
		t.Fatalf("expected sequence mismatch rejection, got ok=%v err=%v", ok, err)
	}
}

func TestEventStoreRejectsUnknownSelfParent(t *testing.T) {
	s := NewEventStore()

	e := NewEvent(1, common.PeerID(1), common.Hash(999), common.ZeroHash, 100, nil, nil)

	ok, err := s.Insert(e)
	if ok || err != ErrUnknownParent {
		t.Fatalf("expected unknown parent rejection, got ok=%v err=%v", ok, err)
	}
}

func TestEventStoreRejectsSelfParentCreatorMismatch(t *testing.T) {
	s := NewEventStore()

	rootA := NewEvent(0, common.PeerID(1), common.ZeroHash, common.ZeroHash, 100, nil, nil)
	s.Insert(rootA)

	bad := NewEvent(0, common.PeerID(2), rootA.Hash, common.ZeroHash, 150, nil, nil)

	ok, err := s.Insert(bad)
	if ok || err != ErrSelfParentMismatch {
		t.Fatalf("expected self-parent mismatch rejection, got ok=%v err=%v", ok, err)
	}
}

func TestEventStoreDiffWithinLimitHasNoMore(t *testing.T) {
	s := NewEventStore()

	creator := common.PeerID(1)

	var prev common.Hash
	for i := uint64(0); i <= 10; i++ {
		e := NewEvent(i, creator, prev, common.ZeroHash, 100+i, nil, nil)
		if _, err := s.Insert(e); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}

		prev = e.Hash
	}

	diff := s.Diff(common.PeerID(99), map[common.PeerID]uint64{creator: 6}, 16)

	events, ok := diff.Diff[creator]
	if !ok {
		t.Fatalf("expected diff entry for creator")
	}

	if len(events) != 4 {
		t.Fatalf("expected events 7,8,9,10 (4 events), got %d", len(events))
	}

	if diff.HasMore {
		t.Fatalf("expected has_more=false, gap did not exceed limit")
	}

	if diff.Known[creator] != 10 {
		t.Fatalf("expected known[creator]=10, got %d", diff.Known[creator])
	}
}

func TestEventStoreDiffUnknownCreatorSentInFull(t *testing.T) {
	s := NewEventStore()

	creator := common.PeerID(1)

	e := NewEvent(0, creator, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	s.Insert(e)

	diff := s.Diff(common.PeerID(99), map[common.PeerID]uint64{}, 1)

	events, ok := diff.Diff[creator]
	if !ok || len(events) != 1 {
		t.Fatalf("expected unknown creator sent in full, got %v", events)
	}

	if diff.HasMore {
		t.Fatalf("expected has_more=false for a single-event unknown creator")
	}
}

func TestEventStorePurgeKeepsKnown(t *testing.T) {
	s := NewEventStore()

	creator := common.PeerID(1)

	root := NewEvent(0, creator, common.ZeroHash, common.ZeroHash, 100, nil, nil)
	s.Insert(root)

	second := NewEvent(1, creator, root.Hash, common.ZeroHash, 150, nil, nil)
	s.Insert(second)

	s.Purge([]common.Hash{root.Hash})

	if _, ok := s.Get(root.Hash); ok {
		t.Fatalf("expected purged event to be gone")
	}

	last, ok := s.LastOf(creator)
	if !ok || last != 1 {
		t.Fatalf("expected known last-sequence to survive purge, got %d ok=%v", last, ok)
	}
}
