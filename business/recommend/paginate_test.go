package recommend

import "testing"

func seqIDs(n int) []uint64 {
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}
	return ids
}

func TestPaginateEmptyInput(t *testing.T) {
	if got := PaginateWithFallback(nil, 0, 50); len(got) != 0 {
		t.Errorf("expected empty page, got %v", got)
	}
}

func TestPaginateFullPageKeepsOrder(t *testing.T) {
	ids := seqIDs(10)

	got := PaginateWithFallback(ids, 1, 3)

	want := []uint64{4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("page length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPaginatePastEndReturnsSample(t *testing.T) {
	ids := seqIDs(10)

	got := PaginateWithFallback(ids, 5, 4)

	if len(got) != 4 {
		t.Fatalf("sample length = %d, want 4", len(got))
	}
	members := map[uint64]bool{}
	for _, id := range ids {
		members[id] = true
	}
	seen := map[uint64]bool{}
	for _, id := range got {
		if !members[id] {
			t.Errorf("sampled id %d not in input", id)
		}
		if seen[id] {
			t.Errorf("sample repeated id %d", id)
		}
		seen[id] = true
	}
}

func TestPaginateShortTailPadsFromShownItems(t *testing.T) {
	ids := seqIDs(10)

	got := PaginateWithFallback(ids, 2, 4)

	if len(got) != 4 {
		t.Fatalf("page length = %d, want 4", len(got))
	}
	if got[0] != 9 || got[1] != 10 {
		t.Errorf("tail head = %v, want [9 10 ...]", got[:2])
	}
	// Padding resamples from what was already shown, with replacement.
	for _, id := range got[2:] {
		if id < 1 || id > 10 {
			t.Errorf("padded id %d not in pool", id)
		}
	}
}

func TestPaginateNegativePageClampsToFirst(t *testing.T) {
	ids := seqIDs(5)

	got := PaginateWithFallback(ids, -3, 2)
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v, want first page", got)
	}
}
