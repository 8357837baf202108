package taskgraph

import (
	"reflect"
	"testing"
)

func TestCanonical(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   []int
		want []int
	}{
		{"nil", nil, []int{}},
		{"empty", []int{}, []int{}},
		{"sorted", []int{1, 2, 3}, []int{1, 2, 3}},
		{"unsorted", []int{9, 2, 5}, []int{2, 5, 9}},
		{"duplicates", []int{4, 4, 1, 4, 1}, []int{1, 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := canonical(tc.in)
			if got == nil {
				t.Fatal("canonical returned nil")
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNormalizeIDsRejectsMissing(t *testing.T) {
	t.Parallel()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s.Save(&Task{ID: 1, Subject: "only", Status: StatusPending}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, err = s.normalizeIDs([]int{1, 999})
	if err == nil {
		t.Fatal("Expected error for missing id")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}

	ids, err := s.normalizeIDs([]int{1, 1, 1})
	if err != nil {
		t.Fatalf("normalizeIDs failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []int{1}) {
		t.Errorf("Expected [1], got %v", ids)
	}
}

func TestReconcileRepairsStaleReverseEdges(t *testing.T) {
	t.Parallel()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	// Write an inconsistent pair directly: 2 claims to be blocked by 1,
	// but 1 does not know it blocks 2.
	if err := s.Save(&Task{ID: 1, Subject: "upstream", Status: StatusPending}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(&Task{ID: 2, Subject: "downstream", Status: StatusPending, BlockedBy: []int{1}}); err != nil {
		t.Fatal(err)
	}

	// Reconciling 2 with its current edges repairs 1's reverse edge.
	if err := reconcile(s, 2, []int{1}, nil); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	one, err := s.Load(1)
	if err != nil {
		t.Fatal(err)
	}
	if !contains(one.Blocks, 2) {
		t.Errorf("Expected task 1 blocks to contain 2, got %v", one.Blocks)
	}
}

func TestReconcileRemovesDroppedEdges(t *testing.T) {
	t.Parallel()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if err := s.Save(&Task{ID: 1, Subject: "a", Status: StatusPending, Blocks: []int{2}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(&Task{ID: 2, Subject: "b", Status: StatusPending, BlockedBy: []int{1}}); err != nil {
		t.Fatal(err)
	}

	// Task 2 no longer depends on anything.
	if err := reconcile(s, 2, nil, nil); err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	one, err := s.Load(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(one.Blocks) != 0 {
		t.Errorf("Expected task 1 blocks to be empty, got %v", one.Blocks)
	}
	two, err := s.Load(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(two.BlockedBy) != 0 {
		t.Errorf("Expected task 2 blockedBy to be empty, got %v", two.BlockedBy)
	}
}

func TestReconcileMissingTargetIsNoOp(t *testing.T) {
	t.Parallel()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s.Save(&Task{ID: 1, Subject: "a", Status: StatusPending}); err != nil {
		t.Fatal(err)
	}

	if err := reconcile(s, 99, []int{1}, nil); err != nil {
		t.Fatalf("reconcile on missing target should not error, got %v", err)
	}
	one, err := s.Load(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(one.Blocks) != 0 || len(one.BlockedBy) != 0 {
		t.Errorf("Expected task 1 untouched, got %+v", one)
	}
}

func TestClearDependencyIdempotent(t *testing.T) {
	t.Parallel()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if err := s.Save(&Task{ID: 1, Subject: "done", Status: StatusCompleted, Blocks: []int{2, 3}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(&Task{ID: 2, Subject: "waits", Status: StatusPending, BlockedBy: []int{1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(&Task{ID: 3, Subject: "also waits", Status: StatusPending, BlockedBy: []int{1, 2}}); err != nil {
		t.Fatal(err)
	}

	for pass := 0; pass < 2; pass++ {
		if err := clearDependency(s, 1); err != nil {
			t.Fatalf("clearDependency pass %d failed: %v", pass, err)
		}

		one, _ := s.Load(1)
		two, _ := s.Load(2)
		three, _ := s.Load(3)

		if len(one.Blocks) != 0 {
			t.Errorf("Pass %d: expected task 1 blocks cleared, got %v", pass, one.Blocks)
		}
		if contains(two.BlockedBy, 1) {
			t.Errorf("Pass %d: task 2 still blocked by 1: %v", pass, two.BlockedBy)
		}
		if !reflect.DeepEqual(three.BlockedBy, []int{2}) {
			t.Errorf("Pass %d: expected task 3 blockedBy [2], got %v", pass, three.BlockedBy)
		}
	}
}
