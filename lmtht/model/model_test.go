package model

import "testing"

func TestHeightOfPowersOfTwo(t *testing.T) {
	cases := map[Index]uint8{
		1: 0, 2: 1, 4: 2, 8: 3, 64: 6,
	}
	for n, want := range cases {
		if got := HeightOf(n); got != want {
			t.Errorf("HeightOf(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestHeightOfUnbalanced(t *testing.T) {
	cases := map[Index]uint8{
		3:   1,
		5:   1,
		6:   2,
		7:   2,
		36:  3,
		100: 4,
	}
	for n, want := range cases {
		if got := HeightOf(n); got != want {
			t.Errorf("HeightOf(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestIsPBST(t *testing.T) {
	if !IsPBST(40, 3) {
		t.Fatal("(40,3) should be a pbst: 40 is a multiple of 8")
	}
	if IsPBST(100, 4) {
		t.Fatal("(100,4) should not be a pbst: 100 is not a multiple of 16")
	}
	if !IsPBST(100, 2) {
		t.Fatal("(100,2) should be a pbst: 100 is a multiple of 4")
	}
}

// TestRangeS5 reproduces spec scenario S5: after appending 100 values,
// the subtree rooted at (40,3) covers leaves [33..40].
func TestRangeS5(t *testing.T) {
	lo, hi := Range(40, 3)
	if lo != 33 || hi != 40 {
		t.Fatalf("Range(40,3) = [%d,%d], want [33,40]", lo, hi)
	}
	if Span(40, 3) != 8 {
		t.Fatalf("Span(40,3) = %d, want 8", Span(40, 3))
	}
}

func TestRangeUnbalanced(t *testing.T) {
	// node (100,4) is the generation-100 root: covers the whole sequence.
	lo, hi := Range(100, 4)
	if lo != 1 || hi != 100 {
		t.Fatalf("Range(100,4) = [%d,%d], want [1,100]", lo, hi)
	}
	// node (100,3) is its right child: covers the remainder after the
	// leading 64-leaf pbst block.
	lo, hi = Range(100, 3)
	if lo != 65 || hi != 100 {
		t.Fatalf("Range(100,3) = [%d,%d], want [65,100]", lo, hi)
	}
}

func TestTreeRootAndHeight(t *testing.T) {
	tr := New(100)
	root := tr.Root()
	if root.I != 100 || root.J != 4 {
		t.Fatalf("Root() = %+v, want {100 4}", root)
	}
	if tr.Height() != 4 {
		t.Fatalf("Height() = %d, want 4", tr.Height())
	}
}

func TestEmptyTree(t *testing.T) {
	tr := New(0)
	if !tr.Empty() {
		t.Fatal("Empty() should be true for n=0")
	}
	if !tr.Root().IsZero() {
		t.Fatal("Root() should be the zero address for n=0")
	}
}

func TestINodesCountMatchesHeight(t *testing.T) {
	for _, n := range []Index{1, 2, 3, 4, 5, 36, 100} {
		tr := New(n)
		plans := tr.INodes()
		if len(plans) != int(tr.Height()) {
			t.Fatalf("n=%d: len(INodes())=%d, want %d", n, len(plans), tr.Height())
		}
		for idx, p := range plans {
			wantJ := uint8(idx + 1)
			if p.Addr.J != wantJ || p.Addr.I != n {
				t.Fatalf("n=%d: INodes()[%d].Addr = %+v, want {%d %d}", n, idx, p.Addr, n, wantJ)
			}
			if p.Right.I != n || p.Right.J != wantJ-1 {
				t.Fatalf("n=%d: INodes()[%d].Right = %+v, want right child (i, j-1)", n, idx, p.Right)
			}
			if p.Left.I >= p.Addr.I {
				t.Fatalf("n=%d: INodes()[%d].Left.I=%d should be < %d", n, idx, p.Left.I, p.Addr.I)
			}
		}
	}
}

// TestINodesN100 checks the exact right-spine decomposition worked out by
// hand for n=100 = 64 + 32 + 4: two unbalanced levels (j=4,3) whose
// left children are the pbst blocks at (64,6) and (96,5), plus the
// balanced tail (j=2,1) down to the leaf.
func TestINodesN100(t *testing.T) {
	plans := New(100).INodes()
	byJ := map[uint8]INodePlan{}
	for _, p := range plans {
		byJ[p.Addr.J] = p
	}
	if got := byJ[4].Left; got != (Address{I: 64, J: 6}) {
		t.Fatalf("left child of (100,4) = %+v, want {64 6}", got)
	}
	if got := byJ[3].Left; got != (Address{I: 96, J: 5}) {
		t.Fatalf("left child of (100,3) = %+v, want {96 5}", got)
	}
	if got := byJ[2].Left; got != (Address{I: 98, J: 1}) {
		t.Fatalf("left child of (100,2) = %+v, want {98 1}", got)
	}
	if got := byJ[1].Left; got != (Address{I: 99, J: 0}) {
		t.Fatalf("left child of (100,1) = %+v, want {99 0}", got)
	}
}

func TestPathToRoot(t *testing.T) {
	tr := New(100)
	root := tr.Root()
	steps, ok := tr.PathTo(root.I, root.J)
	if !ok {
		t.Fatal("PathTo(root) should succeed with zero steps")
	}
	if len(steps) != 0 {
		t.Fatalf("PathTo(root) = %d steps, want 0", len(steps))
	}
}

func TestPathToLeaf(t *testing.T) {
	tr := New(100)
	steps, ok := tr.PathTo(33, 0)
	if !ok {
		t.Fatal("PathTo(33,0) should succeed")
	}
	if len(steps) == 0 {
		t.Fatal("PathTo(33,0) should take at least one step from the root")
	}
	last := steps[len(steps)-1]
	if last.To != (Address{I: 33, J: 0}) {
		t.Fatalf("last step lands on %+v, want leaf (33,0)", last.To)
	}
}

func TestPathToOutOfRange(t *testing.T) {
	tr := New(10)
	if _, ok := tr.PathTo(11, 0); ok {
		t.Fatal("PathTo should fail for i > n")
	}
	if _, ok := tr.PathTo(0, 0); ok {
		t.Fatal("PathTo should fail for i == 0")
	}
}
