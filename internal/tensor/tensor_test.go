package tensor

import (
	"errors"
	"testing"
)

func seq(n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	return data
}

func TestPartitionSinglePatch(t *testing.T) {
	sig, err := New([]int{4, 4}, seq(16))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// nil patch shape: whole signal is the single patch, no reshaping
	got, err := Partition(sig, nil)
	if err != nil {
		t.Fatalf("partition nil: %v", err)
	}
	if got != sig {
		t.Fatal("expected signal returned unchanged for nil patch shape")
	}

	// patch shape equal to signal shape behaves the same
	got, err = Partition(sig, []int{4, 4})
	if err != nil {
		t.Fatalf("partition full: %v", err)
	}
	if got != sig {
		t.Fatal("expected signal returned unchanged for full patch shape")
	}
}

func TestPartition2x2(t *testing.T) {
	sig, _ := New([]int{4, 4}, seq(16))

	patches, err := Partition(sig, []int{2, 2})
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if !SameShape(patches.Shape, []int{4, 2, 2}) {
		t.Fatalf("unexpected patch tensor shape %v", patches.Shape)
	}

	// Row-major grid order: patch 0 is the top-left block.
	want0 := []float64{0, 1, 4, 5}
	for i, w := range want0 {
		if patches.Data[i] != w {
			t.Fatalf("patch 0 entry %d: got %f want %f", i, patches.Data[i], w)
		}
	}
	// Patch 1 is the top-right block.
	want1 := []float64{2, 3, 6, 7}
	for i, w := range want1 {
		if patches.Data[4+i] != w {
			t.Fatalf("patch 1 entry %d: got %f want %f", i, patches.Data[4+i], w)
		}
	}
	// Patch 3 is the bottom-right block.
	want3 := []float64{10, 11, 14, 15}
	for i, w := range want3 {
		if patches.Data[12+i] != w {
			t.Fatalf("patch 3 entry %d: got %f want %f", i, patches.Data[12+i], w)
		}
	}
}

func TestPartitionNotDivisible(t *testing.T) {
	sig, _ := New([]int{6, 6}, seq(36))

	_, err := Partition(sig, []int{4, 4})
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if shapeErr.Axis != 0 {
		t.Fatalf("expected axis 0 in error, got %d", shapeErr.Axis)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		shape []int
		patch []int
	}{
		{[]int{8}, []int{2}},
		{[]int{8}, []int{8}},
		{[]int{4, 4}, []int{2, 2}},
		{[]int{4, 8}, []int{4, 2}},
		{[]int{2, 4, 8}, []int{2, 2, 2}},
		{[]int{4, 4, 4}, []int{4, 4, 4}},
	}
	for _, c := range cases {
		sig, _ := New(c.shape, seq(NumElems(c.shape)))
		patches, err := Partition(sig, c.patch)
		if err != nil {
			t.Fatalf("partition %v/%v: %v", c.shape, c.patch, err)
		}
		back, err := Reassemble(patches, c.shape)
		if err != nil {
			t.Fatalf("reassemble %v/%v: %v", c.shape, c.patch, err)
		}
		if !SameShape(back.Shape, c.shape) {
			t.Fatalf("round trip shape %v, want %v", back.Shape, c.shape)
		}
		for i := range sig.Data {
			if back.Data[i] != sig.Data[i] {
				t.Fatalf("round trip %v/%v: entry %d changed: %f != %f",
					c.shape, c.patch, i, back.Data[i], sig.Data[i])
			}
		}
	}
}

func TestReassembleCountMismatch(t *testing.T) {
	patches, _ := New([]int{4, 2, 2}, seq(16))

	_, err := Reassemble(patches, []int{8, 8})
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
}

func TestGrid(t *testing.T) {
	counts, err := Grid([]int{4, 8}, []int{2, 2})
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if counts[0] != 2 || counts[1] != 4 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
