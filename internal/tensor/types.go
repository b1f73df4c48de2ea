package tensor

import "fmt"

// #region tensor
// Tensor is a dense n-dimensional array of non-negative reals in row-major
// (C) order. Shape entries are always positive.
type Tensor struct {
	Shape []int
	Data  []float64
}

// #endregion tensor

// #region shape-error
// ShapeError reports a fatal shape violation: a non-divisible patch shape,
// a rank mismatch, or an element-count mismatch during reassembly.
type ShapeError struct {
	Op     string // "partition" | "reassemble" | "encode"
	Axis   int    // offending axis, -1 when the whole shape is at fault
	Shape  []int  // shape under validation
	Patch  []int  // patch shape involved, nil when not applicable
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Axis >= 0 {
		return fmt.Sprintf("tensor: %s: axis %d: %s (shape %v, patch %v)", e.Op, e.Axis, e.Reason, e.Shape, e.Patch)
	}
	if e.Patch != nil {
		return fmt.Sprintf("tensor: %s: %s (shape %v, patch %v)", e.Op, e.Reason, e.Shape, e.Patch)
	}
	return fmt.Sprintf("tensor: %s: %s (shape %v)", e.Op, e.Reason, e.Shape)
}

// #endregion shape-error
