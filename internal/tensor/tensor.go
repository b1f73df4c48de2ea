package tensor

// #region constructors

// New builds a tensor from a shape and row-major data. The data length must
// match the shape's element count.
func New(shape []int, data []float64) (*Tensor, error) {
	n := NumElems(shape)
	if len(data) != n {
		return nil, &ShapeError{Op: "new", Axis: -1, Shape: shape,
			Reason: "data length does not match shape element count"}
	}
	return &Tensor{Shape: append([]int(nil), shape...), Data: data}, nil
}

// Zeros builds an all-zero tensor of the given shape.
func Zeros(shape []int) *Tensor {
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, NumElems(shape)),
	}
}

// Full builds a tensor of the given shape with every entry set to v.
func Full(shape []int, v float64) *Tensor {
	t := Zeros(shape)
	for i := range t.Data {
		t.Data[i] = v
	}
	return t
}

// #endregion constructors

// #region accessors

// Rank returns the number of axes.
func (t *Tensor) Rank() int { return len(t.Shape) }

// Len returns the total number of elements.
func (t *Tensor) Len() int { return len(t.Data) }

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  append([]float64(nil), t.Data...),
	}
}

// Sum returns the sum of all entries.
func (t *Tensor) Sum() float64 {
	var s float64
	for _, v := range t.Data {
		s += v
	}
	return s
}

// Scale multiplies every entry by f in place and returns the tensor.
func (t *Tensor) Scale(f float64) *Tensor {
	for i := range t.Data {
		t.Data[i] *= f
	}
	return t
}

// #endregion accessors

// #region shape-helpers

// NumElems returns the element count of a shape.
func NumElems(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// SameShape reports whether two shapes are identical.
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// rowMajorStrides computes row-major strides for a shape.
func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// #endregion shape-helpers

// #region grid

// Grid returns the per-axis patch counts for a signal/patch shape pair,
// validating the exact-divisibility invariant.
func Grid(signalShape, patchShape []int) ([]int, error) {
	if len(patchShape) != len(signalShape) {
		return nil, &ShapeError{Op: "partition", Axis: -1, Shape: signalShape, Patch: patchShape,
			Reason: "patch rank does not match signal rank"}
	}
	counts := make([]int, len(signalShape))
	for i := range signalShape {
		if patchShape[i] <= 0 {
			return nil, &ShapeError{Op: "partition", Axis: i, Shape: signalShape, Patch: patchShape,
				Reason: "patch axis length must be positive"}
		}
		if signalShape[i]%patchShape[i] != 0 {
			return nil, &ShapeError{Op: "partition", Axis: i, Shape: signalShape, Patch: patchShape,
				Reason: "signal axis not divisible by patch axis"}
		}
		counts[i] = signalShape[i] / patchShape[i]
	}
	return counts, nil
}

// #endregion grid

// #region partition

// Partition splits a signal into equally shaped patches. The result has shape
// [N, p0, p1, ...] where N is the patch count and patches are enumerated in
// row-major order of their per-axis grid indices. When patchShape is nil or
// equals the signal shape, the signal itself is returned as the single patch.
func Partition(signal *Tensor, patchShape []int) (*Tensor, error) {
	if patchShape == nil || SameShape(signal.Shape, patchShape) {
		return signal, nil
	}

	counts, err := Grid(signal.Shape, patchShape)
	if err != nil {
		return nil, err
	}

	d := signal.Rank()
	numPatches := NumElems(counts)
	patchLen := NumElems(patchShape)
	srcStrides := rowMajorStrides(signal.Shape)

	outShape := append([]int{numPatches}, patchShape...)
	out := Zeros(outShape)

	// Explicit index permutation: destination (patch, offset) pairs walk the
	// source through grid coordinate * patch extent + intra-patch offset.
	gridIdx := make([]int, d)
	offIdx := make([]int, d)
	for p := 0; p < numPatches; p++ {
		decode(p, counts, gridIdx)
		for o := 0; o < patchLen; o++ {
			decode(o, patchShape, offIdx)
			src := 0
			for i := 0; i < d; i++ {
				src += (gridIdx[i]*patchShape[i] + offIdx[i]) * srcStrides[i]
			}
			out.Data[p*patchLen+o] = signal.Data[src]
		}
	}
	return out, nil
}

// #endregion partition

// #region reassemble

// Reassemble is the exact inverse of Partition. A patch tensor of shape
// [N, p0, p1, ...] is stitched back into outShape using the same row-major
// grid enumeration. When the patch tensor already has the target shape it is
// returned unchanged (single-patch case).
func Reassemble(patches *Tensor, outShape []int) (*Tensor, error) {
	if NumElems(outShape) != patches.Len() {
		return nil, &ShapeError{Op: "reassemble", Axis: -1, Shape: outShape, Patch: patches.Shape,
			Reason: "output element count does not match patch element count"}
	}

	if patches.Rank() == len(outShape) {
		if !SameShape(patches.Shape, outShape) {
			return nil, &ShapeError{Op: "reassemble", Axis: -1, Shape: outShape, Patch: patches.Shape,
				Reason: "single-patch shape does not match output shape"}
		}
		return patches, nil
	}
	if patches.Rank() != len(outShape)+1 {
		return nil, &ShapeError{Op: "reassemble", Axis: -1, Shape: outShape, Patch: patches.Shape,
			Reason: "patch tensor rank must be output rank plus one"}
	}

	patchShape := patches.Shape[1:]
	counts, err := Grid(outShape, patchShape)
	if err != nil {
		return nil, err
	}

	d := len(outShape)
	numPatches := NumElems(counts)
	patchLen := NumElems(patchShape)
	dstStrides := rowMajorStrides(outShape)

	out := Zeros(outShape)
	gridIdx := make([]int, d)
	offIdx := make([]int, d)
	for p := 0; p < numPatches; p++ {
		decode(p, counts, gridIdx)
		for o := 0; o < patchLen; o++ {
			decode(o, patchShape, offIdx)
			dst := 0
			for i := 0; i < d; i++ {
				dst += (gridIdx[i]*patchShape[i] + offIdx[i]) * dstStrides[i]
			}
			out.Data[dst] = patches.Data[p*patchLen+o]
		}
	}
	return out, nil
}

// #endregion reassemble

// #region decode

// decode expands a flat row-major index into per-axis coordinates.
func decode(flat int, shape []int, idx []int) {
	for i := len(shape) - 1; i >= 0; i-- {
		idx[i] = flat % shape[i]
		flat /= shape[i]
	}
}

// #endregion decode
