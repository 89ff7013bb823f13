package stripe

// Dim is one dimension of a tensor shape: its element count and the stride
// (in elements) used to step to the next element along that dimension.
type Dim struct {
	Size   uint64
	Stride uint64
}

// Shape is a tensor's dimension vector. ElemBytes is carried alongside
// because the scheduler only ever needs byte sizes, never dtype-aware
// arithmetic.
type Shape struct {
	Dims      []Dim
	ElemBytes uint64
}

// Sizes returns the element count of each dimension, outermost first.
func (s Shape) Sizes() []uint64 {
	sizes := make([]uint64, len(s.Dims))
	for i, d := range s.Dims {
		sizes[i] = d.Size
	}
	return sizes
}

// ByteSize returns the number of bytes a compactly-strided instance of this
// shape occupies: the product of every dimension's size, times the element
// width.
func (s Shape) ByteSize() uint64 {
	total := s.ElemBytes
	for _, d := range s.Dims {
		total *= d.Size
	}
	return total
}

// Restride returns a copy of s with strides recomputed for compact
// row-major layout: the last dimension has stride 1, and each dimension
// going outward is strided by the product of the sizes of the dimensions
// after it.
func (s Shape) Restride() Shape {
	out := Shape{Dims: make([]Dim, len(s.Dims)), ElemBytes: s.ElemBytes}
	stride := uint64(1)
	for i := len(s.Dims) - 1; i >= 0; i-- {
		out.Dims[i] = Dim{Size: s.Dims[i].Size, Stride: stride}
		stride *= s.Dims[i].Size
	}
	return out
}

// Collapsed returns a copy of s with every dimension's size set to 1,
// stride left untouched. Used to build the per-element shapes that swap
// blocks index with.
func (s Shape) Collapsed() Shape {
	out := Shape{Dims: make([]Dim, len(s.Dims)), ElemBytes: s.ElemBytes}
	for i, d := range s.Dims {
		out.Dims[i] = Dim{Size: 1, Stride: d.Stride}
	}
	return out
}
