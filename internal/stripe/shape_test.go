package stripe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sarchlab/stripesched/internal/stripe"
)

func TestShapeByteSize(t *testing.T) {
	s := stripe.Shape{
		Dims:      []stripe.Dim{{Size: 4}, {Size: 8}},
		ElemBytes: 2,
	}
	assert.Equal(t, uint64(64), s.ByteSize())
}

func TestShapeByteSizeNoDims(t *testing.T) {
	s := stripe.Shape{ElemBytes: 4}
	assert.Equal(t, uint64(4), s.ByteSize())
}

func TestShapeSizes(t *testing.T) {
	s := stripe.Shape{Dims: []stripe.Dim{{Size: 4}, {Size: 8}}}
	assert.Equal(t, []uint64{4, 8}, s.Sizes())
}

func TestShapeRestrideProducesCompactRowMajorStrides(t *testing.T) {
	s := stripe.Shape{
		Dims:      []stripe.Dim{{Size: 2}, {Size: 3}, {Size: 4}},
		ElemBytes: 1,
	}
	out := s.Restride()
	assert.Equal(t, []stripe.Dim{
		{Size: 2, Stride: 12},
		{Size: 3, Stride: 4},
		{Size: 4, Stride: 1},
	}, out.Dims)
}

func TestShapeCollapsedKeepsStridesFlattensSizes(t *testing.T) {
	s := stripe.Shape{Dims: []stripe.Dim{{Size: 4, Stride: 8}, {Size: 2, Stride: 1}}}
	out := s.Collapsed()
	assert.Equal(t, []stripe.Dim{{Size: 1, Stride: 8}, {Size: 1, Stride: 1}}, out.Dims)
}
