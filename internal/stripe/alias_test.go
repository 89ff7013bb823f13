package stripe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sarchlab/stripesched/internal/stripe"
)

func TestAliasCompareDifferentBaseIsNone(t *testing.T) {
	a := stripe.AliasInfo{BaseRef: "X"}
	b := stripe.AliasInfo{BaseRef: "Y"}
	assert.Equal(t, stripe.AliasNone, a.Compare(b))
}

func TestAliasCompareIdenticalAccessIsExact(t *testing.T) {
	a := stripe.AliasInfo{
		BaseRef: "X",
		Access:  []stripe.Affine{stripe.ZeroAffine},
		Extents: []uint64{1},
	}
	b := a
	assert.Equal(t, stripe.AliasExact, a.Compare(b))
}

func TestAliasCompareProvablyDisjointOffsetsIsNone(t *testing.T) {
	a := stripe.AliasInfo{
		BaseRef: "X",
		Access:  []stripe.Affine{stripe.Var("i")},
		Extents: []uint64{4},
	}
	b := stripe.AliasInfo{
		BaseRef: "X",
		Access:  []stripe.Affine{stripe.Var("i").Add(stripe.ConstAffine(8))},
		Extents: []uint64{4},
	}
	assert.Equal(t, stripe.AliasNone, a.Compare(b))
}

func TestAliasCompareUnprovableOffsetIsPartial(t *testing.T) {
	a := stripe.AliasInfo{
		BaseRef: "X",
		Access:  []stripe.Affine{stripe.Var("i")},
		Extents: []uint64{4},
	}
	b := stripe.AliasInfo{
		BaseRef: "X",
		Access:  []stripe.Affine{stripe.Var("i").Add(stripe.ConstAffine(2))},
		Extents: []uint64{4},
	}
	assert.Equal(t, stripe.AliasPartial, a.Compare(b))
}

func TestAliasCompareDifferentVariableIsPartial(t *testing.T) {
	a := stripe.AliasInfo{
		BaseRef: "X",
		Access:  []stripe.Affine{stripe.Var("i")},
		Extents: []uint64{4},
	}
	b := stripe.AliasInfo{
		BaseRef: "X",
		Access:  []stripe.Affine{stripe.Var("j")},
		Extents: []uint64{4},
	}
	assert.Equal(t, stripe.AliasPartial, a.Compare(b))
}

func TestAliasCompareMismatchedAccessLengthIsPartial(t *testing.T) {
	a := stripe.AliasInfo{
		BaseRef: "X",
		Access:  []stripe.Affine{stripe.Var("i")},
	}
	b := stripe.AliasInfo{
		BaseRef: "X",
		Access:  []stripe.Affine{stripe.Var("i"), stripe.Var("j")},
	}
	assert.Equal(t, stripe.AliasPartial, a.Compare(b))
}
