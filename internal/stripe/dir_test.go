package stripe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sarchlab/stripesched/internal/stripe"
)

func TestUnionDir(t *testing.T) {
	assert.Equal(t, stripe.DirIn, stripe.UnionDir(stripe.DirNone, stripe.DirIn))
	assert.Equal(t, stripe.DirOut, stripe.UnionDir(stripe.DirOut, stripe.DirNone))
	assert.Equal(t, stripe.DirInOut, stripe.UnionDir(stripe.DirIn, stripe.DirOut))
	assert.Equal(t, stripe.DirIn, stripe.UnionDir(stripe.DirIn, stripe.DirIn))
}

func TestIsReadWriteDir(t *testing.T) {
	assert.True(t, stripe.IsReadDir(stripe.DirIn))
	assert.True(t, stripe.IsReadDir(stripe.DirInOut))
	assert.False(t, stripe.IsReadDir(stripe.DirOut))

	assert.True(t, stripe.IsWriteDir(stripe.DirOut))
	assert.True(t, stripe.IsWriteDir(stripe.DirInOut))
	assert.False(t, stripe.IsWriteDir(stripe.DirIn))
}

func TestDirString(t *testing.T) {
	assert.Equal(t, "In", stripe.DirIn.String())
	assert.Equal(t, "Out", stripe.DirOut.String())
	assert.Equal(t, "InOut", stripe.DirInOut.String())
	assert.Equal(t, "None", stripe.DirNone.String())
}
