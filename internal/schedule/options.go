package schedule

import "github.com/sarchlab/stripesched/internal/stripe"

// Options configures one run of ScheduleBlock.
type Options struct {
	memLoc    stripe.Location
	memKiB    uint64
	alignment uint64
	xferLoc   stripe.Location
}

// MakeBuilder returns an OptionsBuilder seeded with the default alignment.
func MakeBuilder() OptionsBuilder {
	return OptionsBuilder{alignment: defaultAlignment}
}

// OptionsBuilder builds an Options value through chained With* calls, each
// returning a new builder so the original can still be reused.
type OptionsBuilder struct {
	memLoc    stripe.Location
	memKiB    uint64
	alignment uint64
	xferLoc   stripe.Location
}

// WithMemLoc sets the target cache location.
func (b OptionsBuilder) WithMemLoc(loc stripe.Location) OptionsBuilder {
	b.memLoc = loc
	return b
}

// WithMemKiB sets the cache size in KiB.
func (b OptionsBuilder) WithMemKiB(kib uint64) OptionsBuilder {
	b.memKiB = kib
	return b
}

// WithAlignment sets the placement alignment in bytes. Passing 0 restores
// the default alignment of 4 bytes.
func (b OptionsBuilder) WithAlignment(alignment uint64) OptionsBuilder {
	if alignment == 0 {
		alignment = defaultAlignment
	}
	b.alignment = alignment
	return b
}

// WithXferLoc sets the location tag attached to every synthesized transfer
// block.
func (b OptionsBuilder) WithXferLoc(loc stripe.Location) OptionsBuilder {
	b.xferLoc = loc
	return b
}

// Build finalizes the Options value.
func (b OptionsBuilder) Build() Options {
	return Options{
		memLoc:    b.memLoc,
		memKiB:    b.memKiB,
		alignment: b.alignment,
		xferLoc:   b.xferLoc,
	}
}

func (o Options) memBytes() uint64 {
	return o.memKiB * 1024
}

// MemLoc reports the target cache location.
func (o Options) MemLoc() stripe.Location { return o.memLoc }

// MemKiB reports the cache size in KiB.
func (o Options) MemKiB() uint64 { return o.memKiB }

// Alignment reports the placement alignment in bytes.
func (o Options) Alignment() uint64 { return o.alignment }

// XferLoc reports the location tag attached to synthesized transfer blocks.
func (o Options) XferLoc() stripe.Location { return o.xferLoc }
