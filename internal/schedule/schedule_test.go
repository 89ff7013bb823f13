package schedule_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/stripesched/internal/hooking"
	"github.com/sarchlab/stripesched/internal/schedule"
	"github.com/sarchlab/stripesched/internal/stripe"
)

func byteRef(dir stripe.Dir, from, into string, bytes uint64) stripe.Refinement {
	return stripe.Refinement{
		Dir:      dir,
		From:     from,
		Into:     into,
		Shape:    stripe.Shape{Dims: []stripe.Dim{{Size: bytes, Stride: 1}}, ElemBytes: 1},
		Location: stripe.Location{Name: "GLOBAL"},
	}
}

func aliasOf(baseRef string) stripe.AliasInfo {
	return stripe.AliasInfo{
		BaseRef: baseRef,
		Access:  []stripe.Affine{stripe.ZeroAffine},
		Extents: []uint64{1},
	}
}

func memKiBOptions(memKiB uint64) schedule.Options {
	return schedule.MakeBuilder().
		WithMemLoc(stripe.Location{Name: "LOCAL"}).
		WithMemKiB(memKiB).
		WithXferLoc(stripe.Location{Name: "XFER"}).
		Build()
}

// collectStatements flattens a block's top-level body into a slice, in
// program order, for easy indexing in assertions.
func collectStatements(b *stripe.Block) []*stripe.Statement {
	var out []*stripe.Statement
	b.Body.Each(func(it stripe.StatementIt) {
		out = append(out, stripe.StatementAt(it))
	})
	return out
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func swapDirection(stmt *stripe.Statement) string {
	switch {
	case stmt.Kind != stripe.KindBlock:
		return ""
	case hasPrefix(stmt.Name, "swap_in_"):
		return "in"
	case hasPrefix(stmt.Name, "swap_out_"):
		return "out"
	default:
		return ""
	}
}

var _ = Describe("ScheduleBlock", func() {
	It("swaps in a single read refinement before its load", func() {
		block := stripe.NewBlock("blk")
		block.Refs = []stripe.Refinement{byteRef(stripe.DirIn, "A", "a", 1024)}
		block.Body.PushBack(stripe.NewLoad("a", "$x"))

		aliasMap := stripe.AliasMap{"a": aliasOf("A")}
		err := schedule.ScheduleBlock(aliasMap, block, memKiBOptions(1))
		Expect(err).NotTo(HaveOccurred())

		stmts := collectStatements(block)
		Expect(stmts).To(HaveLen(2))
		Expect(swapDirection(stmts[0])).To(Equal("in"))
		Expect(stmts[1].Kind).To(Equal(stripe.KindLoad))
		Expect(stmts[1].From).To(Equal(stmts[0].Body.Refs[1].From))

		entryRef, ok := block.RefByInto(stmts[1].From)
		Expect(ok).To(BeTrue())
		Expect(entryRef.Offset).To(Equal(uint64(0)))
		Expect(entryRef.Shape.ByteSize()).To(Equal(uint64(1024)))

		_, stillThere := block.RefByInto("a")
		Expect(stillThere).To(BeTrue())
	})

	It("swaps out a read-modify-write refinement without a spurious swap-in", func() {
		block := stripe.NewBlock("blk")
		block.Refs = []stripe.Refinement{byteRef(stripe.DirInOut, "A", "a", 1024)}
		block.Body.PushBack(&stripe.Statement{
			Kind:    stripe.KindSpecial,
			Name:    "rmw",
			Inputs:  []string{"a"},
			Outputs: []string{"a"},
		})

		aliasMap := stripe.AliasMap{"a": aliasOf("A")}
		err := schedule.ScheduleBlock(aliasMap, block, memKiBOptions(1))
		Expect(err).NotTo(HaveOccurred())

		stmts := collectStatements(block)
		// The statement is its own earliest writer, so nothing primes the
		// entry from backing memory; only the final write needs flushing.
		Expect(stmts).To(HaveLen(2))
		Expect(stmts[0].Kind).To(Equal(stripe.KindSpecial))
		Expect(swapDirection(stmts[1])).To(Equal("out"))
	})

	It("places two disjoint reads without evicting either", func() {
		block := stripe.NewBlock("blk")
		block.Refs = []stripe.Refinement{
			byteRef(stripe.DirIn, "A", "a", 1024),
			byteRef(stripe.DirIn, "B", "b", 1024),
		}
		block.Body.PushBack(stripe.NewLoad("a", "$x"))
		block.Body.PushBack(stripe.NewLoad("b", "$y"))

		aliasMap := stripe.AliasMap{
			"a": aliasOf("A"),
			"b": aliasOf("B"),
		}
		err := schedule.ScheduleBlock(aliasMap, block, memKiBOptions(2))
		Expect(err).NotTo(HaveOccurred())

		var swapIns int
		for _, stmt := range collectStatements(block) {
			if swapDirection(stmt) == "in" {
				swapIns++
			}
		}
		Expect(swapIns).To(Equal(2))

		refA, okA := block.RefByInto("a^0")
		refB, okB := block.RefByInto("b^0")
		Expect(okA).To(BeTrue())
		Expect(okB).To(BeTrue())

		loA, hiA := refA.Offset, refA.Offset+refA.Shape.ByteSize()
		loB, hiB := refB.Offset, refB.Offset+refB.Shape.ByteSize()
		overlap := loA < hiB && loB < hiA
		Expect(overlap).To(BeFalse())
	})

	It("evicts a read entry to make room, then swaps it back in", func() {
		block := stripe.NewBlock("blk")
		block.Refs = []stripe.Refinement{
			byteRef(stripe.DirIn, "A", "a", 1024),
			byteRef(stripe.DirIn, "B", "b", 1024),
		}
		block.Body.PushBack(stripe.NewLoad("a", "$x1"))
		block.Body.PushBack(stripe.NewLoad("b", "$y"))
		block.Body.PushBack(stripe.NewLoad("a", "$x2"))

		aliasMap := stripe.AliasMap{
			"a": aliasOf("A"),
			"b": aliasOf("B"),
		}
		// Budget for exactly one entry at a time: the second read of A
		// cannot share memory with a live B, so B must be evicted.
		err := schedule.ScheduleBlock(aliasMap, block, memKiBOptions(1))
		Expect(err).NotTo(HaveOccurred())

		var swapIns int
		for _, stmt := range collectStatements(block) {
			if swapDirection(stmt) == "in" {
				swapIns++
			}
		}
		Expect(swapIns).To(BeNumerically(">=", 2))
	})

	It("invalidates an aliased read entry when the alias is written", func() {
		block := stripe.NewBlock("blk")
		block.Refs = []stripe.Refinement{
			byteRef(stripe.DirIn, "X", "b", 1024),
			byteRef(stripe.DirOut, "X", "a", 1024),
		}
		block.Body.PushBack(stripe.NewLoad("b", "$x1"))
		block.Body.PushBack(stripe.NewStore("$y", "a"))
		block.Body.PushBack(stripe.NewLoad("b", "$x2"))

		aliasMap := stripe.AliasMap{
			"a": aliasOf("X"),
			"b": aliasOf("X"),
		}
		err := schedule.ScheduleBlock(aliasMap, block, memKiBOptions(2))
		Expect(err).NotTo(HaveOccurred())

		var swapIns, swapOuts int
		for _, stmt := range collectStatements(block) {
			switch swapDirection(stmt) {
			case "in":
				swapIns++
			case "out":
				swapOuts++
			}
		}
		Expect(swapIns).To(BeNumerically(">=", 1))
		Expect(swapOuts).To(BeNumerically(">=", 1))
	})

	It("raises ResourceExhausted naming every simultaneously-required refinement", func() {
		block := stripe.NewBlock("blk")
		block.Refs = []stripe.Refinement{
			byteRef(stripe.DirIn, "A", "a", 1024),
			byteRef(stripe.DirIn, "B", "b", 1024),
			byteRef(stripe.DirIn, "C", "c", 1024),
		}
		block.Body.PushBack(&stripe.Statement{
			Kind:   stripe.KindSpecial,
			Name:   "needs_all_three",
			Inputs: []string{"a", "b", "c"},
		})

		aliasMap := stripe.AliasMap{
			"a": aliasOf("A"),
			"b": aliasOf("B"),
			"c": aliasOf("C"),
		}
		// 1 KiB budget, 3 KiB required simultaneously by a single statement.
		err := schedule.ScheduleBlock(aliasMap, block, memKiBOptions(1))
		var exhausted *schedule.ResourceExhausted
		Expect(errors.As(err, &exhausted)).To(BeTrue())
		Expect(exhausted.Refs).To(ConsistOf("a", "b", "c"))
	})
})

var _ = Describe("hook firing", func() {
	It("reports statement scheduling, cache-entry lifecycle, and transfer insertion", func() {
		block := stripe.NewBlock("blk")
		block.Refs = []stripe.Refinement{byteRef(stripe.DirIn, "A", "a", 64)}
		block.Body.PushBack(stripe.NewLoad("a", "$x"))

		var positions []*hooking.HookPos
		hook := &hooking.FuncHook{FuncPtr: func(ctx hooking.HookCtx) {
			positions = append(positions, ctx.Pos)
		}}

		aliasMap := stripe.AliasMap{"a": aliasOf("A")}
		s := schedule.New(aliasMap, block, memKiBOptions(1))
		s.AcceptHook(hook)
		Expect(s.Run()).NotTo(HaveOccurred())

		Expect(positions).To(ContainElement(hooking.HookPosCacheEntryCreated))
		Expect(positions).To(ContainElement(hooking.HookPosSwapInserted))
		Expect(positions).To(ContainElement(hooking.HookPosStatementScheduled))
	})

	It("panics on a duplicated hook registration", func() {
		block := stripe.NewBlock("blk")
		s := schedule.New(stripe.AliasMap{}, block, memKiBOptions(1))
		hook := &hooking.FuncHook{FuncPtr: func(hooking.HookCtx) {}}
		s.AcceptHook(hook)
		Expect(func() { s.AcceptHook(hook) }).To(Panic())
	})
})
