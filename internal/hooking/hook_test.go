package hooking_test

import (
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/stripesched/internal/hooking"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		base     *hooking.HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		base = hooking.NewHookableBase()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("invokes every registered hook with the given context", func() {
		first := NewMockHook(mockCtrl)
		second := NewMockHook(mockCtrl)
		ctx := hooking.HookCtx{Pos: hooking.HookPosCacheEntryCreated, Item: "e^0"}

		first.EXPECT().Func(ctx)
		second.EXPECT().Func(ctx)

		base.AcceptHook(first)
		base.AcceptHook(second)
		Expect(base.NumHooks()).To(Equal(2))

		base.InvokeHook(ctx)
	})

	It("panics when the same hook is registered twice", func() {
		hook := NewMockHook(mockCtrl)
		base.AcceptHook(hook)
		Expect(func() { base.AcceptHook(hook) }).To(Panic())
	})

	It("does nothing when no hooks are registered", func() {
		Expect(func() {
			base.InvokeHook(hooking.HookCtx{Pos: hooking.HookPosResourceExhausted})
		}).NotTo(Panic())
	})
})
