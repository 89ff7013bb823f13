// Package hooking provides the instrumentation seam the scheduler uses to
// report progress: cache-entry lifecycle events, transfer insertion, and
// planner failures. It has no logging opinion of its own; callers attach
// Hooks that format or persist whatever they receive.
package hooking

// HookPos identifies a point in the scheduling pass where hooks may fire.
type HookPos struct {
	Name string
}

// The hook positions the scheduler raises. A Hook may filter on Pos to
// react only to the events it cares about.
var (
	// HookPosStatementScheduled fires once per statement, after its
	// placement plan has been applied and its refinement names rewritten.
	// Item is the statement itself; Detail is the placement plan chosen
	// for it.
	HookPosStatementScheduled = &HookPos{Name: "StatementScheduled"}

	// HookPosCacheEntryCreated fires when a new cache entry is allocated.
	// Item is the cache entry's name.
	HookPosCacheEntryCreated = &HookPos{Name: "CacheEntryCreated"}

	// HookPosCacheEntryRetired fires when a cache entry's uncovered range
	// becomes empty and it leaves the active index. Item is the cache
	// entry's name.
	HookPosCacheEntryRetired = &HookPos{Name: "CacheEntryRetired"}

	// HookPosSwapInserted fires whenever a swap-in or swap-out transfer
	// block is spliced into the schedule. Item is the transfer block's
	// name; Detail is either "in" or "out".
	HookPosSwapInserted = &HookPos{Name: "SwapInserted"}

	// HookPosResourceExhausted fires immediately before the pass gives up
	// on a statement's placement plan. Item is the list of refinement
	// names that could not be simultaneously placed.
	HookPosResourceExhausted = &HookPos{Name: "ResourceExhausted"}
)

// HookCtx is the context that holds all the information about the site that
// a hook is triggered from.
type HookCtx struct {
	// Domain is the hookable object that is raising this hook.
	Domain Hookable

	// Pos identifies which of the HookPos values above this event is.
	Pos *HookPos

	// Item carries the primary subject associated with the event: the
	// statement, a cache-entry or transfer-block name, or a slice of
	// refinement names, depending on Pos.
	Item any

	// Detail holds optional auxiliary data; hook sites may leave it nil.
	Detail any
}

// Hookable defines an object that accepts Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	//
	// Hooks must be registered before ScheduleBlock runs. Once attached, a
	// hook is expected to remain for the lifetime of the pass; there is no
	// removal API, so a hook that should stop reacting must track that
	// itself.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook

	// InvokeHook triggers the registered Hooks.
	InvokeHook(ctx HookCtx)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// HookableBase provides the bookkeeping needed to implement Hookable.
type HookableBase struct {
	hookList []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	return &HookableBase{hookList: make([]Hook, 0)}
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook registers a hook.
//
// Registration happens before scheduling starts, while a single goroutine
// owns the scheduler, so no locking is needed here.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mustNotHaveDuplicatedHook(hook)
	h.hookList = append(h.hookList, hook)
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	for _, existing := range h.hookList {
		if existing == hook {
			panic("duplicated hook")
		}
	}
}

// InvokeHook triggers the registered Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)

// FuncHook wraps a plain function as a Hook, for callers that don't need a
// dedicated type.
type FuncHook struct {
	FuncPtr func(ctx HookCtx)
}

// Func invokes the wrapped function.
func (h *FuncHook) Func(ctx HookCtx) {
	h.FuncPtr(ctx)
}

var _ Hook = (*FuncHook)(nil)
