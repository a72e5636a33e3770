package sim

// HookPos names a place where hooks are called, such as a flit arriving at a
// router or a packet completing at a server.
type HookPos struct {
	Name string
}

// HookCtx describes one hook call.
type HookCtx struct {
	// Domain is the component that calls the hook.
	Domain Hookable

	// Now is the cycle of the call. Buffers leave it at zero.
	Now Cycle

	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
}

// A Hook observes a component. Hooks must not change the state of the
// component that calls them.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase implements Hookable. Embed it and call InvokeHook.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates a HookableBase with no hooks.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// AcceptHook appends a hook. Hooks are called in registration order.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook calls every hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
