package capabilities

import "sync"

// Context is the ordered, nestable collection of tokens available to code
// currently executing in one sandbox run. Frames form a stack: a child frame
// adds tokens and never removes inherited ones, and lookups walk from the
// innermost frame outward.
//
// A Context belongs to exactly one sandbox run. It is created at sandbox
// entry, pushed and popped around nested execution scopes, and torn down at
// sandbox exit; it is never persisted or shared between runs. The mutex only
// guards against the watchdog observing the stack while the evaluator
// mutates it.
type Context struct {
	mu     sync.Mutex
	frames [][]Token
}

// NewContext creates an empty context with no active frames.
func NewContext() *Context {
	return &Context{}
}

// Guard unwinds one context frame. Release must be called on every exit path
// (invoke it with defer immediately after Activate); releasing more than once
// is a no-op.
type Guard struct {
	ctx      *Context
	released bool
}

// Release pops the frame pushed by the matching Activate.
func (g *Guard) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.ctx.pop()
}

// Activate pushes a new frame holding the given tokens and returns the guard
// that pops it. Tokens granted in outer frames remain visible.
func (c *Context) Activate(tokens ...Token) *Guard {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := make([]Token, len(tokens))
	copy(frame, tokens)
	c.frames = append(c.frames, frame)
	return &Guard{ctx: c}
}

func (c *Context) pop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) > 0 {
		c.frames = c.frames[:len(c.frames)-1]
	}
}

// Active reports whether the context has at least one activated frame.
func (c *Context) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames) > 0
}

// Has walks frames innermost to outermost and reports whether any token
// authorizes the kind/resource pair.
func (c *Context) Has(kind, resource string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		for _, t := range c.frames[i] {
			if t.Authorizes(kind, resource) {
				return true
			}
		}
	}
	return false
}

// Require returns *CapabilityError when no active token authorizes the
// operation. This is the single enforcement point called by every routed
// sensitive operation, always before the operation itself runs.
func (c *Context) Require(kind, resource string) error {
	if !c.Has(kind, resource) {
		return &CapabilityError{Kind: kind, Resource: resource}
	}
	return nil
}

// Tokens returns a flattened snapshot of every active token, outermost first.
func (c *Context) Tokens() []Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Token
	for _, frame := range c.frames {
		out = append(out, frame...)
	}
	return out
}
