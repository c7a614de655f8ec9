package compiler

// LoopContext is the compile-time record tying a loop's label, break and
// continue target labels, a break-flag slot, and an optional result slot
// together while lowering the loop's body. Pushed on entering a loop body,
// popped on exit.
type LoopContext struct {
	Label        *string
	BreakLabel   Label
	ContinueLabel Label
	BreakFlagSlot int
	ResultSlot    int
	HasResult     bool
}

// pushLoop pushes a new loop context onto the compiler's loop stack.
func (s *LowerState) pushLoop(ctx *LoopContext) {
	s.loopStack = append(s.loopStack, ctx)
}

// popLoop pops the innermost loop context.
func (s *LowerState) popLoop() {
	s.loopStack = s.loopStack[:len(s.loopStack)-1]
}

// findLoop resolves a break/continue target: the innermost loop context if
// label is nil, otherwise the nearest enclosing context carrying a matching
// label.
func (s *LowerState) findLoop(label *string) *LoopContext {
	if label == nil {
		if len(s.loopStack) == 0 {
			return nil
		}
		return s.loopStack[len(s.loopStack)-1]
	}
	for i := len(s.loopStack) - 1; i >= 0; i-- {
		ctx := s.loopStack[i]
		if ctx.Label != nil && *ctx.Label == *label {
			return ctx
		}
	}
	return nil
}
