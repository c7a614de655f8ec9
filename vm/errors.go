package vm

import (
	"cinder/object"
	"fmt"
)

// RuntimeError is a generic VM failure: a type mismatch, an unresolved
// address, a malformed constant reference, anything that indicates the
// bytecode handed to Run could not execute as written.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Message)
}

// ThrownError wraps a host exception raised by a THROW instruction or by an
// Obj method call (division by zero, unsupported operation, ...), carried
// out of the dispatch loop as a Go error so Run's caller can inspect the
// original exception object.
type ThrownError struct {
	Exc *object.ObjException
}

func (e ThrownError) Error() string {
	return fmt.Sprintf("💥 uncaught exception: %s", e.Exc.Message)
}

// NonLocalReturn signals a RET_LABEL instruction whose label is not owned
// by the currently executing function — the label was meant to unwind past
// it. This generation of the VM runs one CompiledFunction per Run call with
// no call stack of its own compiled frames, so a non-local return can only
// be observed, not resolved; CALL_DIRECT callers are expected to treat it
// as a propagating error.
type NonLocalReturn struct {
	Label string
	Value object.Obj
}

func (e NonLocalReturn) Error() string {
	return fmt.Sprintf("🤖 non-local return to unresolved label '%s'", e.Label)
}
