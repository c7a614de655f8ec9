// Package object supplies the host collaborator types the compiler and
// virtual machine treat as external: the value model every cinder value
// implements (Obj) and the lexical-scope protocol frames consult when a
// slot address needs resolving (Scope). Both interfaces are intentionally
// narrow; a real embedding host is free to swap in its own implementation
// so long as it honours the same contract.
package object

import (
	"fmt"
	"strconv"
)

// Class identifies the runtime type of an Obj for IS checks, virtual
// dispatch inline-cache keys and error messages. Version bumps whenever a
// class's method layout changes, invalidating any cache keyed on it.
type Class struct {
	Name    string
	Version int
}

func (c *Class) String() string { return c.Name }

var (
	IntClass    = &Class{Name: "Int"}
	RealClass   = &Class{Name: "Real"}
	BoolClass   = &Class{Name: "Bool"}
	StringClass = &Class{Name: "String"}
	NullClass   = &Class{Name: "Null"}
	VoidClass   = &Class{Name: "Void"}
	RangeClass  = &Class{Name: "Range"}
	ListClass   = &Class{Name: "List"}
	MapClass    = &Class{Name: "Map"}
)

// Obj is the value contract every cinder runtime value satisfies. Compiled
// arithmetic opcodes call the arithmetic methods directly; CALL_VIRTUAL
// goes through InvokeInstanceMethod so the VM's inline cache can key on
// Class() without the object model knowing about caching at all.
type Obj interface {
	Class() *Class
	ToBool() bool
	ToLong() (int64, error)
	ToDouble() (float64, error)
	ToString() string
	Inspect() string
	Equals(other Obj) bool

	Plus(other Obj) (Obj, error)
	Minus(other Obj) (Obj, error)
	Mul(other Obj) (Obj, error)
	Div(other Obj) (Obj, error)
	Mod(other Obj) (Obj, error)
	CompareTo(other Obj) (int, error)

	Contains(other Obj) (bool, error)
	GetAt(index Obj) (Obj, error)
	PutAt(index Obj, value Obj) error
	ReadField(name string) (Obj, error)
	WriteField(name string, value Obj) error
	InvokeInstanceMethod(name string, args []Obj) (Obj, error)
	IsInstanceOf(class *Class) bool
	ByValueCopy() Obj
}

// Unsupported is the shared error raised by an Obj method that does not
// apply to its receiver's class (e.g. Mul on a String).
type Unsupported struct {
	Op   string
	Type *Class
}

func (e *Unsupported) Error() string {
	return fmt.Sprintf("🤖 unsupported operation '%s' on %s", e.Op, e.Type.Name)
}

// base supplies default "unsupported" bodies for every Obj method so a
// concrete type only needs to override what it actually implements.
type base struct{ class *Class }

func (b base) Class() *Class                               { return b.class }
func (b base) Equals(other Obj) bool                        { return false }
func (b base) Plus(other Obj) (Obj, error)                   { return nil, &Unsupported{"+", b.class} }
func (b base) Minus(other Obj) (Obj, error)                  { return nil, &Unsupported{"-", b.class} }
func (b base) Mul(other Obj) (Obj, error)                    { return nil, &Unsupported{"*", b.class} }
func (b base) Div(other Obj) (Obj, error)                    { return nil, &Unsupported{"/", b.class} }
func (b base) Mod(other Obj) (Obj, error)                    { return nil, &Unsupported{"%", b.class} }
func (b base) CompareTo(other Obj) (int, error)              { return 0, &Unsupported{"compareTo", b.class} }
func (b base) Contains(other Obj) (bool, error)              { return false, &Unsupported{"in", b.class} }
func (b base) GetAt(index Obj) (Obj, error)                  { return nil, &Unsupported{"[]", b.class} }
func (b base) PutAt(index Obj, value Obj) error              { return &Unsupported{"[]=", b.class} }
func (b base) ReadField(name string) (Obj, error)            { return nil, &Unsupported{"." + name, b.class} }
func (b base) WriteField(name string, value Obj) error       { return &Unsupported{"." + name + "=", b.class} }
func (b base) InvokeInstanceMethod(name string, args []Obj) (Obj, error) {
	return nil, &Unsupported{name + "()", b.class}
}
func (b base) IsInstanceOf(class *Class) bool { return b.class == class }

// ObjInt is a 64-bit signed integer value. Overflow wraps using Go's
// native int64 arithmetic.
type ObjInt struct {
	base
	Value int64
}

func NewInt(v int64) ObjInt { return ObjInt{base: base{IntClass}, Value: v} }

func (o ObjInt) ToBool() bool                { return o.Value != 0 }
func (o ObjInt) ToLong() (int64, error)      { return o.Value, nil }
func (o ObjInt) ToDouble() (float64, error)  { return float64(o.Value), nil }
func (o ObjInt) ToString() string            { return strconv.FormatInt(o.Value, 10) }
func (o ObjInt) Inspect() string             { return o.ToString() }
func (o ObjInt) ByValueCopy() Obj            { return o }
func (o ObjInt) Equals(other Obj) bool {
	n, ok := other.(ObjInt)
	return ok && n.Value == o.Value
}
func (o ObjInt) Plus(other Obj) (Obj, error) {
	if n, ok := other.(ObjInt); ok {
		return NewInt(o.Value + n.Value), nil
	}
	if r, ok := other.(ObjReal); ok {
		return NewReal(float64(o.Value) + r.Value), nil
	}
	return nil, &Unsupported{"+", o.Class()}
}
func (o ObjInt) Minus(other Obj) (Obj, error) {
	if n, ok := other.(ObjInt); ok {
		return NewInt(o.Value - n.Value), nil
	}
	if r, ok := other.(ObjReal); ok {
		return NewReal(float64(o.Value) - r.Value), nil
	}
	return nil, &Unsupported{"-", o.Class()}
}
func (o ObjInt) Mul(other Obj) (Obj, error) {
	if n, ok := other.(ObjInt); ok {
		return NewInt(o.Value * n.Value), nil
	}
	if r, ok := other.(ObjReal); ok {
		return NewReal(float64(o.Value) * r.Value), nil
	}
	return nil, &Unsupported{"*", o.Class()}
}
func (o ObjInt) Div(other Obj) (Obj, error) {
	if n, ok := other.(ObjInt); ok {
		if n.Value == 0 {
			return nil, fmt.Errorf("💥 division by zero")
		}
		return NewInt(o.Value / n.Value), nil
	}
	if r, ok := other.(ObjReal); ok {
		return NewReal(float64(o.Value) / r.Value), nil
	}
	return nil, &Unsupported{"/", o.Class()}
}
func (o ObjInt) Mod(other Obj) (Obj, error) {
	if n, ok := other.(ObjInt); ok {
		if n.Value == 0 {
			return nil, fmt.Errorf("💥 modulo by zero")
		}
		return NewInt(o.Value % n.Value), nil
	}
	return nil, &Unsupported{"%", o.Class()}
}
func (o ObjInt) CompareTo(other Obj) (int, error) {
	var rhs float64
	switch v := other.(type) {
	case ObjInt:
		rhs = float64(v.Value)
	case ObjReal:
		rhs = v.Value
	default:
		return 0, &Unsupported{"compareTo", o.Class()}
	}
	lhs := float64(o.Value)
	switch {
	case lhs < rhs:
		return -1, nil
	case lhs > rhs:
		return 1, nil
	default:
		return 0, nil
	}
}

// ObjReal is a 64-bit floating point value.
type ObjReal struct {
	base
	Value float64
}

func NewReal(v float64) ObjReal { return ObjReal{base: base{RealClass}, Value: v} }

func (o ObjReal) ToBool() bool               { return o.Value != 0 }
func (o ObjReal) ToLong() (int64, error)     { return int64(o.Value), nil }
func (o ObjReal) ToDouble() (float64, error) { return o.Value, nil }
func (o ObjReal) ToString() string           { return strconv.FormatFloat(o.Value, 'g', -1, 64) }
func (o ObjReal) Inspect() string            { return o.ToString() }
func (o ObjReal) ByValueCopy() Obj           { return o }
func (o ObjReal) Equals(other Obj) bool {
	n, ok := other.(ObjReal)
	return ok && n.Value == o.Value
}
func (o ObjReal) Plus(other Obj) (Obj, error) {
	d, err := toFloat(other)
	if err != nil {
		return nil, &Unsupported{"+", o.Class()}
	}
	return NewReal(o.Value + d), nil
}
func (o ObjReal) Minus(other Obj) (Obj, error) {
	d, err := toFloat(other)
	if err != nil {
		return nil, &Unsupported{"-", o.Class()}
	}
	return NewReal(o.Value - d), nil
}
func (o ObjReal) Mul(other Obj) (Obj, error) {
	d, err := toFloat(other)
	if err != nil {
		return nil, &Unsupported{"*", o.Class()}
	}
	return NewReal(o.Value * d), nil
}
func (o ObjReal) Div(other Obj) (Obj, error) {
	d, err := toFloat(other)
	if err != nil {
		return nil, &Unsupported{"/", o.Class()}
	}
	if d == 0 {
		return nil, fmt.Errorf("💥 division by zero")
	}
	return NewReal(o.Value / d), nil
}
func (o ObjReal) Mod(other Obj) (Obj, error) {
	return nil, &Unsupported{"%", o.Class()}
}
func (o ObjReal) CompareTo(other Obj) (int, error) {
	d, err := toFloat(other)
	if err != nil {
		return 0, &Unsupported{"compareTo", o.Class()}
	}
	switch {
	case o.Value < d:
		return -1, nil
	case o.Value > d:
		return 1, nil
	default:
		return 0, nil
	}
}

func toFloat(o Obj) (float64, error) {
	switch v := o.(type) {
	case ObjInt:
		return float64(v.Value), nil
	case ObjReal:
		return v.Value, nil
	default:
		return 0, fmt.Errorf("not numeric")
	}
}

// ObjBool is a boolean value.
type ObjBool struct {
	base
	Value bool
}

func NewBool(v bool) ObjBool { return ObjBool{base: base{BoolClass}, Value: v} }

func (o ObjBool) ToBool() bool               { return o.Value }
func (o ObjBool) ToLong() (int64, error)     { return 0, &Unsupported{"toLong", o.Class()} }
func (o ObjBool) ToDouble() (float64, error) { return 0, &Unsupported{"toDouble", o.Class()} }
func (o ObjBool) ToString() string           { return strconv.FormatBool(o.Value) }
func (o ObjBool) Inspect() string            { return o.ToString() }
func (o ObjBool) ByValueCopy() Obj           { return o }
func (o ObjBool) Equals(other Obj) bool {
	n, ok := other.(ObjBool)
	return ok && n.Value == o.Value
}

// ObjString is an immutable string value.
type ObjString struct {
	base
	Value string
}

func NewString(v string) ObjString { return ObjString{base: base{StringClass}, Value: v} }

func (o ObjString) ToBool() bool               { return o.Value != "" }
func (o ObjString) ToLong() (int64, error)     { return strconv.ParseInt(o.Value, 10, 64) }
func (o ObjString) ToDouble() (float64, error) { return strconv.ParseFloat(o.Value, 64) }
func (o ObjString) ToString() string           { return o.Value }
func (o ObjString) Inspect() string            { return strconv.Quote(o.Value) }
func (o ObjString) ByValueCopy() Obj           { return o }
func (o ObjString) Equals(other Obj) bool {
	n, ok := other.(ObjString)
	return ok && n.Value == o.Value
}
func (o ObjString) Plus(other Obj) (Obj, error) {
	n, ok := other.(ObjString)
	if !ok {
		return nil, &Unsupported{"+", o.Class()}
	}
	return NewString(o.Value + n.Value), nil
}
func (o ObjString) CompareTo(other Obj) (int, error) {
	n, ok := other.(ObjString)
	if !ok {
		return 0, &Unsupported{"compareTo", o.Class()}
	}
	switch {
	case o.Value < n.Value:
		return -1, nil
	case o.Value > n.Value:
		return 1, nil
	default:
		return 0, nil
	}
}
func (o ObjString) GetAt(index Obj) (Obj, error) {
	i, err := index.ToLong()
	if err != nil || i < 0 || int(i) >= len(o.Value) {
		return nil, fmt.Errorf("💥 string index out of range")
	}
	return NewString(string(o.Value[i])), nil
}

// ObjNull is the singleton null value.
type ObjNull struct{ base }

var Null = ObjNull{base: base{NullClass}}

func (o ObjNull) ToBool() bool               { return false }
func (o ObjNull) ToLong() (int64, error)     { return 0, &Unsupported{"toLong", o.Class()} }
func (o ObjNull) ToDouble() (float64, error) { return 0, &Unsupported{"toDouble", o.Class()} }
func (o ObjNull) ToString() string           { return "null" }
func (o ObjNull) Inspect() string            { return "null" }
func (o ObjNull) ByValueCopy() Obj           { return o }
func (o ObjNull) Equals(other Obj) bool      { _, ok := other.(ObjNull); return ok }

// ObjVoid is the value a statement-shaped expression yields when it has no
// meaningful result (e.g. a ForInStatement used in expression position that
// never breaks with a value).
type ObjVoid struct{ base }

var Void = ObjVoid{base: base{VoidClass}}

func (o ObjVoid) ToBool() bool               { return false }
func (o ObjVoid) ToLong() (int64, error)     { return 0, &Unsupported{"toLong", o.Class()} }
func (o ObjVoid) ToDouble() (float64, error) { return 0, &Unsupported{"toDouble", o.Class()} }
func (o ObjVoid) ToString() string           { return "void" }
func (o ObjVoid) Inspect() string            { return "void" }
func (o ObjVoid) ByValueCopy() Obj           { return o }
func (o ObjVoid) Equals(other Obj) bool      { _, ok := other.(ObjVoid); return ok }

// ObjRange is a half-open or closed integer range, the value RangeRef
// literals evaluate to and ForInStatement iterates directly without
// allocating an intermediate list when ConstRange is set.
type ObjRange struct {
	base
	From      int64
	To        int64
	Inclusive bool
}

func NewRange(from, to int64, inclusive bool) ObjRange {
	return ObjRange{base: base{RangeClass}, From: from, To: to, Inclusive: inclusive}
}

func (o ObjRange) ToBool() bool               { return true }
func (o ObjRange) ToLong() (int64, error)     { return 0, &Unsupported{"toLong", o.Class()} }
func (o ObjRange) ToDouble() (float64, error) { return 0, &Unsupported{"toDouble", o.Class()} }
func (o ObjRange) ToString() string {
	if o.Inclusive {
		return fmt.Sprintf("%d..=%d", o.From, o.To)
	}
	return fmt.Sprintf("%d..%d", o.From, o.To)
}
func (o ObjRange) Inspect() string  { return o.ToString() }
func (o ObjRange) ByValueCopy() Obj { return o }
func (o ObjRange) Equals(other Obj) bool {
	n, ok := other.(ObjRange)
	return ok && n == o
}
func (o ObjRange) Contains(other Obj) (bool, error) {
	n, err := other.ToLong()
	if err != nil {
		return false, err
	}
	if o.Inclusive {
		return n >= o.From && n <= o.To, nil
	}
	return n >= o.From && n < o.To, nil
}

// Len returns the number of integers the range yields.
func (o ObjRange) Len() int64 {
	end := o.To
	if o.Inclusive {
		end++
	}
	if end <= o.From {
		return 0
	}
	return end - o.From
}

// ObjList is a mutable, ordered, dynamically sized list of Obj.
type ObjList struct {
	base
	Elements []Obj
}

func NewList(elements []Obj) *ObjList {
	return &ObjList{base: base{ListClass}, Elements: elements}
}

func (o *ObjList) ToBool() bool               { return len(o.Elements) > 0 }
func (o *ObjList) ToLong() (int64, error)     { return 0, &Unsupported{"toLong", o.Class()} }
func (o *ObjList) ToDouble() (float64, error) { return 0, &Unsupported{"toDouble", o.Class()} }
func (o *ObjList) ToString() string           { return o.Inspect() }
func (o *ObjList) Inspect() string {
	s := "["
	for i, e := range o.Elements {
		if i > 0 {
			s += ", "
		}
		s += e.Inspect()
	}
	return s + "]"
}
func (o *ObjList) ByValueCopy() Obj {
	cp := make([]Obj, len(o.Elements))
	copy(cp, o.Elements)
	return NewList(cp)
}
func (o *ObjList) Equals(other Obj) bool {
	n, ok := other.(*ObjList)
	if !ok || len(n.Elements) != len(o.Elements) {
		return false
	}
	for i := range o.Elements {
		if !o.Elements[i].Equals(n.Elements[i]) {
			return false
		}
	}
	return true
}
func (o *ObjList) GetAt(index Obj) (Obj, error) {
	i, err := index.ToLong()
	if err != nil || i < 0 || int(i) >= len(o.Elements) {
		return nil, fmt.Errorf("💥 list index out of range")
	}
	return o.Elements[i], nil
}
func (o *ObjList) PutAt(index Obj, value Obj) error {
	i, err := index.ToLong()
	if err != nil || i < 0 || int(i) >= len(o.Elements) {
		return fmt.Errorf("💥 list index out of range")
	}
	o.Elements[i] = value
	return nil
}
func (o *ObjList) Contains(other Obj) (bool, error) {
	for _, e := range o.Elements {
		if e.Equals(other) {
			return true, nil
		}
	}
	return false, nil
}
func (o *ObjList) InvokeInstanceMethod(name string, args []Obj) (Obj, error) {
	switch name {
	case "length", "size":
		return NewInt(int64(len(o.Elements))), nil
	case "push", "append":
		o.Elements = append(o.Elements, args...)
		return o, nil
	default:
		return nil, &Unsupported{name + "()", o.Class()}
	}
}

// Iterable is implemented by any Obj ForInStatement can drive directly
// (ObjRange, *ObjList). Values that don't implement it cannot be iterated:
// the VM's ITER_INIT and the tree-walker's for-in both reject them.
type Iterable interface {
	Iterate() []Obj
}

func (o ObjRange) Iterate() []Obj {
	n := o.Len()
	out := make([]Obj, 0, n)
	for i := int64(0); i < n; i++ {
		out = append(out, NewInt(o.From+i))
	}
	return out
}

func (o *ObjList) Iterate() []Obj { return o.Elements }

// ObjException is the payload a ThrowStatement raises and a host catch
// clause observes.
type ObjException struct {
	base
	Message string
	Payload Obj
}

var ExceptionClass = &Class{Name: "Exception"}

func NewException(message string, payload Obj) *ObjException {
	return &ObjException{base: base{ExceptionClass}, Message: message, Payload: payload}
}

func (o *ObjException) ToBool() bool               { return true }
func (o *ObjException) ToLong() (int64, error)     { return 0, &Unsupported{"toLong", o.Class()} }
func (o *ObjException) ToDouble() (float64, error) { return 0, &Unsupported{"toDouble", o.Class()} }
func (o *ObjException) ToString() string           { return o.Message }
func (o *ObjException) Inspect() string            { return "Exception(" + o.Message + ")" }
func (o *ObjException) ByValueCopy() Obj           { return o }
func (o *ObjException) Equals(other Obj) bool      { return o == other }
func (o *ObjException) Error() string              { return o.Message }
