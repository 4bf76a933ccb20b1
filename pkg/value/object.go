package value

// ObjType discriminates the variants of Obj, spec.md §3's managed-object
// table.
type ObjType int

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeUpvalue
	ObjTypeClosure
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

// Obj is any managed heap object: every variant carries a type tag, a
// mark bit, and participates in the Heap's intrusive all-objects list
// (spec.md §3). Go's garbage collector ultimately reclaims the backing
// memory, but loxvm's own mark-sweep pass (pkg/value's Heap, §4.3) is
// what decides *when* an object becomes unreachable from the running
// program and is unlinked from the list — the language's heap is a
// model the host GC merely stores, not something Go's GC is allowed to
// collect on its own schedule (see Heap.CollectGarbage).
type Obj interface {
	ObjType() ObjType
	header() *objHeader
}

// objHeader is embedded in every concrete Obj variant. It is the
// "type tag, mark bit, next pointer" triple of spec.md §3, represented
// as a literal intrusive linked list (spec.md §9 allows a side table in
// languages without raw pointers; Go has pointers, so we use them
// directly, the same way the teacher's VM threads a homeContext pointer
// chain for non-local returns).
type objHeader struct {
	marked bool
	next   Obj
}

func (h *objHeader) header() *objHeader { return h }

// ObjString is an interned, immutable string. Equal contents never
// coexist as two distinct ObjStrings (spec.md §3's interning invariant);
// Hash is the 32-bit FNV-1a hash of Chars, computed once at creation.
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (*ObjString) ObjType() ObjType { return ObjTypeString }

// fnv1a32 computes the 32-bit FNV-1a hash spec.md §3 specifies for
// ObjString.Hash and Table bucket selection.
func fnv1a32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// ObjFunction is a compiled function: its arity, how many upvalues its
// closures must capture, its compiled Chunk, and an optional name (nil
// for the synthetic top-level script function).
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString
}

func (*ObjFunction) ObjType() ObjType { return ObjTypeFunction }

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}

// NativeFn is a host callable bound into the VM as a global, e.g. clock.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a NativeFn so it can be stored as a Value and called
// through the same OP_CALL path as a user closure.
type ObjNative struct {
	objHeader
	Name string
	Fn   NativeFn
}

func (*ObjNative) ObjType() ObjType { return ObjTypeNative }

// ObjUpvalue references a variable that outlives the stack frame that
// declared it. While Location points into a live VM stack slot the
// upvalue is "open"; Close copies the referent into Closed and
// redirects Location to point at Closed (spec.md §4.2's close_upvalues).
// NextOpen is the intrusive link in the VM's open-upvalues list, kept sorted
// by decreasing stack address.
type ObjUpvalue struct {
	objHeader
	Location *Value
	Closed   Value
	NextOpen *ObjUpvalue

	// Slot is the value-stack index Location pointed at while open. The
	// VM's open-upvalues list must stay ordered by decreasing stack
	// address (spec.md §3); tracking the index directly keeps that
	// ordering a plain integer comparison instead of comparing *Value
	// pointers via unsafe arithmetic.
	Slot int
}

func (*ObjUpvalue) ObjType() ObjType { return ObjTypeUpvalue }

// Close closes the upvalue: the referent is copied out of the stack and
// Location is redirected to the upvalue's own storage.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs an ObjFunction with the upvalues it captured at
// creation time (OP_CLOSURE).
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (*ObjClosure) ObjType() ObjType { return ObjTypeClosure }

// ObjClass is a class: its name and its method table (selector name to
// closure). Inherited methods are copied into Methods by OP_INHERIT at
// class-definition time (spec.md §4.2), not looked up through a
// superclass chain at dispatch time.
type ObjClass struct {
	objHeader
	Name    *ObjString
	Methods *Table
}

func (*ObjClass) ObjType() ObjType { return ObjTypeClass }

// ObjInstance is an instance of a Class with its own field table.
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields *Table
}

func (*ObjInstance) ObjType() ObjType { return ObjTypeInstance }

// ObjBoundMethod pairs a receiver with a method closure, produced when a
// GET_PROPERTY falls back to class-method binding, or by GET_SUPER.
// SUPER_INVOKE calls the superclass method directly without one.
type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

func (*ObjBoundMethod) ObjType() ObjType { return ObjTypeBoundMethod }
