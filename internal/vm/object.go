package vm

// ObjectID is a 1-based index into the heap slot table.
// ObjectID(0) is always invalid.
type ObjectID uint32

// ObjectKind identifies the kind of heap object.
type ObjectKind uint8

const (
	// OKScalar is a boxed single value (the backing store of a ref cell).
	OKScalar ObjectKind = iota
	// OKTable is a heap key/value table.
	OKTable
	// OKArray is a heap array with a fixed element count.
	OKArray
	// OKWeak is a weak-reference cell observing a target object.
	OKWeak
	// OKClosure is a function index with retained captures.
	OKClosure
)

// String returns a human-readable name for the object kind.
func (k ObjectKind) String() string {
	switch k {
	case OKScalar:
		return "scalar"
	case OKTable:
		return "table"
	case OKArray:
		return "array"
	case OKWeak:
		return "weak"
	case OKClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// DestructorFunc runs user cleanup when an object is freed. Scalar
// destructors receive the boxed value, table destructors a Ref to the
// table. The return contract is void; faults inside destructors are
// the callback's problem.
type DestructorFunc func(ctx *Context, v Value)

// GraphNode is the capability of heap payloads that declare static
// child edges for cycle analysis. Tables and closures implement it;
// arrays do not (their elements are walked directly by the collector).
type GraphNode interface {
	// Children returns the tracked child ids. Entries may be stale
	// (the edge was since overwritten) but every current child is
	// present: a conservative superset, safe for reachability.
	Children() []ObjectID
}

// TableData is the payload of an OKTable object.
type TableData struct {
	Entries  []TableEntry
	children []ObjectID
}

// Children implements GraphNode.
func (t *TableData) Children() []ObjectID { return t.children }

// ArrayData is the payload of an OKArray object.
type ArrayData struct {
	Elems []Value
}

// ClosureData is the payload of an OKClosure object.
type ClosureData struct {
	FuncIdx  int32
	Captures []Value
	children []ObjectID
}

// Children implements GraphNode.
func (c *ClosureData) Children() []ObjectID { return c.children }

// HeapObject is one slot of the heap table. A slot with Strong == 0 is
// free and may be reused by the next allocation.
type HeapObject struct {
	ID     ObjectID
	Kind   ObjectKind
	Strong int32
	Weak   uint32
	Marked bool
	Dtor   DestructorFunc

	// dirtyEpoch stamps the frame that last mutated this object;
	// compared against the budget controller's current epoch.
	dirtyEpoch uint64

	Scalar  Value       // For OKScalar
	Table   TableData   // For OKTable
	Array   ArrayData   // For OKArray
	Target  ObjectID    // For OKWeak
	Closure ClosureData // For OKClosure
}

// graphNode returns the object's edge-declaring payload, or nil for
// kinds without static edges.
func (o *HeapObject) graphNode() GraphNode {
	switch o.Kind {
	case OKTable:
		return &o.Table
	case OKClosure:
		return &o.Closure
	default:
		return nil
	}
}

// childID extracts the heap id a contained value contributes to its
// parent's edge set. Only strong handle kinds form edges; weak handles
// deliberately do not keep anything reachable.
func childID(v Value) ObjectID {
	switch v.Kind {
	case VKRef, VKClosure:
		return v.H
	default:
		return 0
	}
}

// addChild appends id to a tracked-children set unless already present.
func addChild(set *[]ObjectID, id ObjectID) {
	if id == 0 {
		return
	}
	for _, c := range *set {
		if c == id {
			return
		}
	}
	*set = append(*set, id)
}
