package vm

import (
	"fmt"
	"sort"
	"strings"
)

type heapDumpRecord struct {
	kind    string
	strong  int32
	weak    uint32
	edges   int
	entries int
	arrLen  int
	arrCap  int
	funcIdx int32
	caps    int
	target  ObjectID
	valid   bool
	repr    string
	line    string
}

// DumpHeap renders every live object as one line, sorted and with
// identical lines coalesced. Lines carry no slot ids, so two frames
// with the same live content dump identically.
func (c *Context) DumpHeap() string {
	h := c.Heap
	records := make([]heapDumpRecord, 0)
	for id := ObjectID(1); id < h.next; id++ {
		obj := &h.slots[id]
		if obj.Strong <= 0 {
			continue
		}
		records = append(records, h.dumpRecord(obj))
	}
	if len(records) == 0 {
		return ""
	}

	sort.Slice(records, func(i, j int) bool {
		a := records[i]
		b := records[j]
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		if a.strong != b.strong {
			return a.strong < b.strong
		}
		if a.weak != b.weak {
			return a.weak < b.weak
		}
		if a.entries != b.entries {
			return a.entries < b.entries
		}
		if a.arrLen != b.arrLen {
			return a.arrLen < b.arrLen
		}
		if a.caps != b.caps {
			return a.caps < b.caps
		}
		if a.repr != b.repr {
			return a.repr < b.repr
		}
		return a.line < b.line
	})

	var sb strings.Builder
	for i := 0; i < len(records); {
		line := records[i].line
		count := 1
		for j := i + 1; j < len(records); j++ {
			if records[j].line != line {
				break
			}
			count++
		}
		sb.WriteString(line)
		if count > 1 {
			sb.WriteString(fmt.Sprintf(" count=%d", count))
		}
		sb.WriteString("\n")
		i += count
	}
	return sb.String()
}

func (h *Heap) dumpRecord(obj *HeapObject) heapDumpRecord {
	rec := heapDumpRecord{
		kind:   obj.Kind.String(),
		strong: obj.Strong,
		weak:   obj.Weak,
	}
	switch obj.Kind {
	case OKScalar:
		rec.repr = obj.Scalar.String()
	case OKTable:
		rec.entries = len(obj.Table.Entries)
		rec.edges = len(obj.Table.children)
	case OKArray:
		rec.arrLen = len(obj.Array.Elems)
		rec.arrCap = cap(obj.Array.Elems)
	case OKWeak:
		rec.target = obj.Target
		rec.valid = h.weakValid(obj.ID)
	case OKClosure:
		rec.funcIdx = obj.Closure.FuncIdx
		rec.caps = len(obj.Closure.Captures)
		rec.edges = len(obj.Closure.children)
	}
	rec.line = rec.formatLine()
	return rec
}

func (rec heapDumpRecord) formatLine() string {
	var b strings.Builder
	fmt.Fprintf(&b, "OBJ kind=%s rc=%d weak=%d", rec.kind, rec.strong, rec.weak)
	switch rec.kind {
	case "scalar":
		fmt.Fprintf(&b, " repr=%s", rec.repr)
	case "table":
		fmt.Fprintf(&b, " entries=%d edges=%d", rec.entries, rec.edges)
	case "array":
		fmt.Fprintf(&b, " len=%d cap=%d", rec.arrLen, rec.arrCap)
	case "weak":
		fmt.Fprintf(&b, " valid=%t", rec.valid)
	case "closure":
		fmt.Fprintf(&b, " func=%d captures=%d edges=%d", rec.funcIdx, rec.caps, rec.edges)
	}
	return b.String()
}

// HeapCensus is a per-kind count of live slots.
type HeapCensus struct {
	Live      int
	Free      int
	Watermark int
	Scalars   int
	Tables    int
	Arrays    int
	Weaks     int
	Closures  int
}

// Census walks the allocated range and counts live objects by kind.
func (h *Heap) Census() HeapCensus {
	cs := HeapCensus{Watermark: int(h.next) - 1}
	for id := ObjectID(1); id < h.next; id++ {
		obj := &h.slots[id]
		if obj.Strong <= 0 {
			cs.Free++
			continue
		}
		cs.Live++
		switch obj.Kind {
		case OKScalar:
			cs.Scalars++
		case OKTable:
			cs.Tables++
		case OKArray:
			cs.Arrays++
		case OKWeak:
			cs.Weaks++
		case OKClosure:
			cs.Closures++
		}
	}
	return cs
}

// String renders the census as a one-line summary.
func (cm HeapCensus) String() string {
	return fmt.Sprintf("live=%d free=%d watermark=%d scalars=%d tables=%d arrays=%d weaks=%d closures=%d",
		cm.Live, cm.Free, cm.Watermark, cm.Scalars, cm.Tables, cm.Arrays, cm.Weaks, cm.Closures)
}
