package vm

// CycleMember identifies one object of a detected reference cycle.
type CycleMember struct {
	ID   ObjectID
	Kind ObjectKind
}

// CycleReporter receives cycle diagnostics from the detector. Install
// one via Options; with none installed the detector is silent. The
// members slice is only valid for the duration of the call.
type CycleReporter interface {
	ReportCycle(members []CycleMember)
}

// tarjanState is the per-run bookkeeping of the SCC walk, indexed by
// object id.
type tarjanState struct {
	index   []int32
	lowLink []int32
	onStack []bool
	stack   []ObjectID
	current int32
	cycles  int

	heap     *Heap
	reporter CycleReporter
}

func newTarjanState(h *Heap, reporter CycleReporter) *tarjanState {
	n := int(h.next)
	st := &tarjanState{
		index:    make([]int32, n),
		lowLink:  make([]int32, n),
		onStack:  make([]bool, n),
		heap:     h,
		reporter: reporter,
	}
	for i := range st.index {
		st.index[i] = -1
		st.lowLink[i] = -1
	}
	return st
}

// run visits every live object not yet discovered and returns the
// number of multi-member SCCs found.
func (st *tarjanState) run() int {
	for v := ObjectID(1); v < st.heap.next; v++ {
		if st.heap.slots[v].Strong > 0 && st.index[v] == -1 {
			st.strongconnect(v)
		}
	}
	return st.cycles
}

func (st *tarjanState) strongconnect(v ObjectID) {
	st.index[v] = st.current
	st.lowLink[v] = st.current
	st.current++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	if node := st.heap.slots[v].graphNode(); node != nil {
		for _, w := range node.Children() {
			if w <= 0 || w >= st.heap.next {
				continue
			}
			if st.index[w] == -1 {
				st.strongconnect(w)
				if st.lowLink[w] < st.lowLink[v] {
					st.lowLink[v] = st.lowLink[w]
				}
			} else if st.onStack[w] {
				if st.index[w] < st.lowLink[v] {
					st.lowLink[v] = st.index[w]
				}
			}
		}
	}

	if st.lowLink[v] != st.index[v] {
		return
	}

	// v roots an SCC: pop it off the stack.
	var scc []ObjectID
	for {
		w := st.stack[len(st.stack)-1]
		st.stack = st.stack[:len(st.stack)-1]
		st.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}

	if len(scc) > 1 {
		st.cycles++
		if st.reporter != nil {
			members := make([]CycleMember, len(scc))
			for i := range scc {
				// Reverse pop order: members listed in discovery order.
				id := scc[len(scc)-1-i]
				members[i] = CycleMember{ID: id, Kind: st.heap.slots[id].Kind}
			}
			st.reporter.ReportCycle(members)
		}
	}
}

// DetectCycles runs the SCC analysis over the live object graph and
// returns the number of reference cycles (SCCs with more than one
// member), reporting each through the installed CycleReporter. The
// walk is read-only: it mutates neither refcounts nor mark flags, so
// it is safe to call at any point between mutations.
func (c *Context) DetectCycles() int {
	return newTarjanState(c.Heap, c.reporter).run()
}
