// Package snapshot serializes a context's managed state to a
// schema-versioned msgpack image and rebuilds a context from one.
// Heap objects, globals, and the RNG state travel; destructors and
// function bodies must be re-registered by the host (closure function
// indices survive for that), and coroutines do not travel at all:
// coroutine handles inside an image restore as dead handles, so
// resuming one faults the usual way.
package snapshot

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"stride/internal/vm"
)

// SchemaVersion is bumped whenever the image layout changes; images
// carrying any other version are rejected on read.
const SchemaVersion uint16 = 1

// ErrSchemaMismatch indicates an image written under a different
// schema version.
var ErrSchemaMismatch = errors.New("snapshot schema mismatch")

// Snapshot is an image of one context's managed state.
type Snapshot struct {
	Schema    uint16
	Capacity  int64  // heap slot count, including the reserved id 0
	Watermark uint32 // one past the highest id ever allocated
	Objects   []ObjectImage
	Globals   []Binding
	RandState uint64
}

// ObjectImage is one live heap slot. Exactly one payload group is
// meaningful, selected by Kind.
type ObjectImage struct {
	ID     uint32
	Kind   uint8
	Strong int32
	Weak   uint32

	Scalar   vm.Value        // scalar cells
	Entries  []vm.TableEntry // tables
	Elems    []vm.Value      // arrays
	Target   uint32          // weak cells
	FuncIdx  int32           // closures
	Captures []vm.Value      // closures
}

// Binding is one global name/value pair.
type Binding struct {
	Name string
	Val  vm.Value
}

// Capture walks the context and records every live object, the global
// table, and the RNG state. The context is read, never mutated.
func Capture(c *vm.Context) *Snapshot {
	s := &Snapshot{
		Schema:    SchemaVersion,
		Capacity:  int64(c.Heap.Capacity()),
		Watermark: uint32(c.Heap.NextID()),
		RandState: c.RandState(),
	}
	for id := vm.ObjectID(1); id < c.Heap.NextID(); id++ {
		obj, ok := c.Heap.Object(id)
		if !ok || obj.Strong <= 0 {
			continue
		}
		img := ObjectImage{
			ID:     uint32(id),
			Kind:   uint8(obj.Kind),
			Strong: obj.Strong,
			Weak:   obj.Weak,
		}
		switch obj.Kind {
		case vm.OKScalar:
			img.Scalar = obj.Scalar
		case vm.OKTable:
			img.Entries = append([]vm.TableEntry(nil), obj.Table.Entries...)
		case vm.OKArray:
			img.Elems = append([]vm.Value(nil), obj.Array.Elems...)
		case vm.OKWeak:
			img.Target = uint32(obj.Target)
		case vm.OKClosure:
			img.FuncIdx = obj.Closure.FuncIdx
			img.Captures = append([]vm.Value(nil), obj.Closure.Captures...)
		}
		s.Objects = append(s.Objects, img)
	}
	for _, e := range c.Globals.Entries() {
		s.Globals = append(s.Globals, Binding{Name: e.Name, Val: e.Val})
	}
	return s
}

// validate rejects images a restore could not materialize faithfully.
func (s *Snapshot) validate() error {
	if s.Schema != SchemaVersion {
		return fmt.Errorf("%w: image has %d, supported %d", ErrSchemaMismatch, s.Schema, SchemaVersion)
	}
	if s.Capacity < 2 {
		return fmt.Errorf("snapshot capacity %d too small", s.Capacity)
	}
	if int64(s.Watermark) > s.Capacity || s.Watermark < 1 {
		return fmt.Errorf("snapshot watermark %d outside capacity %d", s.Watermark, s.Capacity)
	}
	seen := make(map[uint32]bool, len(s.Objects))
	for i := range s.Objects {
		img := &s.Objects[i]
		if img.ID < 1 || img.ID >= s.Watermark {
			return fmt.Errorf("object id %d outside watermark %d", img.ID, s.Watermark)
		}
		if seen[img.ID] {
			return fmt.Errorf("duplicate object id %d", img.ID)
		}
		seen[img.ID] = true
		if img.Strong < 1 {
			return fmt.Errorf("object %d has non-positive strong count %d", img.ID, img.Strong)
		}
		if k := vm.ObjectKind(img.Kind); k > vm.OKClosure {
			return fmt.Errorf("object %d has unknown kind %d", img.ID, img.Kind)
		}
		if vm.ObjectKind(img.Kind) == vm.OKWeak && (img.Target < 1 || img.Target >= s.Watermark) {
			return fmt.Errorf("weak cell %d targets invalid id %d", img.ID, img.Target)
		}
	}
	return nil
}

// Restore materializes a fresh context from the image. Slot ids,
// strong/weak counts, payloads, child edges, globals, and the RNG
// stream all come back exactly; destructors and function bodies must
// be re-registered by the host. Frame accounting starts clean.
func Restore(s *Snapshot) (*vm.Context, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	capacity, err := safecast.Conv[int](s.Capacity)
	if err != nil {
		return nil, fmt.Errorf("snapshot capacity overflow: %w", err)
	}

	byID := make(map[uint32]*ObjectImage, len(s.Objects))
	for i := range s.Objects {
		byID[s.Objects[i].ID] = &s.Objects[i]
	}

	c := vm.NewContext(vm.Options{HeapCapacity: capacity})

	// Pin every id below the watermark by allocating in ascending
	// order; holes get throwaway scalar cells freed further down.
	for id := uint32(1); id < s.Watermark; id++ {
		img := byID[id]
		var got vm.ObjectID
		if img == nil {
			got = c.Heap.AllocScalar(vm.MakeNil(), nil)
		} else {
			switch vm.ObjectKind(img.Kind) {
			case vm.OKScalar:
				got = c.Heap.AllocScalar(vm.MakeNil(), nil)
			case vm.OKTable:
				got = c.Heap.AllocTable(nil)
			case vm.OKArray:
				got = c.Heap.AllocArray(len(img.Elems))
			case vm.OKWeak:
				got = c.Heap.AllocWeak(vm.ObjectID(img.Target))
			case vm.OKClosure:
				got = c.Heap.AllocClosure(img.FuncIdx, nil)
			}
		}
		if got != vm.ObjectID(id) {
			return nil, fmt.Errorf("snapshot: slot %d materialized as %d", id, got)
		}
	}

	// Fill payloads. Values are stored verbatim, without retains: the
	// recorded counts already include every owner, and are written
	// below once all owners are in place.
	for id := uint32(1); id < s.Watermark; id++ {
		img := byID[id]
		if img == nil {
			continue
		}
		obj, _ := c.Heap.Object(vm.ObjectID(id))
		switch vm.ObjectKind(img.Kind) {
		case vm.OKScalar:
			obj.Scalar = img.Scalar
		case vm.OKTable:
			obj.Table.Entries = append([]vm.TableEntry(nil), img.Entries...)
			for _, e := range img.Entries {
				c.Heap.TrackRef(vm.ObjectID(id), e.Val)
			}
		case vm.OKArray:
			copy(obj.Array.Elems, img.Elems)
		case vm.OKClosure:
			obj.Closure.Captures = append([]vm.Value(nil), img.Captures...)
			for _, cv := range img.Captures {
				c.Heap.TrackRef(vm.ObjectID(id), cv)
			}
		}
	}

	for _, b := range s.Globals {
		c.Globals.Set(b.Name, b.Val)
	}

	// Drop the hole placeholders, then write the recorded counts over
	// whatever the allocation and global replay accumulated.
	for id := uint32(1); id < s.Watermark; id++ {
		if byID[id] == nil {
			c.Release(vm.MakeRef(vm.ObjectID(id)))
		}
	}
	for id := uint32(1); id < s.Watermark; id++ {
		img := byID[id]
		if img == nil {
			continue
		}
		obj, _ := c.Heap.Object(vm.ObjectID(id))
		obj.Strong = img.Strong
		obj.Weak = img.Weak
	}

	c.Seed(s.RandState)
	return c, nil
}

// Summary renders one line of image statistics for logs and the CLI.
func (s *Snapshot) Summary() string {
	var scalars, tables, arrays, weaks, closures int
	for i := range s.Objects {
		switch vm.ObjectKind(s.Objects[i].Kind) {
		case vm.OKScalar:
			scalars++
		case vm.OKTable:
			tables++
		case vm.OKArray:
			arrays++
		case vm.OKWeak:
			weaks++
		case vm.OKClosure:
			closures++
		}
	}
	return fmt.Sprintf("schema=%d objects=%d (scalar=%d table=%d array=%d weak=%d closure=%d) globals=%d watermark=%d",
		s.Schema, len(s.Objects), scalars, tables, arrays, weaks, closures, len(s.Globals), s.Watermark)
}
