// Package diag collects dispatch statistics from a running objc.Runtime and
// can stand in for unimplemented selectors during compatibility work.
package diag

import (
	"sort"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/Doodledash6/touchHLE/objc"
)

var log = commonlog.GetLogger("diag")

// Key identifies a selector as sent to a class.
type Key struct {
	Class     string
	Selector  string
	ClassSide bool
}

func (k Key) String() string {
	side := "-"
	if k.ClassSide {
		side = "+"
	}
	return side + "[" + k.Class + " " + k.Selector + "]"
}

// Count pairs a Key with how often it was seen.
type Count struct {
	Key
	N uint64
}

// ClassStats holds allocation counters for one class.
type ClassStats struct {
	Allocated   uint64
	Deallocated uint64
}

// Live returns the number of instances still allocated.
func (s ClassStats) Live() uint64 {
	return s.Allocated - s.Deallocated
}

// Recorder observes a runtime and, when installed as its Unimplemented
// policy, answers every unknown selector with a stub returning 0.
type Recorder struct {
	mu            sync.Mutex
	sends         map[Key]uint64
	unimplemented map[Key]uint64
	classes       map[string]*ClassStats
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		sends:         make(map[Key]uint64),
		unimplemented: make(map[Key]uint64),
		classes:       make(map[string]*ClassStats),
	}
}

// Attach registers r as an observer of rt. With stub set it also becomes
// rt's Unimplemented policy.
func (r *Recorder) Attach(rt *objc.Runtime, stub bool) {
	rt.Observe(r)
	if stub {
		rt.Unimplemented = r
	}
}

func (r *Recorder) classStats(class *objc.Class) *ClassStats {
	s, ok := r.classes[class.Name]
	if !ok {
		s = &ClassStats{}
		r.classes[class.Name] = s
	}
	return s
}

// ObjectAllocated implements objc.Observer.
func (r *Recorder) ObjectAllocated(_ objc.ID, class *objc.Class) {
	r.mu.Lock()
	r.classStats(class).Allocated++
	r.mu.Unlock()
}

// ObjectDeallocated implements objc.Observer.
func (r *Recorder) ObjectDeallocated(_ objc.ID, class *objc.Class) {
	r.mu.Lock()
	r.classStats(class).Deallocated++
	r.mu.Unlock()
}

// MessageSent implements objc.Observer.
func (r *Recorder) MessageSent(class *objc.Class, selector string, classSide bool) {
	r.mu.Lock()
	r.sends[Key{class.Name, selector, classSide}]++
	r.mu.Unlock()
}

// Unimplemented implements objc.UnimplementedPolicy.
func (r *Recorder) Unimplemented(_ *objc.Runtime, class *objc.Class, selector string, classSide bool) (objc.Method, bool) {
	k := Key{class.Name, selector, classSide}
	r.mu.Lock()
	r.unimplemented[k]++
	first := r.unimplemented[k] == 1
	r.mu.Unlock()

	if first {
		log.Warningf("stubbing unimplemented %s", k)
	}
	return objc.NewMethod(selector, stubMethod), true
}

func stubMethod(*objc.Runtime, *objc.Call) objc.Word {
	return 0
}

// Sends returns send counts, most frequent first.
func (r *Recorder) Sends() []Count {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedCounts(r.sends)
}

// UnimplementedHits returns stubbed selectors, most frequent first.
func (r *Recorder) UnimplementedHits() []Count {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedCounts(r.unimplemented)
}

// Classes returns a copy of the per-class allocation counters.
func (r *Recorder) Classes() map[string]ClassStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ClassStats, len(r.classes))
	for name, s := range r.classes {
		out[name] = *s
	}
	return out
}

// Reset clears every counter.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.sends)
	clear(r.unimplemented)
	clear(r.classes)
}

func sortedCounts(m map[Key]uint64) []Count {
	out := make([]Count, 0, len(m))
	for k, n := range m {
		out = append(out, Count{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
