package objc

// PoolToken identifies a pushed autorelease pool.
type PoolToken int

type autoreleasePool struct {
	objects []ID
}

// PushPool opens a new innermost autorelease pool.
func (rt *Runtime) PushPool() PoolToken {
	rt.pools = append(rt.pools, &autoreleasePool{})
	return PoolToken(len(rt.pools))
}

// PopPool drains and closes the innermost pool, which must be tok. Objects
// are released in reverse registration order. Objects autoreleased while
// the drain runs (by -dealloc of a drained object) land in the same pool and
// are drained too before the pool closes.
func (rt *Runtime) PopPool(tok PoolToken) {
	if int(tok) != len(rt.pools) || tok <= 0 {
		Fatalf(FatalPoolMismatch, "pop of pool %d while innermost is %d", tok, len(rt.pools))
	}
	p := rt.pools[len(rt.pools)-1]
	drained := 0
	for len(p.objects) > 0 {
		last := len(p.objects) - 1
		id := p.objects[last]
		p.objects = p.objects[:last]
		rt.Release(id)
		drained++
	}
	rt.pools = rt.pools[:len(rt.pools)-1]
	log.Debugf("popped autorelease pool %d (%d releases)", tok, drained)
}

// PoolDepth returns the number of open pools.
func (rt *Runtime) PoolDepth() int {
	return len(rt.pools)
}

// Autorelease schedules a release of id when the innermost pool is popped,
// and returns id. With no pool open the object is leaked, matching
// iPhone OS.
func (rt *Runtime) Autorelease(id ID) ID {
	if id == Nil || rt.IsClass(id) {
		return id
	}
	e := rt.entry(id)
	if len(rt.pools) == 0 {
		log.Warningf("%s (%s) autoreleased with no pool in place, leaking", id, e.class.Name)
		return id
	}
	p := rt.pools[len(rt.pools)-1]
	p.objects = append(p.objects, id)
	return id
}
