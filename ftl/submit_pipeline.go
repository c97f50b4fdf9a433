package ftl

import (
	"sync/atomic"
	"time"
)

// Submit is the client entrypoint (spec §3 "incoming I/O request", §7
// external interface). It returns ErrDeferred (wrapped) if the request
// could not be placed immediately; req.Complete still fires later, once
// GC makes room and the deferred queue is retried. If no request wrapper
// is free, the request is not queued and req.Complete is never called.
func (f *FTL) Submit(req *Request) error {
	w := f.wrappers.get()
	if w == nil {
		return wrapErr("Submit", ErrDeferred)
	}
	w.req = req
	w.mapID = MapPrimary
	w.ap = noAP
	w.isGCRead = req.IsGCRead
	w.start = time.Now()

	if req.Dir == DirRead {
		return f.typ.ReadBio(f, w)
	}
	return f.typ.WriteBio(f, w)
}

// ReadBio is defaultType's (and, by delegation, hints.Type's) read path:
// lock the logical address, resolve it, and either zero-fill a miss
// inline or hand the bio to the device.
func (f *FTL) ReadBio(w *RequestWrapper) error {
	l := f.sectorToLog(w.req.Log)
	f.tm.lockAddr(l)

	h, err := f.typ.LookupLtop(f.tm, l, w.mapID)
	if err != nil {
		f.tm.unlockAddr(l)
		f.typ.DeferBio(f, w)
		return wrapErr("Read", ErrDeferred)
	}
	w.handle = h
	if h.Block != noBlock {
		w.ap = f.blocks[h.Block].ap
	}

	if h.Block == noBlock {
		for i := range w.req.Payload {
			w.req.Payload[i] = 0
		}
		atomic.AddUint64(&f.st.readMisses, 1)
		f.tm.handles.put(h)
		f.tm.unlockAddr(l)
		f.Complete(w, nil)
		return nil
	}

	f.submitBio(w, DirRead)
	return nil
}

// WriteBio is defaultType's write path: allocate a physical address
// (which also installs the new forward mapping) and hand the bio to the
// device. Exhaustion surfaces as ErrDeferred after kicking GC.
func (f *FTL) WriteBio(w *RequestWrapper) error {
	l := f.sectorToLog(w.req.Log)
	f.tm.lockAddr(l)

	h, err := f.typ.MapLtop(f, l, false, w.mapID)
	if err != nil {
		f.tm.unlockAddr(l)
		f.typ.DeferBio(f, w)
		return wrapErr("Write", ErrDeferred)
	}
	w.handle = h
	w.ap = f.blocks[h.Block].ap

	blk := f.blocks[h.Block]
	blk.stagePage(h.Addr, w.req.Payload)

	f.submitBio(w, DirWrite)
	return nil
}

// submitBio either issues the bio to the device immediately or, under
// OptPoolSerialize, parks it on its pool's waiting queue so only one bio
// per pool is ever in flight (spec §6, emulating a single-channel
// device).
func (f *FTL) submitBio(w *RequestWrapper, dir Direction) {
	w.dir = dir
	if f.cfg.Options.has(OptPoolSerialize) {
		f.typ.BioWaitAdd(f, w)
		return
	}
	f.issueBio(w)
}

// issueBio performs the actual device I/O and wires its completion to
// Endio.
func (f *FTL) issueBio(w *RequestWrapper) {
	addr := f.sectorAddr(w.handle.Addr, w.req.Log)
	switch w.dir {
	case DirRead:
		f.device.Read(addr, w.req.Payload, func(err error) { f.typ.Endio(f, w, err) })
	case DirWrite:
		f.device.Write(addr, w.req.Payload, func(err error) { f.typ.Endio(f, w, err) })
	}
}

// PoolWaitAdd is defaultType's BioWaitAdd: append to the pool's waiting
// list and, if no bio is currently active on that pool, become active
// and issue immediately.
func (f *FTL) PoolWaitAdd(w *RequestWrapper) {
	pool := f.pools[f.blocks[w.handle.Block].pool]

	pool.waitingLock.Lock()
	if !pool.isActive {
		pool.isActive = true
		pool.curBio = w
		pool.waitingLock.Unlock()
		f.issueBio(w)
		return
	}
	pool.waitingBios.PushBack(w)
	atomic.AddUint64(&f.st.poolWaits, 1)
	pool.waitingLock.Unlock()
}

// poolAdvance is called from Endio once a pool-serialized bio completes:
// it pops the next waiting bio (if any) and issues it.
func (f *FTL) poolAdvance(pool *Pool) {
	pool.waitingLock.Lock()
	front := pool.waitingBios.Front()
	if front == nil {
		pool.isActive = false
		pool.curBio = nil
		pool.waitingLock.Unlock()
		return
	}
	w := front.Value.(*RequestWrapper)
	pool.waitingBios.Remove(front)
	pool.curBio = w
	pool.waitingLock.Unlock()

	f.issueBio(w)
}

// Endio runs after the device reports completion. It applies device-wait
// pacing (unless OptNoWaits is set), advances pool serialization, frees
// pooled resources and invokes the caller's completion callback exactly
// once.
func (f *FTL) Endio(w *RequestWrapper, err error) {
	if err == nil && w.dir == DirWrite {
		checksum := pageChecksum(w.req.Payload)
		full := f.blocks[w.handle.Block].commitPage(checksum)
		if full {
			f.pools[f.blocks[w.handle.Block].pool].markFull(w.handle.Block)
		}
	}

	f.tm.unlockAddr(f.sectorToLog(w.req.Log))

	if f.cfg.Options.has(OptPoolSerialize) {
		f.poolAdvance(f.pools[f.blocks[w.handle.Block].pool])
	}

	f.paceDeviceWait(w)

	switch w.dir {
	case DirRead:
		atomic.AddUint64(&f.st.reads, 1)
	case DirWrite:
		atomic.AddUint64(&f.st.writes, 1)
	}

	// A GC-relocation read's handle is owned by the caller, not the
	// submit pipeline; everything else returns its handle to the pool
	// (spec §4.6).
	if !w.isGCRead {
		f.tm.handles.put(w.handle)
	}
	f.Complete(w, err)
}

// paceDeviceWait sleeps out the remainder of the configured read/write
// latency target, modeling device access time the in-memory test device
// has none of (spec §6).
func (f *FTL) paceDeviceWait(w *RequestWrapper) {
	if f.cfg.Options.has(OptNoWaits) {
		return
	}

	target := f.cfg.TRead
	if w.dir == DirWrite {
		target = f.cfg.TWrite
	}
	if w.ap >= 0 && int(w.ap) < len(f.cfg.PerAPTimings) {
		if w.dir == DirRead {
			target = f.cfg.PerAPTimings[w.ap].TRead
		} else {
			target = f.cfg.PerAPTimings[w.ap].TWrite
		}
	}
	if target <= 0 {
		return
	}

	elapsed := time.Since(w.start)
	if remaining := target - elapsed; remaining > 0 {
		time.Sleep(remaining)
	}
}

// Complete invokes the request's callback and returns the wrapper to its
// pool. Safe to call exactly once per wrapper.
func (f *FTL) Complete(w *RequestWrapper, err error) {
	cb := w.req.Complete
	f.wrappers.put(w)
	if cb != nil {
		cb(err)
	}
}

// DeferRequest is defaultType's DeferBio: park the wrapper on the
// deferred queue and kick GC.
func (f *FTL) DeferRequest(w *RequestWrapper) {
	atomic.AddUint64(&f.st.deferrals, 1)
	f.deferred.push(w)
	f.kickGC()
}

// retry resubmits a previously-deferred wrapper from the top of its
// original request's direction-specific path.
func (f *FTL) retry(w *RequestWrapper) {
	w.start = time.Now()
	if w.req.Dir == DirRead {
		_ = f.typ.ReadBio(f, w)
		return
	}
	_ = f.typ.WriteBio(f, w)
}
