// Copyright (C) 2025 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package dispatch

import (
	"errors"
	"fmt"
	"time"
	"sync"
	"github.com/mlnoga/daylight/internal/lut"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/render"
	"github.com/mlnoga/daylight/internal/state"
)

// Control-flow rejections. Expected and frequent during rapid adjustment;
// callers must swallow them silently and never surface them as user errors
var (
	ErrStaleRender =errors.New("stale render")  // a newer request finished first
	ErrSuperseded  =errors.New("superseded")    // a newer request was dispatched
	ErrInvalidated =errors.New("invalidated")   // the source image changed entirely
)

// Genuine failures
var (
	ErrWorkerFailure=errors.New("render worker failure")
	ErrTimeout      =errors.New("render timeout")
)

// Fixed per-request render budget. An unresponsive worker is treated as
// permanently broken for the client lifetime, not retried
const defaultTimeout=10*time.Second

const requestQueueDepth=16

// A promise for a source image. Materialized once per dispatch; materialized
// again if the worker fails and the request falls back to synchronous
// execution
type Source func() (*raster.Image, error)

type outcome struct {
	res *render.Response
	err error
}

// A dispatched but unresolved request. At most one entry per request id;
// removal from the pending table and the single channel send always happen
// together, so each entry resolves exactly once
type pendingRequest struct {
	id     uint64
	result chan outcome // buffered, capacity 1
	timer  *time.Timer
}

// Dispatches render requests to a lazily created background worker goroutine,
// with automatic synchronous fallback when the worker fails. Tracks request
// identity so that a result older than the latest request is never surfaced.
// All state is per-client; multiple independent clients can coexist
type Client struct {
	mu       sync.Mutex
	ctx      *render.Context
	timeout  time.Duration
	renderFn func(*render.Request, *render.Context) (*render.Response, error)

	latestID uint64
	pending  map[uint64]*pendingRequest
	requests chan *render.Request // nil until the worker is started
	quit     chan struct{}
	compat   bool // permanent: all further renders run synchronously
}

func NewClient(ctx *render.Context) *Client {
	return &Client{
		ctx     : ctx,
		timeout : defaultTimeout,
		renderFn: render.Render,
		pending : make(map[uint64]*pendingRequest),
	}
}

// Renders the source with the given edit state and mode. Blocks until this
// request resolves, is superseded by a newer one, or fails. Last writer wins:
// when renders race, only the caller holding the latest request id receives
// an image; all others get control-flow rejections
func (c *Client) Render(src Source, st *state.EditState, mode render.Mode, cube *lut.CubeLUT) (*render.Response, error) {
	c.mu.Lock()
	c.latestID++
	id:=c.latestID
	// supersede-on-dispatch: anything older can no longer win
	c.rejectOlderLocked(id, ErrSuperseded)

	compat:=c.compat
	if !compat && c.requests==nil { c.startWorkerLocked() }
	requests, quit:=c.requests, c.quit

	p:=&pendingRequest{id: id, result: make(chan outcome, 1)}
	c.pending[id]=p
	p.timer=time.AfterFunc(c.timeout, func() { c.failAll(ErrTimeout) })
	c.mu.Unlock()

	img, err:=src()
	if err!=nil {
		c.deliver(id, nil, err)
	} else {
		req:=&render.Request{ID: id, Mode: mode, Source: img, State: st, LUT: cube}
		if compat {
			res, rerr:=c.safeRender(req)
			c.deliver(id, res, rerr)
		} else {
			select { // ownership of the source moves to the worker
			case requests <- req:
			case <-quit:
				req.ReleaseSource()
				c.deliver(id, nil, ErrInvalidated)
			}
		}
	}

	o:=<-p.result
	if errors.Is(o.err, ErrWorkerFailure) {
		return c.fallback(id, src, st, mode, cube)
	}
	return o.res, o.err
}

// Synchronous fallback for the current request after a worker failure.
// Compatibility mode is already engaged at this point; older requests are
// not retried, they were about to be superseded anyway
func (c *Client) fallback(id uint64, src Source, st *state.EditState, mode render.Mode, cube *lut.CubeLUT) (*render.Response, error) {
	if !c.isLatest(id) { return nil, ErrStaleRender }

	img, err:=src() // re-materialize, the worker consumed the first copy
	if err!=nil { return nil, err }
	res, err:=c.safeRender(&render.Request{ID: id, Mode: mode, Source: img, State: st, LUT: cube})
	if err!=nil { return nil, err }
	if !c.isLatest(id) { return nil, ErrStaleRender }
	return res, nil
}

// Invalidates all in-flight requests, e.g. because a new source image was
// loaded. Pending requests reject with ErrInvalidated
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.latestID++ // move past every issued id
	for _, p:=range c.pending {
		c.rejectLocked(p, ErrInvalidated)
	}
	c.mu.Unlock()
}

// Invalidates and terminates the worker. For client teardown
func (c *Client) Stop() {
	c.Invalidate()
	c.mu.Lock()
	c.terminateWorkerLocked()
	c.mu.Unlock()
}

func (c *Client) isLatest(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return id==c.latestID
}

func (c *Client) startWorkerLocked() {
	c.requests=make(chan *render.Request, requestQueueDepth)
	c.quit    =make(chan struct{})
	go c.worker(c.requests, c.quit)
}

func (c *Client) terminateWorkerLocked() {
	if c.quit!=nil {
		close(c.quit)
		c.quit=nil
		c.requests=nil
	}
}

// The background worker: processes requests to completion in order. A render
// is not preemptible once started; cancellation only affects whether its
// result is honored
func (c *Client) worker(requests chan *render.Request, quit chan struct{}) {
	for {
		select {
		case <-quit:
			for { // release sources of requests that never ran
				select {
				case req:=<-requests:
					req.ReleaseSource()
				default:
					return
				}
			}
		case req:=<-requests:
			res, err:=c.safeRender(req)
			c.deliver(req.ID, res, err)
		}
	}
}

// Runs the pipeline, converting panics into worker failures. The source is
// released either way; Request.ReleaseSource is once-guarded
func (c *Client) safeRender(req *render.Request) (res *render.Response, err error) {
	defer func() {
		if r:=recover(); r!=nil {
			req.ReleaseSource()
			res=nil
			err=fmt.Errorf("%w: %v", ErrWorkerFailure, r)
		}
	}()
	return c.renderFn(req, c.ctx)
}

// Routes a finished render to its pending entry, applying the staleness
// check. Worker failures additionally poison the worker for the rest of the
// client lifetime: reject everything, terminate, engage compatibility mode.
// Trading a possible perf regression for correctness and simplicity
func (c *Client) deliver(id uint64, res *render.Response, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok:=c.pending[id]
	if ok {
		delete(c.pending, id)
		p.timer.Stop()
	}

	if errors.Is(err, ErrWorkerFailure) {
		c.compat=true
		c.terminateWorkerLocked()
		for _, q:=range c.pending {
			c.rejectLocked(q, ErrWorkerFailure)
		}
	}

	if !ok { return } // already superseded/invalidated; response dropped here

	if err==nil && id!=c.latestID {
		// the dispatch client, not the caller, discards stale output
		p.result <- outcome{nil, ErrStaleRender}
		return
	}
	p.result <- outcome{res, err}
}

// Full reset after a timeout: reject all pending requests, terminate the
// worker, engage compatibility mode
func (c *Client) failAll(reason error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compat=true
	c.terminateWorkerLocked()
	for _, p:=range c.pending {
		c.rejectLocked(p, reason)
	}
}

func (c *Client) rejectOlderLocked(newID uint64, reason error) {
	for pid, p:=range c.pending {
		if pid<newID { c.rejectLocked(p, reason) }
	}
}

// Removes the entry from the pending table and sends its single outcome.
// Send never blocks: the channel has capacity one and removal guarantees no
// second send
func (c *Client) rejectLocked(p *pendingRequest, reason error) {
	delete(c.pending, p.id)
	p.timer.Stop()
	p.result <- outcome{nil, reason}
}
