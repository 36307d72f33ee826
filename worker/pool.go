package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"vely-capture/ocr"
)

// RecognizeFunc performs text extraction on an encoded image.
type RecognizeFunc func(image []byte) (ocr.Result, error)

// ResultCallback is invoked on completion from a worker goroutine. The event
// loop passes a closure that posts the result back into its own channel.
type ResultCallback func(res ocr.Result, err error)

// Pool is a fixed-size OCR worker pool with a 1-slot input queue: a second
// job while one is queued gets dropped, giving strict back-pressure instead
// of unbounded buffering.
type Pool struct {
	jobs      chan job
	wg        sync.WaitGroup
	recognize RecognizeFunc
}

type job struct {
	ctx   context.Context
	image []byte
	cb    ResultCallback
}

// New creates a pool. Size defaults to NumCPU when size <= 0.
func New(size int, recognize RecognizeFunc) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1), recognize: recognize}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				res, err := p.recognizeWithContext(j.ctx, j.image)
				j.cb(res, err)
			}
		}()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false if
// the job was dropped.
func (p *Pool) Submit(ctx context.Context, image []byte, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, image: image, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining queued work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// recognizeWithContext honors the ctx deadline while the extraction runs.
// On timeout the underlying call keeps running in the background; its result
// is discarded.
func (p *Pool) recognizeWithContext(ctx context.Context, image []byte) (ocr.Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		return p.recognize(image)
	}

	type outcome struct {
		res ocr.Result
		err error
	}
	resCh := make(chan outcome, 1)
	go func() {
		res, err := p.recognize(image)
		resCh <- outcome{res, err}
	}()

	select {
	case o := <-resCh:
		return o.res, o.err
	case <-ctx.Done():
		log.Printf("Worker: recognition timed out: %v", ctx.Err())
		return ocr.Result{}, ctx.Err()
	}
}
