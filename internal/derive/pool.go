package derive

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

type job struct {
	req   Request
	reply chan result
}

type result struct {
	key string
	err error
}

// Pool runs derivations on a fixed set of background workers. Identical
// concurrent requests are coalesced into a single derivation. A nil or
// closed pool transparently falls back to the synchronous path, with
// identical output.
type Pool struct {
	jobs chan job
	done chan struct{}
	sf   singleflight.Group

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool starts a pool with the given number of workers.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs: make(chan job),
		done: make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case j := <-p.jobs:
			key, err := Sync{}.Derive(context.Background(), j.req)
			j.reply <- result{key: key, err: err}
		}
	}
}

// Close stops the workers. In-flight derivations finish; later calls fall
// back to the synchronous path.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}

// Derive submits a request to the workers and waits for the exported key.
// The caller's context cancels the wait, not the derivation itself — a
// coalesced result may still serve another waiter.
func (p *Pool) Derive(ctx context.Context, req Request) (string, error) {
	if p == nil {
		return Sync{}.Derive(ctx, req)
	}
	select {
	case <-p.done:
		return Sync{}.Derive(ctx, req)
	default:
	}

	v, err, _ := p.sf.Do(req.fingerprint(), func() (interface{}, error) {
		reply := make(chan result, 1)

		select {
		case p.jobs <- job{req: req, reply: reply}:
		case <-p.done:
			// Pool shut down before a worker picked this up.
			key, derr := Sync{}.Derive(ctx, req)
			return key, derr
		case <-ctx.Done():
			return "", ctx.Err()
		}

		select {
		case r := <-reply:
			return r.key, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
