package onnx

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var errPoolClosed = errors.New("session pool is closed")

// sessionPool は固定数のセッションを貸し出します。各セッションを同時に使えるのは一つの呼び出し元だけです。
type sessionPool struct {
	sessions chan *modelSession
	size     int

	mu     sync.Mutex
	closed bool
}

func newSessionPool(size int, factory func() (*modelSession, error)) (*sessionPool, error) {
	if size <= 0 {
		size = 1
	}
	p := &sessionPool{sessions: make(chan *modelSession, size), size: size}
	for i := 0; i < size; i++ {
		s, err := factory()
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("initialize session %d: %w", i, err)
		}
		p.sessions <- s
	}
	return p, nil
}

// Acquire は空きセッションか ctx の終了を待ちます。
func (p *sessionPool) Acquire(ctx context.Context) (*modelSession, error) {
	select {
	case s, ok := <-p.sessions:
		if !ok {
			return nil, errPoolClosed
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release は s をプールに戻します。プールが閉じていれば破棄します。
func (p *sessionPool) Release(s *modelSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		s.Destroy()
		return
	}
	p.sessions <- s
}

// Close は待機中のセッションを破棄します。使用中のものは Release 時に破棄されます。
func (p *sessionPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.sessions)
	for s := range p.sessions {
		s.Destroy()
	}
}
