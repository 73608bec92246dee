// Package engine guards the single physical AES unit.
//
// Exactly one Token may be outstanding at a time. Callers defer
// Token.Release immediately after a successful Acquire, or use Lock.Do,
// so the engine is returned on every exit path:
//
//	tok, err := lock.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer tok.Release()
//	block := tok.Bind(keyContext)
//
// The lock is held for the whole operation, every block iteration
// included, not just while round keys are loaded.
package engine

import (
	"context"
	"crypto/cipher"
	"sync"
	"sync/atomic"

	"github.com/lanikai/hosal/internal/aes"
	"github.com/lanikai/hosal/internal/logging"

	"golang.org/x/sync/semaphore"
)

var log = logging.DefaultLogger.WithTag("engine")

// A Lock arbitrates ownership of one crypto engine.
type Lock struct {
	policy Policy
	sem    *semaphore.Weighted

	// Number of tokens handed out, for diagnostics.
	grants uint64
}

func NewLock(policy Policy) *Lock {
	return &Lock{policy: policy, sem: semaphore.NewWeighted(1)}
}

func (l *Lock) Policy() Policy {
	return l.policy
}

// Acquire takes ownership of the engine. Under the Blocking policy it waits
// until the engine is free or ctx is done, returning ctx.Err() in the latter
// case. Under NonBlocking it returns ErrEngineBusy if the engine is owned.
func (l *Lock) Acquire(ctx context.Context) (*Token, error) {
	switch l.policy {
	case NonBlocking:
		if !l.sem.TryAcquire(1) {
			log.Debug("engine busy")
			return nil, ErrEngineBusy
		}
	default:
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}

	n := atomic.AddUint64(&l.grants, 1)
	log.Trace(5, "engine acquired (grant %d)", n)
	return &Token{lock: l, id: n}, nil
}

// Do runs fn while holding the engine. The engine is released when fn
// returns or panics.
func (l *Lock) Do(ctx context.Context, fn func(*Token) error) error {
	tok, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer tok.Release()
	return fn(tok)
}

// Grants returns how many times the engine has been acquired.
func (l *Lock) Grants() uint64 {
	return atomic.LoadUint64(&l.grants)
}

// A Token is proof of engine ownership.
type Token struct {
	lock *Lock
	id   uint64

	once     sync.Once
	released int32
}

// Release returns the engine. Releasing more than once is harmless.
func (t *Token) Release() {
	t.once.Do(func() {
		atomic.StoreInt32(&t.released, 1)
		t.lock.sem.Release(1)
		log.Trace(5, "engine released (grant %d)", t.id)
	})
}

// Held reports whether the token still owns the engine.
func (t *Token) Held() bool {
	return atomic.LoadInt32(&t.released) == 0
}

// Bind loads round keys into the engine and returns a block transform that
// is valid only while t is held. Using it after Release panics.
func (t *Token) Bind(c *aes.Context) cipher.Block {
	if !t.Held() {
		panic("engine: bind after release")
	}
	return &boundBlock{tok: t, ctx: c}
}

type boundBlock struct {
	tok *Token
	ctx *aes.Context
}

func (b *boundBlock) BlockSize() int {
	return aes.BlockSize
}

func (b *boundBlock) Encrypt(dst, src []byte) {
	b.check()
	b.ctx.Encrypt(dst, src)
}

func (b *boundBlock) Decrypt(dst, src []byte) {
	b.check()
	b.ctx.Decrypt(dst, src)
}

func (b *boundBlock) check() {
	if !b.tok.Held() {
		panic("engine: use after release")
	}
}
