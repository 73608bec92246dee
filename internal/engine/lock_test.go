package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lanikai/hosal/internal/aes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonBlockingSecondAcquireIsBusy(t *testing.T) {
	l := NewLock(NonBlocking)

	tok, err := l.Acquire(context.Background())
	require.NoError(t, err)

	second, err := l.Acquire(context.Background())
	assert.Nil(t, second)
	assert.True(t, errors.Is(err, ErrEngineBusy))

	tok.Release()
	third, err := l.Acquire(context.Background())
	require.NoError(t, err)
	third.Release()
}

func TestBlockingSecondAcquireWaits(t *testing.T) {
	l := NewLock(Blocking)

	tok, err := l.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	second, err := l.Acquire(ctx)
	assert.Nil(t, second)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	acquired := make(chan *Token)
	go func() {
		w, _ := l.Acquire(context.Background())
		acquired <- w
	}()

	select {
	case <-acquired:
		t.Fatal("second token granted while the first is outstanding")
	case <-time.After(20 * time.Millisecond):
	}

	tok.Release()
	select {
	case waiter := <-acquired:
		require.NotNil(t, waiter)
		waiter.Release()
	case <-time.After(time.Second):
		t.Fatal("waiter was not granted the engine after release")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	l := NewLock(NonBlocking)
	tok, err := l.Acquire(context.Background())
	require.NoError(t, err)

	tok.Release()
	tok.Release()
	assert.False(t, tok.Held())

	a, err := l.Acquire(context.Background())
	require.NoError(t, err)
	_, err = l.Acquire(context.Background())
	assert.True(t, errors.Is(err, ErrEngineBusy), "double release must not free a second slot")
	a.Release()
	assert.EqualValues(t, 2, l.Grants())
}

func TestDoReleasesOnErrorAndPanic(t *testing.T) {
	l := NewLock(NonBlocking)
	failure := errors.New("bad request")

	err := l.Do(context.Background(), func(*Token) error { return failure })
	assert.True(t, errors.Is(err, failure))

	assert.Panics(t, func() {
		l.Do(context.Background(), func(*Token) error { panic("engine fault") })
	})

	tok, err := l.Acquire(context.Background())
	require.NoError(t, err, "engine leaked")
	tok.Release()
}

func TestBoundBlockUnusableAfterRelease(t *testing.T) {
	c, err := aes.NewScheduler(nil, 0).Init(make([]byte, 16), aes.Key128)
	require.NoError(t, err)

	l := NewLock(Blocking)
	tok, err := l.Acquire(context.Background())
	require.NoError(t, err)

	b := tok.Bind(c)
	buf := make([]byte, aes.BlockSize)
	b.Encrypt(buf, buf)
	tok.Release()

	assert.Panics(t, func() { b.Encrypt(buf, buf) })
	assert.Panics(t, func() { tok.Bind(c) })
}

func TestPolicyText(t *testing.T) {
	var p Policy
	require.NoError(t, p.UnmarshalText([]byte("NonBlocking")))
	assert.Equal(t, NonBlocking, p)

	text, err := Blocking.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "blocking", string(text))

	assert.Error(t, p.UnmarshalText([]byte("eventually")))
}
