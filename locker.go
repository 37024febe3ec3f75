package postings

import (
	"context"
	"sync"
)

// Locker serializes engine work on a key. Keys are "account:<id>" and
// "ledger:<id>"; the engine always takes an account key before a ledger
// key. Lock blocks until the key is free or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LockerFunc adapts a function to Locker.
type LockerFunc func(ctx context.Context, key string) (func(), error)

// Lock implements Locker.
func (f LockerFunc) Lock(ctx context.Context, key string) (func(), error) {
	return f(ctx, key)
}

// MemoryLocker is an in-process keyed mutex. Entries are dropped once no
// goroutine holds or waits for the key.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker returns an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*keyLock)}
}

// Lock implements Locker.
func (m *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	kl, ok := m.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = kl
	}
	kl.refs++
	m.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			m.release(key, kl)
		})
	}, nil
}

func (m *MemoryLocker) release(key string, kl *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(m.locks, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (m *MemoryLocker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

func accountLockKey(accountID ID) string { return "account:" + accountID.String() }

func ledgerLockKey(ledgerID ID) string { return "ledger:" + ledgerID.String() }
