package aes

import (
	aes_ "crypto/aes"
	"crypto/sha256"
	"sync"

	"github.com/golang/groupcache/lru"
	errors "golang.org/x/xerrors"
)

// A Scheduler validates raw keys and expands them into round-key state.
//
// Expansions may be kept in a bounded LRU cache so that a key loaded
// repeatedly (e.g. once per partial CTR call) is expanded only once. Cache
// entries are indexed by a SHA-256 fingerprint, never by the key itself.
type Scheduler struct {
	newCipher CipherFunc

	mu    sync.Mutex
	cache *lru.Cache // nil when caching is disabled
}

type fingerprint [sha256.Size]byte

// NewScheduler returns a Scheduler expanding keys with newCipher (or
// crypto/aes when nil). A cacheSize of zero disables the expansion cache.
func NewScheduler(newCipher CipherFunc, cacheSize int) *Scheduler {
	if newCipher == nil {
		newCipher = aes_.NewCipher
	}
	s := &Scheduler{newCipher: newCipher}
	if cacheSize > 0 {
		s.cache = lru.New(cacheSize)
		s.cache.OnEvicted = func(_ lru.Key, v interface{}) {
			log.Trace(5, "evicting %v key schedule", v.(*Context).bits)
		}
	}
	return s
}

// CheckKey reports whether key is a valid raw key of the given class.
func CheckKey(key []byte, bits KeyBits) error {
	if !bits.Valid() {
		return errors.Errorf("key class %d bits: %w", int(bits), ErrInvalidKeyLength)
	}
	if len(key) != bits.Bytes() {
		return errors.Errorf("%d byte key for %v: %w", len(key), bits, ErrInvalidKeyLength)
	}
	return nil
}

// Init validates key against bits and returns its expanded round-key state.
// The returned Context is private to the caller even when the expansion
// itself came from the cache.
func (s *Scheduler) Init(key []byte, bits KeyBits) (*Context, error) {
	if err := CheckKey(key, bits); err != nil {
		return nil, err
	}

	if s.cache == nil {
		return s.expand(key, bits)
	}

	fp := keyFingerprint(key, bits)

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache.Get(fp); ok {
		cached := v.(*Context)
		return &Context{bits: cached.bits, block: cached.block}, nil
	}

	c, err := s.expand(key, bits)
	if err != nil {
		return nil, err
	}
	s.cache.Add(fp, &Context{bits: c.bits, block: c.block})
	return c, nil
}

// Flush discards every cached expansion.
func (s *Scheduler) Flush() {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.cache.Clear()
	s.mu.Unlock()
}

// Cached returns the number of expansions currently held.
func (s *Scheduler) Cached() int {
	if s.cache == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

func (s *Scheduler) expand(key []byte, bits KeyBits) (*Context, error) {
	block, err := s.newCipher(key)
	if err != nil {
		return nil, errors.Errorf("expand %v key: %w", bits, err)
	}
	if block.BlockSize() != BlockSize {
		return nil, errors.Errorf("engine block size %d, want %d", block.BlockSize(), BlockSize)
	}
	log.Debug("loaded %v round keys", bits)
	return &Context{bits: bits, block: block}, nil
}

func keyFingerprint(key []byte, bits KeyBits) fingerprint {
	h := sha256.New()
	h.Write([]byte{byte(bits >> 8), byte(bits)})
	h.Write(key)
	var fp fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}
