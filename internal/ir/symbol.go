package ir

import "sync"

// Symbol is an interned string.
//
// Operator names are compared on every hashcons lookup and every pattern
// match, so they are interned once into a process-wide pool and compared as
// integers afterwards. The pool lives for the lifetime of the program and is
// never pruned; only put operator and variable names in it.
type Symbol uint32

type symbolPool struct {
	mu      sync.RWMutex
	index   map[string]Symbol
	strings []string
}

var symbols = &symbolPool{index: make(map[string]Symbol)}

// Intern returns the Symbol for s, inserting it if needed.
// Safe for concurrent use.
func Intern(s string) Symbol {
	symbols.mu.RLock()
	sym, ok := symbols.index[s]
	symbols.mu.RUnlock()
	if ok {
		return sym
	}

	symbols.mu.Lock()
	defer symbols.mu.Unlock()
	// Re-check: another goroutine may have inserted between the locks.
	if sym, ok := symbols.index[s]; ok {
		return sym
	}
	sym = Symbol(len(symbols.strings))
	symbols.strings = append(symbols.strings, s)
	symbols.index[s] = sym
	return sym
}

// String returns the interned text.
func (s Symbol) String() string {
	symbols.mu.RLock()
	defer symbols.mu.RUnlock()
	if int(s) >= len(symbols.strings) {
		return "<unknown symbol>"
	}
	return symbols.strings[s]
}
