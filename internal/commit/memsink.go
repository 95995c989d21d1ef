package commit

import "sync"

// MemSink is the default, WASM-compatible commit log sink: an in-process
// slice. It is the only sink available on the browser host, which has
// no durable filesystem to write a bbolt file to -- MemSink never
// persists anything, by construction.
type MemSink struct {
	mu      sync.Mutex
	records []Record
}

func NewMemSink() *MemSink {
	return &MemSink{}
}

func (s *MemSink) Append(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *MemSink) Records() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}
