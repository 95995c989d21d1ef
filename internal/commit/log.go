package commit

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/cypher-asi/zero-os-sub001/internal/kernelerr"
)

// Record is the log's wire shape: {seq, kind, event_id?, payload,
// prev_hash, hash}, hash = H(prev_hash || body). Payload is gob-encoded
// here rather than the byte-exact layout internal/ipc uses for messages,
// because the commit log's payload shape is internal to this kernel (no
// cross-implementation wire contract), and gob is a natural fit for
// exactly that situation.
type Record struct {
	Seq      uint64
	Kind     Kind
	EventID  uint64 // the syscall event this record is caused by, or is
	BootID   string // the boot uuid the Log was built with (New), stamped on every record
	Payload  []byte
	PrevHash [32]byte
	Hash     [32]byte
}

// Sink is the external collaborator the kernel writes commits into: the
// log is external state, and the kernel writes into it via a
// collaborator. memsink.go and boltsink.go (native) are the two
// implementations.
type Sink interface {
	Append(Record) error
	Records() ([]Record, error)
}

// Log is the append-only, hash-linked sequence. It owns the next
// sequence number and the rolling prev_hash; Sink is where records
// actually live.
type Log struct {
	mu       sync.Mutex
	sink     Sink
	nextSeq  uint64
	prevHash [32]byte
	bootID   uuid.UUID
}

// New wraps sink with sequence/hash-chain bookkeeping for a freshly
// booted kernel (empty log).
func New(sink Sink, bootID uuid.UUID) *Log {
	return &Log{sink: sink, bootID: bootID}
}

// Sink returns the underlying Sink, for callers that need to read
// Records() directly (internal/invariant's audits, the zk-inspect CLI).
func (l *Log) Sink() Sink {
	return l.sink
}

// encodeBody builds the body hashed into a record: every field except the
// hash itself, in a fixed order, so two kernels replaying the same
// commit sequence compute the same chain.
func encodeBody(seq uint64, kind Kind, eventID uint64, bootID string, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(bootID)
	buf.WriteByte(byte(kind))
	writeUint64(&buf, seq)
	writeUint64(&buf, eventID)
	buf.Write(payload)
	return buf.Bytes()
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	for i := 7; i >= 0; i-- {
		tmp[i] = byte(v)
		v >>= 8
	}
	buf.Write(tmp[:])
}

// EncodePayload gob-encodes a Kind-specific payload struct.
func EncodePayload(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, kernelerr.Wrap(err, kernelerr.BadArgument, "commit: failed to encode payload")
	}
	return buf.Bytes(), nil
}

// DecodePayload gob-decodes raw into v, the Kind-specific payload struct
// the caller expects based on Record.Kind.
func DecodePayload(raw []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return kernelerr.Wrap(err, kernelerr.BadArgument, "commit: failed to decode payload")
	}
	return nil
}

// Append assigns the next sequence number, computes the hash chain, and
// writes to the sink. Kernel code must never mutate state outside of a
// commit reaching this call -- mutating state outside a commit is a
// kernel bug.
func (l *Log) Append(kind Kind, eventID uint64, payload []byte) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.nextSeq
	body := encodeBody(seq, kind, eventID, l.bootID.String(), payload)
	hash := sha256.Sum256(append(l.prevHash[:], body...))

	rec := Record{
		Seq:      seq,
		Kind:     kind,
		EventID:  eventID,
		BootID:   l.bootID.String(),
		Payload:  payload,
		PrevHash: l.prevHash,
		Hash:     hash,
	}

	if err := l.sink.Append(rec); err != nil {
		return Record{}, kernelerr.Wrap(err, kernelerr.AllocationRefused, "commit: sink rejected record")
	}

	l.nextSeq = seq + 1
	l.prevHash = hash
	return rec, nil
}

// VerifyChain re-derives each record's hash from its declared prev_hash
// and payload, returning an error on the first mismatch. Replay treats
// that error as a fatal kernel condition; internal/invariant's replay
// check reports it as a violation.
func VerifyChain(records []Record) error {
	var prev [32]byte
	for _, r := range records {
		body := encodeBody(r.Seq, r.Kind, r.EventID, r.BootID, r.Payload)
		want := sha256.Sum256(append(prev[:], body...))
		if r.PrevHash != prev {
			return kernelerr.New(kernelerr.BadArgument, "commit: record %d prev_hash mismatch", r.Seq)
		}
		if r.Hash != want {
			return kernelerr.New(kernelerr.BadArgument, "commit: record %d hash mismatch", r.Seq)
		}
		prev = r.Hash
	}
	return nil
}
