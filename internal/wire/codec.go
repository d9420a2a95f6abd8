package wire

import (
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"duskwire/internal/errs"
)

// versionFieldID is the Base record's reserved version field (spec §4.2).
const versionFieldID = 0

// protocolVersion is the version this codec emits in field 0. Decoding does
// not check field 0.
const protocolVersion = 1

// Field is one (id, value) pair of a record.
type Field struct {
	ID    uint32
	Value []byte
}

// Fields is an ordered collection of Field, typically produced by Decode or
// by a record type's toFields method.
type Fields []Field

// Encode serializes fields in ascending-id order, regardless of the order
// they were supplied in, so re-encoding a decoded record always reproduces
// the canonical byte form (spec's round-trip property).
func Encode(fields Fields) []byte {
	sorted := make(Fields, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	size := 0
	for _, f := range sorted {
		size += 8 + len(f.Value)
	}
	out := make([]byte, size)
	off := 0
	for _, f := range sorted {
		binary.LittleEndian.PutUint32(out[off:], f.ID)
		binary.LittleEndian.PutUint32(out[off+4:], uint32(len(f.Value)))
		copy(out[off+8:], f.Value)
		off += 8 + len(f.Value)
	}
	return out
}

// Decode parses a framed byte string into its constituent fields. Unknown
// field ids are retained (callers skip the ones they don't recognize);
// decode itself only rejects truncated framing.
func Decode(b []byte) (Fields, error) {
	var out Fields
	off := 0
	for off < len(b) {
		if off+8 > len(b) {
			return nil, fmt.Errorf("wire: truncated field header: %w", errs.ErrMalformedMessage)
		}
		id := binary.LittleEndian.Uint32(b[off:])
		length := binary.LittleEndian.Uint32(b[off+4:])
		off += 8
		if uint64(off)+uint64(length) > uint64(len(b)) {
			return nil, fmt.Errorf("wire: field %d length exceeds buffer: %w", id, errs.ErrMalformedMessage)
		}
		value := make([]byte, length)
		copy(value, b[off:off+int(length)])
		out = append(out, Field{ID: id, Value: value})
		off += int(length)
	}
	return out, nil
}

// Get returns the first field with the given id.
func (fs Fields) Get(id uint32) (Field, bool) {
	for _, f := range fs {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// --- field constructors ---

func FieldUint32(id uint32, v uint32) Field {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return Field{ID: id, Value: b}
}

func FieldBytes(id uint32, v []byte) Field { return Field{ID: id, Value: v} }

func FieldString(id uint32, v string) Field { return Field{ID: id, Value: []byte(v)} }

func FieldDate(id uint32, t time.Time) Field {
	return Field{ID: id, Value: []byte(t.UTC().Format(time.RFC3339Nano))}
}

func FieldPub32(id uint32, v [32]byte) Field { return Field{ID: id, Value: v[:]} }

func versionField() Field { return FieldUint32(versionFieldID, protocolVersion) }

// --- field accessors ---

func (fs Fields) RequireUint32(id uint32) (uint32, error) {
	f, ok := fs.Get(id)
	if !ok {
		return 0, fmt.Errorf("wire: missing required uint32 field %d: %w", id, errs.ErrMalformedMessage)
	}
	if len(f.Value) != 4 {
		return 0, fmt.Errorf("wire: field %d has bad uint32 length %d: %w", id, len(f.Value), errs.ErrMalformedMessage)
	}
	return binary.LittleEndian.Uint32(f.Value), nil
}

func (fs Fields) OptionalUint32(id uint32, def uint32) (uint32, bool, error) {
	f, ok := fs.Get(id)
	if !ok {
		return def, false, nil
	}
	if len(f.Value) != 4 {
		return 0, false, fmt.Errorf("wire: field %d has bad uint32 length %d: %w", id, len(f.Value), errs.ErrMalformedMessage)
	}
	return binary.LittleEndian.Uint32(f.Value), true, nil
}

func (fs Fields) RequireBytes(id uint32) ([]byte, error) {
	f, ok := fs.Get(id)
	if !ok {
		return nil, fmt.Errorf("wire: missing required bytes field %d: %w", id, errs.ErrMalformedMessage)
	}
	return f.Value, nil
}

func (fs Fields) OptionalBytes(id uint32) []byte {
	f, ok := fs.Get(id)
	if !ok {
		return nil
	}
	return f.Value
}

func (fs Fields) RequirePub32(id uint32) ([32]byte, error) {
	var out [32]byte
	b, err := fs.RequireBytes(id)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("wire: field %d has bad public-key length %d: %w", id, len(b), errs.ErrMalformedMessage)
	}
	copy(out[:], b)
	return out, nil
}

func (fs Fields) RequireDate(id uint32) (time.Time, error) {
	b, err := fs.RequireBytes(id)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(b))
	if err != nil {
		return time.Time{}, fmt.Errorf("wire: field %d has bad date %q: %w", id, string(b), errs.ErrMalformedMessage)
	}
	return t, nil
}
