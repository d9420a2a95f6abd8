// Package wire implements the deterministic, self-describing binary
// framing of spec §4.2: a record is fields sorted ascending by numeric id,
// each framed as u32-le field_id, u32-le length, then the raw value. A
// single generic Encode/Decode pair drives every record; each protocol
// record type (Identity, PreKeyBundle, Message, ...) supplies an explicit,
// non-reflective toFields/fromFields pair rather than annotation-driven
// reflection, per the "metadata-driven codec" design note in spec §9.
package wire
