// Package codec owns the wire schema for saved history.
//
// The schema has three layers:
//
//   - Record: the JSON shape of one command in a history file. The "type"
//     tag is a Kind constant owned by this package, deliberately decoupled
//     from any Go type name so renaming an implementation type cannot break
//     saved history.
//
//   - Binary payload: an explicit, versioned, little-endian encoding of a
//     command's typed payload. This is what gets byte-compressed, so the
//     compressed form is stable across releases and runtimes.
//
//   - Pack/Unpack: generic zlib byte compression of an encoded payload.
//
// A compressed record carries hex-encoded Pack(Encode*(payload)) in
// "compressed_data"; an uncompressed record carries the typed payload as
// JSON in "data".
package codec
