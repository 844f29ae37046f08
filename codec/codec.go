// Package codec serializes values to bytes for storage. The codecs in this
// package persist jsonvalue.Value in the tagged wire shape so every variant,
// dates included, survives a round trip. Limit and Zstd wrap any Codec.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
