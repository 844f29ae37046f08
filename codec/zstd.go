package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Zstd compresses the output of Inner with zstd. Decode refuses frames that
// would decompress beyond MaxDecoded bytes (0 => 64 MiB).
type Zstd[V any] struct {
	Inner      Codec[V]
	MaxDecoded uint64
}

const defaultMaxDecoded = 64 << 20

var (
	zstdEncOnce sync.Once
	zstdEnc     *zstd.Encoder
	zstdEncErr  error
)

// shared encoder; EncodeAll is safe for concurrent use.
func encoder() (*zstd.Encoder, error) {
	zstdEncOnce.Do(func() {
		zstdEnc, zstdEncErr = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	})
	return zstdEnc, zstdEncErr
}

func (c Zstd[V]) Encode(v V) ([]byte, error) {
	raw, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	enc, err := encoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func (c Zstd[V]) Decode(b []byte) (V, error) {
	var zero V
	limit := c.MaxDecoded
	if limit == 0 {
		limit = defaultMaxDecoded
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(limit))
	if err != nil {
		return zero, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(b, nil)
	if err != nil {
		return zero, fmt.Errorf("zstd decode: %w", err)
	}
	return c.Inner.Decode(raw)
}
