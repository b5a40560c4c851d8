package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Documents are stored as zstd-compressed JSON. Encoder and decoder are
// shared; EncodeAll and DecodeAll are safe for concurrent use.
var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func initCodec() error {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return codecErr
}

func encodeDoc(v any) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, fmt.Errorf("failed to init codec: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func decodeDoc(raw []byte, v any) error {
	if err := initCodec(); err != nil {
		return fmt.Errorf("failed to init codec: %w", err)
	}
	data, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}
