// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

var (
	codec        cbor.EncMode
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
)

func init() {
	var err error

	compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Errorf("could not initialize compressor: %w", err))
	}

	decompressor, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Errorf("could not initialize decompressor: %w", err))
	}

	codec, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("could not initialize codec: %w", err))
	}
}

// encodeKey concatenates a one-byte prefix with a variadic list of
// big-endian-encoded key parts.
func encodeKey(prefix byte, parts ...interface{}) []byte {
	buf := bytes.NewBuffer([]byte{prefix})
	for _, part := range parts {
		switch v := part.(type) {
		case uint64:
			_ = binary.Write(buf, binary.BigEndian, v)
		case uint32:
			_ = binary.Write(buf, binary.BigEndian, v)
		case []byte:
			buf.Write(v)
		default:
			panic(fmt.Sprintf("unsupported key part type %T", v))
		}
	}
	return buf.Bytes()
}

// encodeValue CBOR-encodes value in canonical mode, then zstd-compresses
// it.
func encodeValue(value interface{}) ([]byte, error) {
	val, err := codec.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("could not encode value: %w", err)
	}
	return compressor.EncodeAll(val, nil), nil
}

// decodeValue reverses encodeValue.
func decodeValue(raw []byte, value interface{}) error {
	val, err := decompressor.DecodeAll(raw, nil)
	if err != nil {
		return fmt.Errorf("could not decompress value: %w", err)
	}
	err = cbor.Unmarshal(val, value)
	if err != nil {
		return fmt.Errorf("could not decode value: %w", err)
	}
	return nil
}
