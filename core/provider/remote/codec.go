// Package remote implements the transport of a provider over gRPC. The
// messages are serialized with cramberry so that no code generation is
// required.
//
// The server exposes any provider, typically a local one, and the client
// implements the provider interface with a cache of the immutable parts of the
// chain and retries on transient transport failures.
package remote

import (
	"github.com/blockberries/cramberry/pkg/cramberry"
	"golang.org/x/xerrors"
	"google.golang.org/grpc/encoding"
)

const codecName = "cramberry"

// CramberryCodec is a gRPC codec serializing the messages with cramberry.
//
// - implements encoding.Codec
type CramberryCodec struct{}

// Marshal implements encoding.Codec.
func (CramberryCodec) Marshal(v interface{}) ([]byte, error) {
	data, err := cramberry.Marshal(v)
	if err != nil {
		return nil, xerrors.Errorf("cramberry marshal: %v", err)
	}

	return data, nil
}

// Unmarshal implements encoding.Codec.
func (CramberryCodec) Unmarshal(data []byte, v interface{}) error {
	err := cramberry.Unmarshal(data, v)
	if err != nil {
		return xerrors.Errorf("cramberry unmarshal: %v", err)
	}

	return nil
}

// Name implements encoding.Codec.
func (CramberryCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(CramberryCodec{})
}
