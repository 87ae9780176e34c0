// Package value contains the self-describing binary value format used for
// statement parameters and result documents.
//
// Values are protobuf-encoded google.protobuf.Value messages, so every blob
// carries its own type (null, bool, number, string, list or struct).
package value

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
)

// Codec turns Go values into binary blobs and back.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
}

// Raw is an already encoded value. Codecs pass it through untouched.
type Raw []byte

// Proto is the default Codec.
var Proto Codec = protoCodec{}

var _ Codec = protoCodec{}

type protoCodec struct{}

func (protoCodec) Encode(v any) ([]byte, error) {
	var (
		pv  *structpb.Value
		err error
	)
	switch vv := v.(type) {
	case Raw:
		return append([]byte(nil), vv...), nil
	case *structpb.Value:
		pv = vv
	case fmt.Stringer:
		pv = structpb.NewStringValue(vv.String())
	default:
		pv, err = structpb.NewValue(v)
		if err != nil {
			return nil, xerrors.WithStackTrace(fmt.Errorf("encode %T: %w", v, err))
		}
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(pv)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return b, nil
}

func (protoCodec) Decode(b []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, xerrors.WithStackTrace(fmt.Errorf("decode value: %w", err))
	}

	return pv.AsInterface(), nil
}

// DecodeStruct decodes b and requires the value to be a struct.
func DecodeStruct(c Codec, b []byte) (map[string]any, error) {
	v, err := c.Decode(b)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, xerrors.WithStackTrace(fmt.Errorf("value is %T, not a struct", v))
	}

	return m, nil
}

// EncodeAll encodes every value in vs.
func EncodeAll(c Codec, vs ...any) ([][]byte, error) {
	if len(vs) == 0 {
		return nil, nil
	}
	out := make([][]byte, 0, len(vs))
	for i, v := range vs {
		b, err := c.Encode(v)
		if err != nil {
			return nil, xerrors.WithStackTrace(fmt.Errorf("parameter #%d: %w", i, err))
		}
		out = append(out, b)
	}

	return out, nil
}
