package grpc

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// gobCodecName is the content-subtype a client must select (via
// grpc.CallContentSubtype) to reach a service registered through
// gobCodec rather than a real protoc-generated one. It is never the
// default "proto" codec, so health checking and reflection — both driven by
// real generated protobuf messages — are unaffected.
const gobCodecName = "mfa-gob"

// gobCodec marshals gRPC messages with encoding/gob instead of protobuf. It
// exists because AnalysisServiceServer's request/response types are plain
// Go structs, not output of a protoc-gen-go pipeline: this repo has no .proto
// sources to compile one from. gob only encodes exported fields, so any
// unexported state on a carried domain value is silently dropped rather than
// transmitted — acceptable for the in-process and same-binary callers this
// codec currently serves.
type gobCodec struct{}

func (gobCodec) Name() string { return gobCodecName }

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func init() {
	encoding.RegisterCodec(gobCodec{})
}
