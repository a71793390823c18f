package session

import (
	"bytes"
	"testing"

	"github.com/yourusername/httpcore/pkg/httpcore/wire"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	msg := EncodeRequest(wire.MethodPOST, wire.TargetOrigin,
		[]byte("api/v1/x"), []byte("q=1"), []byte("X-Trace: abc\r\n"), []byte("hello"))

	h, ok := DecodeHandoff(msg)
	if !ok {
		t.Fatalf("DecodeHandoff: not ok, msg len %d", len(msg))
	}
	if h.Type != MessageRequest {
		t.Fatalf("Type = %v, want MessageRequest", h.Type)
	}
	if h.Method != wire.MethodPOST {
		t.Fatalf("Method = %v, want POST", h.Method)
	}
	if h.TargetForm != wire.TargetOrigin {
		t.Fatalf("TargetForm = %v, want Origin", h.TargetForm)
	}
	if string(h.PathBytes(msg)) != "api/v1/x" {
		t.Errorf("path = %q, want %q", h.PathBytes(msg), "api/v1/x")
	}
	if string(h.QueryBytes(msg)) != "q=1" {
		t.Errorf("query = %q, want %q", h.QueryBytes(msg), "q=1")
	}
	if string(h.HeaderLineBytes(msg)) != "X-Trace: abc\r\n" {
		t.Errorf("header lines = %q, want %q", h.HeaderLineBytes(msg), "X-Trace: abc\r\n")
	}
	if string(h.BodyBytes(msg)) != "hello" {
		t.Errorf("body = %q, want %q", h.BodyBytes(msg), "hello")
	}
	if h.TotalLen() != len(msg) {
		t.Errorf("TotalLen() = %d, want %d", h.TotalLen(), len(msg))
	}
}

func TestEncodeDecodeReplyRoundTrip(t *testing.T) {
	msg := EncodeReply(wire.StatusOK, nil, []byte("hi"))

	h, ok := DecodeHandoff(msg)
	if !ok {
		t.Fatalf("DecodeHandoff: not ok")
	}
	if h.Type != MessageReply {
		t.Fatalf("Type = %v, want MessageReply", h.Type)
	}
	if h.Code != wire.StatusOK {
		t.Fatalf("Code = %d, want 200", h.Code)
	}
	if string(h.BodyBytes(msg)) != "hi" {
		t.Errorf("body = %q, want %q", h.BodyBytes(msg), "hi")
	}
}

func TestDecodeHandoffNeedsMoreData(t *testing.T) {
	msg := EncodeRequest(wire.MethodGET, wire.TargetOrigin, []byte("a"), nil, nil, nil)
	if _, ok := DecodeHandoff(msg[:HeaderSize-1]); ok {
		t.Fatal("DecodeHandoff on a truncated header reported ok")
	}
	if _, ok := DecodeHandoff(msg[:len(msg)-1]); ok {
		t.Fatal("DecodeHandoff on a message missing its last payload byte reported ok")
	}
}

func TestEncodeParsedRequestHeaderExcludesBody(t *testing.T) {
	raw := []byte("POST /x?q=1 HTTP/1.1\r\nHost: example.com\r\nContent-Length: 11\r\n\r\nhello world")
	req, err := wire.ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}

	control := EncodeParsedRequestHeader(req, raw)
	if _, ok := DecodeHandoff(control); ok {
		t.Fatal("control-only handoff decoded as complete; body bytes were never appended")
	}

	// The header's declared BodyLen still reflects the full body, even
	// though only the control-data bytes were appended here; appending
	// the rest later (as streaming delivers it) makes it decodable.
	body := raw[req.BodyOffset : int64(req.BodyOffset)+req.BodyLen]
	full := append(append([]byte(nil), control...), body...)
	h, ok := DecodeHandoff(full)
	if !ok {
		t.Fatalf("DecodeHandoff after appending body: not ok")
	}
	if h.BodyLen != req.BodyLen {
		t.Errorf("BodyLen = %d, want %d", h.BodyLen, req.BodyLen)
	}
}

func TestEncodeParsedReplyHeaderBucketsCode(t *testing.T) {
	raw := []byte("HTTP/1.1 299 Weird\r\nX-A: 1\r\n\r\nbody-goes-here")
	reply, err := wire.ParseReply(raw)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}

	control := EncodeParsedReplyHeader(reply, raw)
	full := append(append([]byte(nil), control...), []byte("body-goes-here")...)
	h, ok := DecodeHandoff(full)
	if !ok {
		t.Fatalf("DecodeHandoff: not ok")
	}
	if h.Code != wire.StatusOK {
		t.Errorf("Code = %d, want bucketed 200", h.Code)
	}
	if h.RawReplyCode != 299 {
		t.Errorf("RawReplyCode = %d, want 299", h.RawReplyCode)
	}
	if !bytes.Contains(h.HeaderLineBytes(full), []byte("X-A: 1")) {
		t.Errorf("header lines = %q, missing X-A", h.HeaderLineBytes(full))
	}
}
