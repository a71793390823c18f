// Package session defines the connection record and the handoff message
// exchanged between the transport and application sides of a connection.
package session

import (
	"encoding/binary"

	"github.com/yourusername/httpcore/pkg/httpcore/wire"
)

// MessageType discriminates a handoff message as carrying a request or a
// reply.
type MessageType uint8

const (
	MessageRequest MessageType = iota
	MessageReply
)

// DataKind discriminates whether the bytes following a handoff message
// header are inlined in the queue or referenced by a single pointer word.
// Modeled as an explicit discriminant rather than overlapping fields. This
// implementation only ever constructs DataInline messages: the byte
// queues the handoff travels over are the only channel between transport
// and app in this process, so there is no out-of-band vector for a
// pointer variant to reference. The discriminant is still encoded on the
// wire so a future pointer-capable app-session layer can be recognized.
type DataKind uint8

const (
	DataInline DataKind = iota
	DataPointer
)

// HeaderSize is the fixed number of bytes a Handoff's encoded header
// occupies at the start of every transport<->app queue exchange.
const HeaderSize = 28

// Handoff is the fixed-layout record prepended to every transport⇄app
// byte-queue exchange, conveying parsed HTTP metadata. It is the actual
// wire protocol dequeued/enqueued atomically across AppRx/AppTx: path,
// query, app-header-line, and body bytes follow the encoded header in
// that order, lengths exactly as recorded in the header fields.
type Handoff struct {
	Type     MessageType
	DataType DataKind

	// Request fields.
	Method     wire.Method
	TargetForm wire.TargetForm

	// Reply fields. Code is the bucketed canonical code delivered to the
	// app; RawReplyCode preserves the literal numeric status code the wire
	// carried, per §8 scenario 7 ("the numeric code is preserved verbatim
	// if the implementation exposes it").
	Code        wire.StatusCode
	RawReplyCode int

	// Shared: lengths of the three inlined byte regions following the
	// header (path+query for requests only) and the body.
	PathLen    int
	QueryLen   int
	HeadersLen int
	BodyLen    int64
}

// PathOffset and QueryOffset report the inlined byte region's offsets
// relative to the start of the payload (immediately after the encoded
// header), matching §6's "offsets relative to the start of the inlined
// byte region" framing. They are computable from the fixed layout rather
// than stored redundantly.
func (h Handoff) PathOffset() int  { return 0 }
func (h Handoff) QueryOffset() int { return h.PathLen }

// TotalLen is HeaderSize plus every inlined region's length: the full
// number of bytes a complete handoff message occupies in the queue.
func (h Handoff) TotalLen() int {
	return HeaderSize + h.PathLen + h.QueryLen + h.HeadersLen + int(h.BodyLen)
}

// PathBytes, QueryBytes, HeaderLineBytes, and BodyBytes slice the inlined
// regions out of full, the complete handoff message buffer (header plus
// payload) as returned by a queue Peek.
func (h Handoff) PathBytes(full []byte) []byte {
	return full[HeaderSize : HeaderSize+h.PathLen]
}

func (h Handoff) QueryBytes(full []byte) []byte {
	start := HeaderSize + h.PathLen
	return full[start : start+h.QueryLen]
}

func (h Handoff) HeaderLineBytes(full []byte) []byte {
	start := HeaderSize + h.PathLen + h.QueryLen
	return full[start : start+h.HeadersLen]
}

func (h Handoff) BodyBytes(full []byte) []byte {
	start := HeaderSize + h.PathLen + h.QueryLen + h.HeadersLen
	return full[start : start+int(h.BodyLen)]
}

// encodeHeader packs h's fixed fields into a HeaderSize-byte big-endian
// record.
func encodeHeader(h Handoff) []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = byte(h.Type)
	buf[1] = byte(h.DataType)
	buf[2] = byte(h.Method)
	buf[3] = byte(h.TargetForm)
	binary.BigEndian.PutUint16(buf[4:6], uint16(h.Code))
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.RawReplyCode))
	binary.BigEndian.PutUint32(buf[8:12], uint32(h.PathLen))
	binary.BigEndian.PutUint32(buf[12:16], uint32(h.QueryLen))
	binary.BigEndian.PutUint32(buf[16:20], uint32(h.HeadersLen))
	binary.BigEndian.PutUint64(buf[20:28], uint64(h.BodyLen))
	return buf
}

// DecodeHandoff parses the fixed header at the start of buf. ok is false
// when buf does not yet contain a complete header-plus-payload (the
// caller should wait for more bytes, mirroring wire.ErrNeedMoreData's
// role on the HTTP framing side), never on a framing error: every byte
// pattern decodes to *some* Handoff, since the producer is always this
// module's own Encode functions, not untrusted wire input.
func DecodeHandoff(buf []byte) (Handoff, bool) {
	if len(buf) < HeaderSize {
		return Handoff{}, false
	}
	h := Handoff{
		Type:         MessageType(buf[0]),
		DataType:     DataKind(buf[1]),
		Method:       wire.Method(buf[2]),
		TargetForm:   wire.TargetForm(buf[3]),
		Code:         wire.StatusCode(binary.BigEndian.Uint16(buf[4:6])),
		RawReplyCode: int(binary.BigEndian.Uint16(buf[6:8])),
		PathLen:      int(binary.BigEndian.Uint32(buf[8:12])),
		QueryLen:     int(binary.BigEndian.Uint32(buf[12:16])),
		HeadersLen:   int(binary.BigEndian.Uint32(buf[16:20])),
		BodyLen:      int64(binary.BigEndian.Uint64(buf[20:28])),
	}
	if len(buf) < h.TotalLen() {
		return Handoff{}, false
	}
	return h, true
}

// EncodeRequest builds the full handoff message (header plus path, query,
// app header-line, and body bytes) a client application writes into its
// app tx queue for the state machine to format onto the wire in
// WAIT_APP_METHOD. headerLines is the app's own header lines, each
// already CRLF-terminated, excluding the blank-line terminator and
// excluding Host/User-Agent/Content-Length, which the state machine
// synthesizes.
func EncodeRequest(method wire.Method, form wire.TargetForm, path, query, headerLines, body []byte) []byte {
	h := Handoff{
		Type:       MessageRequest,
		DataType:   DataInline,
		Method:     method,
		TargetForm: form,
		PathLen:    len(path),
		QueryLen:   len(query),
		HeadersLen: len(headerLines),
		BodyLen:    int64(len(body)),
	}
	out := make([]byte, 0, h.TotalLen())
	out = append(out, encodeHeader(h)...)
	out = append(out, path...)
	out = append(out, query...)
	out = append(out, headerLines...)
	out = append(out, body...)
	return out
}

// EncodeReply builds the full handoff message (header plus app
// header-line and body bytes) a server application writes into its app
// tx queue for the state machine to format onto the wire in
// WAIT_APP_REPLY. headerLines excludes Date/Server/Content-Length, which
// the state machine synthesizes.
func EncodeReply(code wire.StatusCode, headerLines, body []byte) []byte {
	h := Handoff{
		Type:         MessageReply,
		DataType:     DataInline,
		Code:         code,
		RawReplyCode: int(code),
		HeadersLen:   len(headerLines),
		BodyLen:      int64(len(body)),
	}
	out := make([]byte, 0, h.TotalLen())
	out = append(out, encodeHeader(h)...)
	out = append(out, headerLines...)
	out = append(out, body...)
	return out
}

// EncodeParsedRequest builds the handoff message the server forwards into
// its app rx queue after parsing a request off the wire (WAIT_CLIENT_
// METHOD), reusing the request's own control-data and body bytes out of
// raw (the buffer ParseRequest parsed) rather than copying through an
// intermediate representation.
func EncodeParsedRequest(req *wire.ParsedRequest, raw []byte) []byte {
	var path, query []byte
	if req.Target.Form != wire.TargetAsterisk {
		path = raw[req.Target.PathOffset : req.Target.PathOffset+req.Target.PathLen]
	}
	if req.Target.QueryLen > 0 {
		query = raw[req.Target.QueryOffset : req.Target.QueryOffset+req.Target.QueryLen]
	}
	headerLines := raw[req.HeadersOffset : req.HeadersOffset+req.HeadersLen]
	body := raw[req.BodyOffset : int64(req.BodyOffset)+req.BodyLen]
	return EncodeRequest(req.Method, req.Target.Form, path, query, headerLines, body)
}

// EncodeParsedRequestHeader builds only the handoff header plus path,
// query, and app header-line bytes for a request parsed off the wire —
// not the body — for the streaming case where not all body bytes have
// arrived yet. h.BodyLen in the returned header still records the full
// declared body length; the remaining body bytes are pumped directly
// into the app rx queue afterwards with no further framing.
func EncodeParsedRequestHeader(req *wire.ParsedRequest, raw []byte) []byte {
	var path, query []byte
	if req.Target.Form != wire.TargetAsterisk {
		path = raw[req.Target.PathOffset : req.Target.PathOffset+req.Target.PathLen]
	}
	if req.Target.QueryLen > 0 {
		query = raw[req.Target.QueryOffset : req.Target.QueryOffset+req.Target.QueryLen]
	}
	headerLines := raw[req.HeadersOffset : req.HeadersOffset+req.HeadersLen]
	h := Handoff{
		Type:       MessageRequest,
		DataType:   DataInline,
		Method:     req.Method,
		TargetForm: req.Target.Form,
		PathLen:    len(path),
		QueryLen:   len(query),
		HeadersLen: len(headerLines),
		BodyLen:    req.BodyLen,
	}
	out := make([]byte, 0, HeaderSize+h.PathLen+h.QueryLen+h.HeadersLen)
	out = append(out, encodeHeader(h)...)
	out = append(out, path...)
	out = append(out, query...)
	out = append(out, headerLines...)
	return out
}

// EncodeParsedReplyHeader is EncodeParsedRequestHeader's reply-path
// analog: the handoff header plus app header-line bytes only, omitting
// the body for the streaming case.
func EncodeParsedReplyHeader(reply *wire.ParsedReply, raw []byte) []byte {
	headerLines := raw[reply.HeadersOffset : reply.HeadersOffset+reply.HeadersLen]
	h := Handoff{
		Type:         MessageReply,
		DataType:     DataInline,
		Code:         wire.BucketCanonical(reply.StatusCode),
		RawReplyCode: int(reply.StatusCode),
		HeadersLen:   len(headerLines),
		BodyLen:      reply.BodyLen,
	}
	out := make([]byte, 0, HeaderSize+h.HeadersLen)
	out = append(out, encodeHeader(h)...)
	out = append(out, headerLines...)
	return out
}

// EncodeParsedReply builds the handoff message the client forwards into
// its app rx queue after parsing a reply off the wire (WAIT_SERVER_
// REPLY). The delivered Code is bucketed to its canonical enum per §4.4's
// status-code table while RawReplyCode preserves the literal numeric code.
func EncodeParsedReply(reply *wire.ParsedReply, raw []byte) []byte {
	headerLines := raw[reply.HeadersOffset : reply.HeadersOffset+reply.HeadersLen]
	body := raw[reply.BodyOffset : int64(reply.BodyOffset)+reply.BodyLen]
	h := Handoff{
		Type:         MessageReply,
		DataType:     DataInline,
		Code:         wire.BucketCanonical(reply.StatusCode),
		RawReplyCode: int(reply.StatusCode),
		HeadersLen:   len(headerLines),
		BodyLen:      int64(len(body)),
	}
	out := make([]byte, 0, h.TotalLen())
	out = append(out, encodeHeader(h)...)
	out = append(out, headerLines...)
	out = append(out, body...)
	return out
}
