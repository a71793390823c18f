package wire

import "bytes"

// ParsedRequest is the result of parsing a request-line, header section,
// and Content-Length out of a byte buffer. All offsets are absolute into
// the buffer that was parsed.
type ParsedRequest struct {
	Method         Method
	Target         Target
	ControlDataLen int
	HeadersOffset  int
	HeadersLen     int
	BodyOffset     int
	BodyLen        int64
}

// ParsedReply is the response-path analog of ParsedRequest.
type ParsedReply struct {
	StatusCode     StatusCode
	ControlDataLen int
	HeadersOffset  int
	HeadersLen     int
	BodyOffset     int
	BodyLen        int64
}

// ParseRequest parses a request-line, header section, and Content-Length
// out of buf. buf must contain at least one full request-line plus the
// terminating blank-line CRLF; ErrNeedMoreData signals the caller to wait
// for more rx bytes rather than treating the gap as a framing failure.
func ParseRequest(buf []byte) (*ParsedRequest, error) {
	if len(buf) < 8 {
		return nil, ErrNeedMoreData
	}

	line := buf
	// RFC 9112 §2.2: tolerate exactly one leading empty CRLF before the
	// method line.
	leadingCRLF := 0
	if bytes.HasPrefix(line, crlf) {
		leadingCRLF = 2
		line = line[2:]
	}

	lineEnd := bytes.Index(line, crlf)
	if lineEnd == -1 {
		return nil, ErrNeedMoreData
	}
	if bytes.Index(buf[leadingCRLF+lineEnd+2:], crlf) == -1 {
		// No further CRLF anywhere after the request-line: at minimum the
		// blank line terminating headers is missing.
		return nil, ErrNeedMoreData
	}

	controlDataLen := leadingCRLF + lineEnd + 2

	method, methodLen, err := ParseMethod(line)
	if err != nil {
		return nil, err
	}

	rest := line[methodLen:]
	httpIdx := bytes.Index(rest[:lineEnd-methodLen], httpSlash)
	if httpIdx == -1 {
		return nil, ErrMalformedRequestLine
	}
	// Validated implicitly by requiring the version digit immediately
	// follow " HTTP/" within the line.
	versionPos := httpIdx + len(httpSlash)
	if versionPos >= len(rest) {
		return nil, ErrMalformedRequestLine
	}
	major := rest[versionPos]
	if major < '0' || major > '9' {
		return nil, ErrMalformedRequestLine
	}
	if major != '1' {
		return nil, ErrVersionNotSupported
	}

	targetBytes := rest[:httpIdx]
	if len(targetBytes) < 1 {
		return nil, ErrMalformedRequestLine
	}
	target, err := ClassifyTarget(targetBytes)
	if err != nil {
		return nil, err
	}
	// ClassifyTarget returns offsets relative to targetBytes; rebase them
	// to be absolute into buf.
	targetBase := leadingCRLF + methodLen
	if target.Form != TargetAsterisk {
		target.PathOffset += targetBase
	}
	if target.QueryLen > 0 {
		target.QueryOffset += targetBase
	}

	req := &ParsedRequest{
		Method:         method,
		Target:         target,
		ControlDataLen: controlDataLen,
	}

	if err := parseHeadersAndLength(buf, &req.ControlDataLen, &req.HeadersOffset, &req.HeadersLen, &req.BodyOffset, &req.BodyLen); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseReply parses a status-line, header section, and Content-Length for
// the client rx path. Any deviation from the required shape is a parse
// failure with no response possible; the caller closes the connection.
func ParseReply(buf []byte) (*ParsedReply, error) {
	if len(buf) < 12 {
		return nil, ErrNeedMoreData
	}
	if bytes.Index(buf, crlfcrlf) == -1 && bytes.Index(buf, crlf) == -1 {
		return nil, ErrNeedMoreData
	}

	if !bytes.HasPrefix(buf, []byte("HTTP/1.")) {
		return nil, ErrMalformedStatusLine
	}
	if buf[7] < '0' || buf[7] > '9' {
		return nil, ErrMalformedStatusLine
	}
	pos := 8
	if pos >= len(buf) || buf[pos] != ' ' {
		return nil, ErrMalformedStatusLine
	}
	for pos < len(buf) && buf[pos] == ' ' {
		pos++
	}
	if pos+3 > len(buf) {
		return nil, ErrNeedMoreData
	}
	digits := buf[pos : pos+3]
	code := 0
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, ErrMalformedStatusLine
		}
		code = code*10 + int(c-'0')
	}
	if code < 100 || code > 599 {
		return nil, ErrMalformedStatusLine
	}
	pos += 3

	lineEnd := bytes.Index(buf[pos:], crlf)
	if lineEnd == -1 {
		return nil, ErrNeedMoreData
	}
	controlDataLen := pos + lineEnd + 2

	reply := &ParsedReply{
		StatusCode:     StatusCode(code),
		ControlDataLen: controlDataLen,
	}
	if err := parseHeadersAndLength(buf, &reply.ControlDataLen, &reply.HeadersOffset, &reply.HeadersLen, &reply.BodyOffset, &reply.BodyLen); err != nil {
		return nil, err
	}
	return reply, nil
}

// parseHeadersAndLength locates the header section following the
// request/status line (whose length is *controlDataLen on entry) and
// extracts Content-Length, updating controlDataLen, bodyOffset and bodyLen;
// headersOffset and headersLen are set only when a header section is
// present.
func parseHeadersAndLength(buf []byte, controlDataLen, headersOffset, headersLen *int, bodyOffset *int, bodyLen *int64) error {
	start := *controlDataLen

	if start+2 > len(buf) {
		return ErrNeedMoreData
	}

	if bytes.HasPrefix(buf[start:], crlf) {
		// No headers.
		*controlDataLen += 2
		*bodyLen = 0
		*bodyOffset = *controlDataLen
		return nil
	}

	blankIdx := bytes.Index(buf[start:], crlfcrlf)
	if blankIdx == -1 {
		return ErrNeedMoreData
	}

	*headersOffset = start
	*headersLen = blankIdx + 2
	*controlDataLen = start + *headersLen + 2
	*bodyOffset = *controlDataLen

	headers := buf[*headersOffset : *headersOffset+*headersLen]
	length, found, err := extractContentLength(headers)
	if err != nil {
		return err
	}
	if !found {
		*bodyLen = 0
		return nil
	}
	*bodyLen = length
	return nil
}

// extractContentLength does a case-sensitive scan for "Content-Length:"
// within the headers window (case sensitivity is a deliberate choice,
// documented in DESIGN.md, not an oversight) and decimal-accumulates the
// value with overflow detection.
func extractContentLength(headers []byte) (int64, bool, error) {
	idx := bytes.Index(headers, headerContentLength)
	if idx == -1 {
		return 0, false, nil
	}
	// A match must start a header line: either the start of the section or
	// immediately after a CRLF, to avoid matching inside a header value.
	if idx != 0 && !bytes.HasSuffix(headers[:idx], crlf) {
		return 0, false, nil
	}

	rest := headers[idx+len(headerContentLength):]
	lineEnd := bytes.Index(rest, crlf)
	if lineEnd == -1 {
		lineEnd = len(rest)
	}
	line := rest[:lineEnd]

	line = trimSpaceTab(line)

	if len(line) == 0 {
		return 0, false, ErrMalformedContentLength
	}

	var value uint64
	for _, c := range line {
		if c < '0' || c > '9' {
			return 0, false, ErrMalformedContentLength
		}
		d := uint64(c - '0')
		if value > (^uint64(0)-d)/10 {
			return 0, false, ErrContentLengthOverflow
		}
		value = value*10 + d
	}
	if value > 1<<63-1 {
		return 0, false, ErrContentLengthOverflow
	}
	return int64(value), true, nil
}

func trimSpaceTab(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
