package wire

import "bytes"

// Target holds the offsets (relative to the start of the request-target
// slice passed to ClassifyTarget) of the path and query components.
type Target struct {
	Form        TargetForm
	PathOffset  int
	PathLen     int
	QueryOffset int
	QueryLen    int
}

// ClassifyTarget classifies a request-target per RFC 9112 §3.2. Forms are
// tried in priority order {asterisk, origin, absolute, authority}; a
// target matching more than one shape is classified by whichever comes
// first in that order.
func ClassifyTarget(target []byte) (Target, error) {
	if len(target) == 0 {
		return Target{}, ErrMalformedTarget
	}

	if len(target) == 1 && target[0] == '*' {
		return Target{Form: TargetAsterisk}, nil
	}

	if target[0] == '/' {
		path := target[1:]
		t := Target{Form: TargetOrigin, PathOffset: 1}
		splitQuery(&t, path)
		return t, nil
	}

	if idx := bytes.Index(target, []byte("://")); idx != -1 {
		t := Target{Form: TargetAbsolute, PathOffset: 0}
		splitQuery(&t, target)
		return t, nil
	}

	for i, c := range target {
		if c == ':' && i+1 < len(target) && target[i+1] >= '0' && target[i+1] <= '9' {
			return Target{Form: TargetAuthority, PathOffset: 0, PathLen: len(target)}, nil
		}
	}

	return Target{}, ErrMalformedTarget
}

// splitQuery locates an optional '?' within region (relative offsets) and
// fills in t's path/query lengths, excluding the '?' from both.
func splitQuery(t *Target, region []byte) {
	if idx := bytes.IndexByte(region, '?'); idx != -1 {
		t.PathLen = idx
		t.QueryOffset = t.PathOffset + idx + 1
		t.QueryLen = len(region) - idx - 1
	} else {
		t.PathLen = len(region)
	}
}
