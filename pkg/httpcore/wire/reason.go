package wire

// reasonPhrases supplies the standard reason phrase for a synthesized
// status-line.
var reasonPhrases = map[StatusCode]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	409: "Conflict",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// ReasonPhrase returns the standard reason phrase for code, falling back to
// the bucket canonical's phrase for unrecognized codes.
func ReasonPhrase(code StatusCode) string {
	if phrase, ok := reasonPhrases[code]; ok {
		return phrase
	}
	return reasonPhrases[BucketCanonical(code)]
}

// bucketTable is a precomputed length-600 lookup: known codes map to
// themselves, unknown codes collapse to their hundreds-bucket canonical
// (100, 200, 300, 400, 500).
var bucketTable [600]StatusCode

func init() {
	for code := 100; code < 600; code++ {
		bucketTable[code] = StatusCode((code / 100) * 100)
	}
	for _, code := range registeredCodes {
		bucketTable[int(code)] = code
	}
}

// BucketCanonical collapses any code in [100,599] not on the registered
// list to the canonical code of its hundreds bucket. Codes outside
// [100,599] are not valid status-line codes and return
// StatusInternalServerError.
func BucketCanonical(code StatusCode) StatusCode {
	if code < 100 || code > 599 {
		return StatusInternalServerError
	}
	return bucketTable[code]
}
