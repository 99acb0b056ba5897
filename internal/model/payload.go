package model

// RawTextKey is the sentinel key older artifacts and tools use to carry
// unparseable model text inside a JSON object.
const RawTextKey = "_raw_text"

// NoUsableOutput is the text carried by the sentinel payload used when every
// backend failed and no artifact could be recovered.
const NoUsableOutput = "No usable parsed output; all models returned empty or errors."

// PayloadKind tags the variant held by a Payload.
type PayloadKind int

const (
	// PayloadMissing means there is no model output at all.
	PayloadMissing PayloadKind = iota
	// PayloadParsed means the output decoded to a JSON object.
	PayloadParsed
	// PayloadRaw means the output could not be decoded to a JSON object.
	PayloadRaw
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadMissing:
		return "missing"
	case PayloadParsed:
		return "parsed"
	case PayloadRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Payload is the result of interpreting one model response.
type Payload struct {
	Kind   PayloadKind
	Fields map[string]any
	Text   string
}

// Parsed builds a PayloadParsed.
func Parsed(fields map[string]any) Payload {
	return Payload{Kind: PayloadParsed, Fields: fields}
}

// RawFallback builds a PayloadRaw carrying the unparsed text.
func RawFallback(text string) Payload {
	return Payload{Kind: PayloadRaw, Text: text}
}

// Missing builds a PayloadMissing with an optional explanation.
func Missing(reason string) Payload {
	return Payload{Kind: PayloadMissing, Text: reason}
}
