package stream

import "strings"

const (
	// DataPrefix marks a record that carries a payload
	DataPrefix = "data: "
	// DoneSentinel is the payload that marks the logical end of the reply.
	// It contributes no text and does not stop the read loop.
	DoneSentinel = "[DONE]"
)

// RecordKind classifies a single stream record
type RecordKind int

const (
	// RecordIgnored is any line without the data prefix
	RecordIgnored RecordKind = iota
	// RecordData carries a text fragment
	RecordData
	// RecordDone is the sentinel terminator
	RecordDone
)

// String returns a short name for logs
func (k RecordKind) String() string {
	switch k {
	case RecordData:
		return "data"
	case RecordDone:
		return "done"
	default:
		return "ignored"
	}
}

// Event is one decoded fragment of assistant output
type Event struct {
	// Seq is the 1-based position of the fragment in the stream
	Seq  int
	Text string
}

// ClassifyLine returns the kind of a record and, for data records, the
// payload verbatim.
func ClassifyLine(line string) (RecordKind, string) {
	if !strings.HasPrefix(line, DataPrefix) {
		return RecordIgnored, ""
	}
	payload := line[len(DataPrefix):]
	if payload == DoneSentinel {
		return RecordDone, ""
	}
	return RecordData, payload
}
