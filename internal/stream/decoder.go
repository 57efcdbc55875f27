// Package stream decodes the chat backend's event stream into text fragments.
package stream

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const replacementChar = "\ufffd"

// Decoder incrementally decodes UTF-8 bytes that may arrive split at
// arbitrary boundaries. Incomplete trailing sequences are carried over to
// the next Decode call instead of being decoded on their own. A byte order
// mark at the very start of the stream is dropped.
type Decoder struct {
	t     transform.Transformer
	carry []byte
	dst   []byte
}

// NewDecoder creates a Decoder with an empty carry buffer
func NewDecoder() *Decoder {
	return &Decoder{t: unicode.UTF8BOM.NewDecoder()}
}

// Decode returns the text decoded from chunk plus any bytes carried over
// from the previous call. Invalid sequences become U+FFFD.
func (d *Decoder) Decode(chunk []byte) string {
	return d.decode(chunk, false)
}

// Flush decodes whatever is left in the carry buffer as if the stream had
// ended. A dangling partial sequence becomes U+FFFD.
func (d *Decoder) Flush() string {
	s := d.decode(nil, true)
	d.t.Reset()
	return s
}

// Pending returns the number of bytes held back waiting for completion
func (d *Decoder) Pending() int {
	return len(d.carry)
}

func (d *Decoder) decode(chunk []byte, atEOF bool) string {
	src := make([]byte, 0, len(d.carry)+len(chunk))
	src = append(src, d.carry...)
	src = append(src, chunk...)
	d.carry = d.carry[:0]

	if len(src) == 0 {
		return ""
	}

	if len(d.dst) < len(src)+len(replacementChar) {
		d.dst = make([]byte, 2*len(src)+len(replacementChar))
	}

	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out.Write(d.dst[:nDst])
		src = src[nSrc:]

		switch err {
		case nil:
			return out.String()
		case transform.ErrShortDst:
			d.dst = make([]byte, 2*len(d.dst))
		case transform.ErrShortSrc:
			d.carry = append(d.carry, src...)
			return out.String()
		default:
			// The UTF-8 decoders only report the two short errors above.
			d.carry = append(d.carry, src...)
			return out.String()
		}
	}
}
