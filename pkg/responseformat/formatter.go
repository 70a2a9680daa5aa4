// Package responseformat encodes command results as JSON or MessagePack.
package responseformat

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Format names an output encoding
type Format string

const (
	Text    Format = "text"
	JSON    Format = "json"
	MsgPack Format = "msgpack"
)

// ParseFormat parses a --format value
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case Text, JSON, MsgPack:
		return f, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or msgpack)", s)
	}
}

// Formatter handles encoding results in JSON or MessagePack format
type Formatter struct {
	format Format
}

// NewFormatter creates a new formatter for format
func NewFormatter(format Format) *Formatter {
	return &Formatter{format: format}
}

// Structured reports whether the formatter encodes data itself. Text output
// is left to the caller.
func (f *Formatter) Structured() bool {
	return f.format == JSON || f.format == MsgPack
}

// Write encodes data to w
func (f *Formatter) Write(w io.Writer, data any) error {
	switch f.format {
	case MsgPack:
		return f.writeMsgPack(w, data)
	case JSON:
		return f.writeJSON(w, data)
	default:
		return fmt.Errorf("format %q is not structured", f.format)
	}
}

func (f *Formatter) writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *Formatter) writeMsgPack(w io.Writer, data any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}
