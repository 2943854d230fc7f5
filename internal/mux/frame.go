package mux

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Remote control messages travel as DCS strings: ESC P @kitty-cmd <json> ESC \.
const (
	framePrefix = "\x1bP@kitty-cmd"
	frameSuffix = "\x1b\\"
)

// EncodeFrame wraps a JSON-serializable value in a remote control frame.
func EncodeFrame(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}
	var b bytes.Buffer
	b.Grow(len(framePrefix) + len(body) + len(frameSuffix))
	b.WriteString(framePrefix)
	b.Write(body)
	b.WriteString(frameSuffix)
	return b.Bytes(), nil
}

// FrameReader extracts frame bodies from a byte stream. Bytes outside of a
// frame are discarded.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next returns the body of the next frame. It returns io.EOF when the stream
// ends between frames and io.ErrUnexpectedEOF when it ends inside one.
func (f *FrameReader) Next() ([]byte, error) {
	if err := f.skipToPrefix(); err != nil {
		return nil, err
	}
	var body []byte
	for {
		chunk, err := f.r.ReadBytes('\x1b')
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		body = append(body, chunk[:len(chunk)-1]...)
		next, err := f.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		if next == '\\' {
			return body, nil
		}
		// JSON never carries a raw ESC; keep it anyway so the decoder reports it.
		body = append(body, '\x1b')
		_ = f.r.UnreadByte()
	}
}

func (f *FrameReader) skipToPrefix() error {
	for {
		if _, err := f.r.ReadBytes('\x1b'); err != nil {
			return err
		}
		rest := framePrefix[1:]
		peek, err := f.r.Peek(len(rest))
		if err != nil && len(peek) < len(rest) {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if string(peek) == rest {
			_, _ = f.r.Discard(len(rest))
			return nil
		}
	}
}

// DecodeResponse parses a frame body.
func DecodeResponse(body []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return Response{}, fmt.Errorf("decoding response: %w", err)
	}
	return r, nil
}
