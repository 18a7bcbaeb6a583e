package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrMalformedMessage wraps lines that are not valid JSON-RPC messages.
// The stream itself is still usable after it is returned.
var ErrMalformedMessage = errors.New("malformed message")

// Transport handles MCP communication over stdio
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex
}

// NewTransport creates a new stdio transport
func NewTransport(r io.Reader, w io.Writer) *Transport {
	return &Transport{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// ReadMessage reads the next JSON-RPC message, skipping blank lines.
// It returns io.EOF once the input is exhausted.
func (t *Transport) ReadMessage() (*Request, error) {
	for {
		line, err := t.reader.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err != nil {
				return nil, err
			}
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		var req Request
		if uerr := json.Unmarshal(line, &req); uerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, uerr)
		}
		return &req, nil
	}
}

// WriteResponse writes a JSON-RPC response to stdout
func (t *Transport) WriteResponse(resp *Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(t.writer, "%s\n", data)
	return err
}
