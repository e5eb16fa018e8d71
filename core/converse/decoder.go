package converse

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
)

const framePrefix = "data: "

// frameDecoder reassembles `data: {json}` lines from arbitrarily sliced
// network chunks. Chunk boundaries need not align with frame boundaries, so
// the trailing partial line is retained between Feed calls.
type frameDecoder struct {
	buf     []byte
	onFrame func(frame)

	parseFailures int
}

func newFrameDecoder(onFrame func(frame)) *frameDecoder {
	if onFrame == nil {
		onFrame = func(frame) {}
	}
	return &frameDecoder{onFrame: onFrame}
}

// Feed appends a network chunk and processes every complete line in the
// buffer. A malformed frame is logged and skipped; it never aborts the
// stream.
func (d *frameDecoder) Feed(chunk []byte) {
	d.buf = append(d.buf, chunk...)

	for {
		newline := bytes.IndexByte(d.buf, '\n')
		if newline < 0 {
			return
		}

		line := string(d.buf[:newline])
		d.buf = d.buf[newline+1:]
		d.processLine(line)
	}
}

// Flush processes whatever remains in the buffer as a final line. Streams
// are expected to terminate every frame with a newline, but a well-formed
// trailing frame without one is not discarded.
func (d *frameDecoder) Flush() {
	if len(d.buf) == 0 {
		return
	}

	line := string(d.buf)
	d.buf = nil
	d.processLine(line)
}

func (d *frameDecoder) processLine(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}

	payload, found := strings.CutPrefix(line, framePrefix)
	if !found {
		// Comment/heartbeat lines are allowed on the wire; nothing to do.
		return
	}

	var decoded frame
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		d.parseFailures++
		log.Printf("Skipping malformed stream frame: %v", err)
		return
	}

	d.onFrame(decoded)
}
