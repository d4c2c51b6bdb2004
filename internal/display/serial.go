package display

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"

	"go.bug.st/serial"
)

// DefaultBaud is the factory rate of common LCD backpacks.
const DefaultBaud = 9600

// Backpack command bytes (HD44780 pass-through after a 0xFE prefix).
const (
	cmdPrefix   = 0xFE
	cmdClear    = 0x01
	cmdSetDDRAM = 0x80
)

var rowOffsets = [Rows]byte{0x00, 0x40}

// Serial drives an HD44780 LCD through a serial backpack.
// Write failures never reach the controller: the first one is logged and
// later ones are counted until a write succeeds again.
type Serial struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	col, row int
	failures int
	lastErr  error
}

// OpenSerial opens the backpack on a serial device and clears it.
func OpenSerial(name string, baud int) (*Serial, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open lcd %s: %w", name, err)
	}
	log.Printf("display: lcd on %s at %d baud", name, baud)
	s := newSerial(p, p)
	s.Clear()
	return s, nil
}

func newSerial(w io.Writer, c io.Closer) *Serial {
	return &Serial{w: w, closer: c}
}

// Clear blanks the panel and homes the cursor.
func (s *Serial) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.col, s.row = 0, 0
	s.write([]byte{cmdPrefix, cmdClear})
}

// SetCursor moves the cursor, clamped to the panel.
func (s *Serial) SetCursor(col, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.col = clamp(col, 0, Cols)
	s.row = clamp(row, 0, Rows-1)
	if s.col >= Cols {
		return
	}
	s.write([]byte{cmdPrefix, cmdSetDDRAM | (rowOffsets[s.row] + byte(s.col))})
}

// Print writes text at the cursor. Text past the last column is dropped so
// it never spills into the other row's DDRAM.
func (s *Serial) Print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := Cols - s.col
	if n <= 0 {
		return
	}
	if len(text) < n {
		n = len(text)
	}
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = printable(text[i])
	}
	s.col += n
	s.write(buf)
}

// PrintInt writes n in decimal.
func (s *Serial) PrintInt(n int) {
	s.Print(strconv.Itoa(n))
}

// Err returns the most recent write error, or nil once writes succeed again.
func (s *Serial) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close releases the serial port.
func (s *Serial) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *Serial) write(b []byte) {
	if _, err := s.w.Write(b); err != nil {
		if s.failures == 0 {
			log.Printf("display: lcd write failed: %v", err)
		}
		s.failures++
		s.lastErr = err
		return
	}
	if s.failures > 0 {
		log.Printf("display: lcd recovered after %d failed writes", s.failures)
		s.failures = 0
		s.lastErr = nil
	}
}
