// Package display provides the 2x16 character panel display.
// Buffer mirrors the panel in memory for the status page, Serial drives a
// serial LCD backpack, and Tee fans writes out to several displays.
package display

import (
	"strconv"
	"strings"
	"sync"

	"github.com/sweeney/launch-controller/internal/logic"
)

// Panel geometry.
const (
	Rows = 2
	Cols = 16
)

// Buffer is an in-memory display. Text past the last column is dropped.
// Safe for concurrent use.
type Buffer struct {
	mu       sync.RWMutex
	cells    [Rows][Cols]byte
	col, row int
}

// NewBuffer creates a blank display.
func NewBuffer() *Buffer {
	b := &Buffer{}
	b.clear()
	return b
}

// Clear blanks the display and homes the cursor.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clear()
}

func (b *Buffer) clear() {
	for r := range b.cells {
		for c := range b.cells[r] {
			b.cells[r][c] = ' '
		}
	}
	b.col, b.row = 0, 0
}

// SetCursor moves the cursor, clamped to the panel.
func (b *Buffer) SetCursor(col, row int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.col = clamp(col, 0, Cols)
	b.row = clamp(row, 0, Rows-1)
}

// Print writes text at the cursor and advances it.
func (b *Buffer) Print(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < len(text); i++ {
		if b.col >= Cols {
			return
		}
		b.cells[b.row][b.col] = printable(text[i])
		b.col++
	}
}

// PrintInt writes n in decimal.
func (b *Buffer) PrintInt(n int) {
	b.Print(strconv.Itoa(n))
}

// Lines returns both rows with trailing blanks removed.
func (b *Buffer) Lines() [Rows]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out [Rows]string
	for r := range b.cells {
		out[r] = strings.TrimRight(string(b.cells[r][:]), " ")
	}
	return out
}

// Tee forwards every call to each display in order.
type Tee []logic.Display

func (t Tee) Clear() {
	for _, d := range t {
		d.Clear()
	}
}

func (t Tee) SetCursor(col, row int) {
	for _, d := range t {
		d.SetCursor(col, row)
	}
}

func (t Tee) Print(text string) {
	for _, d := range t {
		d.Print(text)
	}
}

func (t Tee) PrintInt(n int) {
	for _, d := range t {
		d.PrintInt(n)
	}
}

// printable maps anything outside 7-bit ASCII to '?'; the HD44780 ROM has
// no sensible glyphs there.
func printable(c byte) byte {
	if c < 0x20 || c > 0x7e {
		return '?'
	}
	return c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
