package mqtt

import (
	"log"

	ring "github.com/zfjagann/golang-ring"
)

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer holds messages while disconnected, dropping the oldest when full.
// Not safe for concurrent use; caller must synchronize.
type ringBuffer struct {
	r        ring.Ring
	overflow bool // true if any message was dropped since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	b := &ringBuffer{}
	b.r.SetCapacity(capacity)
	return b
}

func (b *ringBuffer) push(msg bufferedMsg) {
	if b.r.ContentSize() == b.r.Capacity() && !b.overflow {
		log.Printf("mqtt: buffer full (%d messages), dropping oldest", b.r.Capacity())
		b.overflow = true
	}
	b.r.Enqueue(msg)
}

// drainAll returns buffered messages oldest first and empties the buffer.
func (b *ringBuffer) drainAll() []bufferedMsg {
	if b.r.ContentSize() == 0 {
		return nil
	}

	var result []bufferedMsg
	for v := b.r.Dequeue(); v != nil; v = b.r.Dequeue() {
		result = append(result, v.(bufferedMsg))
	}
	b.overflow = false
	return result
}

func (b *ringBuffer) len() int {
	return b.r.ContentSize()
}
