package mqtt

import "log"

// outboxMsg is a serialized MQTT message waiting for delivery.
type outboxMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO. When full, the oldest message is
// dropped to make room.
// Not safe for concurrent use; the caller must synchronize.
type ringBuffer struct {
	buf      []outboxMsg
	head     int // next write position
	count    int
	dropped  int
	overflow bool // a message was dropped since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]outboxMsg, capacity)}
}

func (r *ringBuffer) push(msg outboxMsg) {
	capacity := len(r.buf)
	if r.count == capacity {
		if !r.overflow {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", capacity)
			r.overflow = true
		}
		r.dropped++
		// head already points at the oldest entry
		r.buf[r.head] = msg
		r.head = (r.head + 1) % capacity
		return
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % capacity
	r.count++
}

// requeue puts undelivered messages back ahead of anything queued since
// they were drained, keeping the newest if they no longer all fit.
func (r *ringBuffer) requeue(msgs []outboxMsg) {
	newer := r.drainAll()
	for _, m := range msgs {
		r.push(m)
	}
	for _, m := range newer {
		r.push(m)
	}
}

func (r *ringBuffer) drainAll() []outboxMsg {
	if r.count == 0 {
		return nil
	}

	capacity := len(r.buf)
	result := make([]outboxMsg, r.count)
	start := (r.head - r.count + capacity) % capacity
	for i := range result {
		result[i] = r.buf[(start+i)%capacity]
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
