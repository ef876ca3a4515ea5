package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// OutboxSize is the number of undelivered messages kept. When the broker
// is unreachable for longer, the oldest are dropped.
const OutboxSize = 256

const publishTimeout = 5 * time.Second

// client is the part of paho.Client the publisher uses.
type client interface {
	IsConnected() bool
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Publish never blocks
// on the network: messages go to an outbox that a background goroutine
// delivers whenever the connection is up.
type RealPublisher struct {
	client client

	mu     sync.Mutex
	outbox *ringBuffer

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
}

func newPublisher() *RealPublisher {
	return &RealPublisher{
		outbox:  newRingBuffer(OutboxSize),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// NewRealPublisher creates a publisher connected to the given broker.
// The broker retains an OFFLINE system message as the last will.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := newPublisher()

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) {
			log.Printf("mqtt: connected to %s", broker)
			p.kick()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// The client keeps retrying; the outbox holds events until then.
		log.Printf("mqtt: %s not reachable yet, retrying in background", broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	p.start(c)
	return p, nil
}

func (p *RealPublisher) start(c client) {
	p.client = c
	go p.run()
	p.kick()
}

// Publish queues a clock event (QoS 0, not retained).
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	p.enqueue(outboxMsg{topic: Topic, payload: payload})
	return nil
}

// PublishSystem queues a system lifecycle event (QoS 1).
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	p.enqueue(outboxMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

// IsConnected reports whether the client is connected or reconnecting.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Pending returns the number of messages waiting for delivery.
func (p *RealPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.len()
}

// Close makes a last delivery attempt and disconnects from the broker.
func (p *RealPublisher) Close() error {
	close(p.done)
	<-p.stopped
	if n := p.Pending(); n > 0 {
		log.Printf("mqtt: %d messages undelivered at shutdown", n)
	}
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (p *RealPublisher) enqueue(m outboxMsg) {
	p.mu.Lock()
	p.outbox.push(m)
	p.mu.Unlock()
	p.kick()
}

func (p *RealPublisher) kick() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *RealPublisher) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.wake:
			p.flush()
		case <-p.done:
			p.flush()
			return
		}
	}
}

// flush delivers queued messages in order, stopping at the first failure.
func (p *RealPublisher) flush() {
	if !p.client.IsConnectionOpen() {
		return
	}

	p.mu.Lock()
	msgs := p.outbox.drainAll()
	p.mu.Unlock()

	for i, m := range msgs {
		if err := p.send(m); err != nil {
			log.Printf("mqtt: publish to %s: %v", m.topic, err)
			p.mu.Lock()
			p.outbox.requeue(msgs[i:])
			p.mu.Unlock()
			return
		}
	}
}

func (p *RealPublisher) send(m outboxMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
