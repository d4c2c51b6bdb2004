package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultClientID identifies the controller to the broker.
const DefaultClientID = "launch-controller"

// bufferCapacity is the number of messages held while disconnected.
const bufferCapacity = 100

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the broker is unreachable are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	topic  string

	mu            sync.Mutex
	buffer        *ringBuffer
	connectedOnce bool
}

// NewRealPublisher creates a publisher for the given broker. The broker does
// not have to be reachable yet; paho keeps retrying in the background.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	if clientID == "" {
		clientID = DefaultClientID
	}
	p := &RealPublisher{
		topic:  Topic,
		buffer: newRingBuffer(bufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(WillPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("mqtt: broker %s not reachable yet, buffering until connected", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// onConnect replays buffered messages and announces reconnections.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buffer.drainAll()
	reconnect := p.connectedOnce
	p.connectedOnce = true
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected, replaying %d buffered messages", len(pending))
	} else {
		log.Printf("mqtt: connected")
	}

	// Runs on paho's callback goroutine; waiting here would stall the client.
	go func() {
		for _, m := range pending {
			token := c.Publish(m.topic, m.qos, m.retained, m.payload)
			if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
				log.Printf("mqtt: replay to %s failed", m.topic)
			}
		}
		if reconnect {
			payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
			c.Publish(TopicSystem, 1, false, payload)
		}
	}()
}

// Publish sends a state transition to the MQTT broker.
func (p *RealPublisher) Publish(t Transition) error {
	payload, err := FormatPayload(t)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1: every transition matters to a launch log
	if err := p.send(bufferedMsg{topic: p.topic, payload: payload, qos: 1}); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	msg := bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}
	if err := p.send(msg); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

func (p *RealPublisher) send(m bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buffer.push(m)
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.mu.Lock()
		p.buffer.push(m)
		p.mu.Unlock()
		return fmt.Errorf("timeout, buffered")
	}
	return token.Error()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
