package publish

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/pebbe/zmq4"
)

// ZMQPublisher broadcasts batch payloads on an XPUB socket. XPUB surfaces
// subscription frames (0x01 subscribe, 0x00 unsubscribe) on the socket
// itself, which drives a live subscriber count without a side channel.
//
// ZMQ sockets are not goroutine safe, so a single goroutine owns the
// socket: it alternates between draining subscription frames and sending
// queued payloads. Publish never blocks; when the queue is full the
// payload is dropped, which matches the fire-and-forget publish contract.
type ZMQPublisher struct {
	out    chan []byte
	done   chan struct{}
	closed atomic.Bool
	subs   atomic.Int64
}

const pollInterval = 10 * time.Millisecond

func NewZMQPublisher(endpoint string, queueDepth int) (*ZMQPublisher, error) {
	socket, err := zmq4.NewSocket(zmq4.XPUB)
	if err != nil {
		return nil, err
	}
	if err := socket.Bind(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	p := &ZMQPublisher{
		out:  make(chan []byte, queueDepth),
		done: make(chan struct{}),
	}
	go p.run(socket)
	return p, nil
}

func (p *ZMQPublisher) run(socket *zmq4.Socket) {
	defer socket.Close()
	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	for {
		select {
		case <-p.done:
			return
		case payload := <-p.out:
			if _, err := socket.SendBytes(payload, zmq4.DONTWAIT); err != nil {
				log.Printf("zmq send failed: %v", err)
			}
			continue
		default:
		}

		polled, err := poller.Poll(pollInterval)
		if err != nil {
			continue
		}
		for range polled {
			frame, err := socket.RecvBytes(0)
			if err != nil || len(frame) == 0 {
				continue
			}
			switch frame[0] {
			case 1:
				p.subs.Add(1)
			case 0:
				if p.subs.Add(-1) < 0 {
					p.subs.Store(0)
				}
			}
		}
	}
}

func (p *ZMQPublisher) Publish(payload []byte) {
	if p.closed.Load() {
		return
	}
	select {
	case p.out <- payload:
	default:
	}
}

func (p *ZMQPublisher) SubscriberCount() int {
	return int(p.subs.Load())
}

func (p *ZMQPublisher) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.done)
	}
}
