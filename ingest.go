package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
)

// socketBufferSize is the OS receive buffer requested for the ingest socket.
const socketBufferSize = 2 * 1024 * 1024

// udpListener reads simulator datagrams and hands them to the session
// one at a time.
type udpListener struct {
	conn    *net.UDPConn
	sess    *Session
	metrics *metrics
}

func listenUDP(addr string, sess *Session, m *metrics) (*udpListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := conn.SetReadBuffer(socketBufferSize); err != nil {
		log.Printf("could not set UDP read buffer to %d bytes: %v", socketBufferSize, err)
	}
	return &udpListener{conn: conn, sess: sess, metrics: m}, nil
}

func (l *udpListener) addr() net.Addr { return l.conn.LocalAddr() }

// run blocks until Ingest returns an error, the socket fails or ctx is
// done. Each datagram is fully handled before the next one is read.
func (l *udpListener) run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = l.conn.Close() })
	defer stop()
	defer l.conn.Close()

	buf := make([]byte, 65536)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			l.metrics.socketError()
			log.Printf("udp read error: %v", err)
			continue
		}
		l.metrics.datagram(n)

		if err := l.sess.Ingest(string(buf[:n])); err != nil {
			return err
		}
	}
}
