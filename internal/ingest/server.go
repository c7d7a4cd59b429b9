// Package ingest implements the TCP telemetry listener. Machines hold
// one persistent connection each and report newline-delimited JSON
// readings; every message gets exactly one response line back.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"time"

	"pmms-backend/config"
	"pmms-backend/internal/metrics"
	"pmms-backend/internal/store"
)

// Server accepts machine telemetry connections and forwards validated
// readings to the store.
type Server struct {
	cfg   *config.Config
	store store.Store
}

// NewServer creates a telemetry listener backed by the given store.
func NewServer(cfg *config.Config, st store.Store) *Server {
	return &Server{cfg: cfg, store: st}
}

// Run listens for connections until the context is cancelled. Each
// connection is handled on its own goroutine with its own buffer, so a
// blocked or slow client never stalls the others.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Ingest.Port))
	if err != nil {
		return fmt.Errorf("ingest listen failed: %w", err)
	}
	log.Printf("[ingest] listening on port %d", s.cfg.Ingest.Port)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				log.Println("[ingest] listener shutting down")
				return nil
			default:
			}
			log.Printf("[ingest] accept error: %v", err)
			continue
		}
		go s.HandleConn(ctx, conn)
	}
}

// HandleConn serves one machine connection: welcome line, then a
// read-frame-process loop until the peer disconnects.
func (s *Server) HandleConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	log.Printf("[ingest] new connection from %s", remote)
	metrics.ActiveConnections.Inc()
	defer func() {
		metrics.ActiveConnections.Dec()
		conn.Close()
		log.Printf("[ingest] connection closed: %s", remote)
	}()

	s.writeResponse(conn, Response{Success: true, Message: "Connected to PMMS TCP server"})

	var buf []byte
	chunk := make([]byte, 4096)
	for {
		n, err := conn.Read(chunk)
		buf = append(buf, chunk[:n]...)

		// Drain every complete line; keep the unterminated remainder.
		for {
			idx := bytes.IndexByte(buf, '\n')
			if idx < 0 {
				break
			}
			line := bytes.TrimSpace(buf[:idx])
			buf = buf[idx+1:]
			if len(line) == 0 {
				continue
			}
			s.writeResponse(conn, s.ProcessMessage(ctx, line))
		}

		// A client that streams bytes without ever sending a newline is
		// violating the protocol, not filling a buffer.
		if len(buf) > s.cfg.Ingest.MaxLineBytes {
			log.Printf("[ingest] %s exceeded %d buffered bytes without a newline; dropping connection", remote, s.cfg.Ingest.MaxLineBytes)
			s.writeResponse(conn, Response{Success: false, Message: "Message too large"})
			return
		}

		if err != nil {
			return
		}
	}
}

// ProcessMessage runs one framed message through the validation
// pipeline and, on success, persists the reading with a server-assigned
// timestamp.
func (s *Server) ProcessMessage(ctx context.Context, line []byte) Response {
	reading, perr := s.validate(ctx, line)
	if perr != nil {
		metrics.RecordMessage(perr.result)
		return Response{Success: false, Message: perr.message, Error: perr.detail}
	}

	reading.Timestamp = time.Now().UTC()
	if err := s.store.SaveReading(ctx, reading); err != nil {
		log.Printf("[ingest] save failed for machine %s: %v", reading.MachineID, err)
		metrics.RecordMessage("save_error")
		return Response{Success: false, Message: "Error saving data", Error: err.Error()}
	}

	metrics.RecordMessage("ok")
	metrics.ReadingsSavedTotal.Inc()
	ts := reading.Timestamp
	return Response{Success: true, Message: "Data saved successfully", Timestamp: &ts}
}

// Response is the single JSON line written back for every inbound
// message, and for the initial welcome.
type Response struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Error     string     `json:"error,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[ingest] failed to marshal response: %v", err)
		return
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		log.Printf("[ingest] failed to write response: %v", err)
	}
}
