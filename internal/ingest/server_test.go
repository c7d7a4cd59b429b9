package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startConn wires a server goroutine to one end of an in-memory pipe
// and returns the client end plus a reader that consumes the welcome
// line.
func startConn(t *testing.T, srv *Server) (net.Conn, *bufio.Reader) {
	t.Helper()

	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		client.Close()
	})
	go srv.HandleConn(ctx, server)

	reader := bufio.NewReader(client)
	welcome := readResponse(t, reader)
	require.True(t, welcome.Success)
	require.Contains(t, welcome.Message, "Connected")
	return client, reader
}

func readResponse(t *testing.T, r *bufio.Reader) Response {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal([]byte(line), &resp))
	return resp
}

func TestFramingAcrossChunks(t *testing.T) {
	st := newStubStore(testMachines()...)
	srv := NewServer(testConfig(), st)
	client, reader := startConn(t, srv)

	// First chunk carries one complete message plus the start of a
	// second one.
	_, err := client.Write([]byte(`{"id":"M1","type":"onoff","value":1}` + "\n" + `{"id":"M1"`))
	require.NoError(t, err)

	resp := readResponse(t, reader)
	assert.True(t, resp.Success)
	assert.Len(t, st.saved, 1)

	// The partial message is held in the buffer until its newline
	// arrives in a later chunk.
	_, err = client.Write([]byte(`,"type":"onoff","value":0}` + "\n"))
	require.NoError(t, err)

	resp = readResponse(t, reader)
	assert.True(t, resp.Success)
	assert.Len(t, st.saved, 2)
	assert.Equal(t, 0.0, st.saved[1].Value)
}

func TestEmptyLinesSkipped(t *testing.T) {
	st := newStubStore(testMachines()...)
	srv := NewServer(testConfig(), st)
	client, reader := startConn(t, srv)

	_, err := client.Write([]byte("\n  \n" + `{"id":"M1","type":"onoff","value":1}` + "\n"))
	require.NoError(t, err)

	// Exactly one response: the blank lines produce nothing.
	resp := readResponse(t, reader)
	assert.True(t, resp.Success)
	assert.Len(t, st.saved, 1)
}

func TestValidationErrorKeepsConnectionOpen(t *testing.T) {
	st := newStubStore(testMachines()...)
	srv := NewServer(testConfig(), st)
	client, reader := startConn(t, srv)

	_, err := client.Write([]byte("garbage\n"))
	require.NoError(t, err)
	resp := readResponse(t, reader)
	assert.False(t, resp.Success)

	// The same connection still accepts a valid message afterwards.
	_, err = client.Write([]byte(`{"id":"M1","type":"onoff","value":1}` + "\n"))
	require.NoError(t, err)
	resp = readResponse(t, reader)
	assert.True(t, resp.Success)
}

func TestOversizedBufferDropsConnection(t *testing.T) {
	st := newStubStore(testMachines()...)
	srv := NewServer(testConfig(), st) // MaxLineBytes: 256
	client, reader := startConn(t, srv)

	_, err := client.Write([]byte(strings.Repeat("x", 300)))
	require.NoError(t, err)

	resp := readResponse(t, reader)
	assert.False(t, resp.Success)
	assert.Equal(t, "Message too large", resp.Message)

	// The server closes the connection after the protocol violation.
	client.SetReadDeadline(time.Now().Add(time.Second))
	_, err = reader.ReadString('\n')
	assert.Error(t, err)
}
