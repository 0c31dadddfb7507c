package daemon

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svalouch/rctmon/pkg/device"
	"github.com/svalouch/rctmon/pkg/protocol"
)

// buildResponseFrame hand-assembles a RESPONSE wire frame the way
// protocol.encodeFrame does internally (that helper is unexported), so
// tests here can feed the decoder a realistic frame without depending on
// package protocol's internals. Unlike encodeFrame it escapes only
// StartByte and EscapeByte, not 0x1D; the decoder accepts 0x1D unescaped.
func buildResponseFrame(oid uint32, payload []byte) []byte {
	body := []byte{byte(protocol.CommandResponse)}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(4+len(payload)))
	body = append(body, lenBuf[:]...)
	var idBuf [4]byte
	binary.BigEndian.PutUint32(idBuf[:], oid)
	body = append(body, idBuf[:]...)
	body = append(body, payload...)
	crc := protocol.CRC16(body)
	var crcBuf [2]byte
	binary.BigEndian.PutUint16(crcBuf[:], crc)
	body = append(body, crcBuf[:]...)

	out := []byte{protocol.StartByte}
	for _, b := range body {
		if b == protocol.StartByte || b == protocol.EscapeByte {
			out = append(out, protocol.EscapeByte, b^0x20)
		} else {
			out = append(out, b)
		}
	}
	return out
}

func newTestDaemon(t *testing.T, host string, port int) (*Daemon, *device.Dispatcher) {
	t.Helper()
	d, err := device.New(protocol.DefaultRegistry, nil, nil)
	require.NoError(t, err)
	dm := New(host, port, d, protocol.DefaultRegistry, nil, nil, nil, 0)
	return dm, d
}

func TestDaemon_ConnectsOnReconnectDue(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	dm, _ := newTestDaemon(t, "127.0.0.1", addr.Port)

	dm.tick(time.Now())
	assert.Equal(t, StateConnected, dm.State())

	select {
	case conn := <-accepted:
		conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted a connection")
	}
	dm.disconnect("test cleanup")
}

func TestDaemon_ReconnectIntervalRespected(t *testing.T) {
	t.Parallel()

	dm, _ := newTestDaemon(t, "127.0.0.1", 1) // nothing listens on port 1
	now := time.Now()
	dm.lastConnectAttempt = now

	dm.tick(now.Add(1 * time.Second))
	assert.Equal(t, StateDisconnected, dm.State())
	assert.Equal(t, now, dm.lastConnectAttempt, "tick before the reconnect interval must not attempt a new dial")
}

func TestDaemon_IdleTimeoutDisconnects(t *testing.T) {
	t.Parallel()

	dm, _ := newTestDaemon(t, "127.0.0.1", 0)
	server, client := net.Pipe()
	defer server.Close()
	dm.conn = client
	dm.state = StateConnected
	dm.lastDataReceived = time.Now().Add(-(idleTimeout + time.Second))

	dm.tick(time.Now())
	assert.Equal(t, StateDisconnected, dm.State())
}

func TestDaemon_ReceivesAndDispatchesFrame(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	oid := protocol.DefaultRegistry.MustByName("android_description").ID
	frame := buildResponseFrame(oid, []byte("RCT-Power-Storage"))

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write(frame)
		time.Sleep(200 * time.Millisecond)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	dm, d := newTestDaemon(t, "127.0.0.1", addr.Port)

	dm.tick(time.Now()) // dial
	require.Equal(t, StateConnected, dm.State())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		dm.tick(time.Now())
		if _, ok := d.Readings().Name.Get(); ok {
			break
		}
	}

	name, ok := d.Readings().Name.Get()
	require.True(t, ok, "android_description frame should have been decoded and dispatched")
	assert.Equal(t, "RCT-Power-Storage", name)

	dm.disconnect("test cleanup")
	<-serverDone
}
