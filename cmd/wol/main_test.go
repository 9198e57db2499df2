package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PieterD/wol"
)

type recordingConn struct {
	to      []string
	payload [][]byte
}

func (c *recordingConn) ReadFrom([]byte) (int, net.Addr, error) { return 0, nil, io.EOF }
func (c *recordingConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	c.to = append(c.to, addr.String())
	c.payload = append(c.payload, append([]byte(nil), b...))
	return len(b), nil
}
func (c *recordingConn) Close() error                     { return nil }
func (c *recordingConn) LocalAddr() net.Addr              { return &net.UDPAddr{IP: net.IPv4zero} }
func (c *recordingConn) SetDeadline(time.Time) error      { return nil }
func (c *recordingConn) SetReadDeadline(time.Time) error  { return nil }
func (c *recordingConn) SetWriteDeadline(time.Time) error { return nil }
func (c *recordingConn) SetBroadcast(bool) error          { return nil }

type result struct {
	code   int
	stdout string
	stderr string
	conn   *recordingConn
}

func runWol(t *testing.T, args ...string) result {
	t.Helper()
	conn := &recordingConn{}
	sender := &wol.Sender{
		Open: func(context.Context) (net.PacketConn, error) { return conn, nil },
	}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"wol"}, args...), &stdout, &stderr, sender)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String(), conn: conn}
}

func isolateConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("AppData", dir)
	t.Setenv("WOL_CONFIG", "")
	os.Unsetenv("WOL_CONFIG")
}

func TestRunSends(t *testing.T) {
	isolateConfig(t)
	res := runWol(t, "AA:BB:CC:DD:EE:FF")

	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Packet sent to FFFFFFFF-AA:BB:CC:DD:EE:FF on port 60000\n", res.stdout)
	require.Len(t, res.conn.to, 1)
	assert.Equal(t, "255.255.255.255:60000", res.conn.to[0])
	assert.Len(t, res.conn.payload[0], wol.MagicPacketLen)
}

func TestRunFlags(t *testing.T) {
	isolateConfig(t)
	res := runWol(t, "-b", "192.168.1.255", "-p", "9", "aabbccddeeff")

	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Packet sent to C0A801FF-aabbccddeeff on port 9\n", res.stdout)
	require.Len(t, res.conn.to, 1)
	assert.Equal(t, "192.168.1.255:9", res.conn.to[0])
}

func TestRunQuiet(t *testing.T) {
	isolateConfig(t)
	res := runWol(t, "-q", "AA:BB:CC:DD:EE:FF")

	assert.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.Len(t, res.conn.to, 1)
}

func TestRunFailures(t *testing.T) {
	isolateConfig(t)
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{name: "help", args: []string{"-h"}, stderr: "Usage: wol"},
		{name: "help with dest", args: []string{"-h", "AA:BB:CC:DD:EE:FF"}, stderr: "Usage: wol"},
		{name: "dest then help", args: []string{"AA:BB:CC:DD:EE:FF", "-h"}, stderr: "Usage: wol"},
		{name: "long help with arg", args: []string{"--help", "x"}, stderr: "Usage: wol"},
		{name: "help among short flags", args: []string{"-qh", "AA:BB:CC:DD:EE:FF"}, stderr: "Usage: wol"},
		{name: "no dest", args: nil, stderr: "Usage: wol"},
		{name: "two dests", args: []string{"AA:BB:CC:DD:EE:FF", "AA:BB:CC:DD:EE:00"}, stderr: "Usage: wol"},
		{name: "bad hex", args: []string{"ZZ:BB:CC:DD:EE:FF"}, stderr: "failed to parse hexadecimal 'ZZ'"},
		{name: "short address", args: []string{"AA:BB:CC:DD:EE"}, stderr: "'AA:BB:CC:DD:EE' not a valid ether address"},
		{name: "bad broadcast", args: []string{"-b", "nowhere", "AA:BB:CC:DD:EE:FF"}, stderr: "'nowhere'"},
		{name: "bad port", args: []string{"-p", "seven", "AA:BB:CC:DD:EE:FF"}, stderr: "'seven'"},
		{name: "port out of range", args: []string{"-p", "70000", "AA:BB:CC:DD:EE:FF"}, stderr: "'70000'"},
		{name: "missing config", args: []string{"-c", "/nonexistent/wol.toml", "AA:BB:CC:DD:EE:FF"}, stderr: "/nonexistent/wol.toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runWol(t, tt.args...)
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.stderr, tt.stderr)
			assert.Empty(t, res.stdout)
			assert.Empty(t, res.conn.to)
		})
	}
}

func TestRunConfigHost(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "wol.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
broadcast = "10.0.0.255"
port = 9

[host.nas]
mac = "b8:27:eb:0d:eb:01"
port = 7
`), 0o600))

	res := runWol(t, "-c", path, "nas")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "Packet sent to A0000FF-b8:27:eb:0d:eb:01 on port 7\n", res.stdout)

	res = runWol(t, "-c", path, "-p", "60000", "nas")
	assert.Equal(t, 0, res.code, res.stderr)
	require.Len(t, res.conn.to, 1)
	assert.Equal(t, "10.0.0.255:60000", res.conn.to[0])

	res = runWol(t, "-c", path, "01:02:03:04:05:06")
	assert.Equal(t, 0, res.code, res.stderr)
	require.Len(t, res.conn.to, 1)
	assert.Equal(t, "10.0.0.255:9", res.conn.to[0])
}

func TestRunConfigFromEnv(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "wol.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 7\n"), 0o600))
	t.Setenv("WOL_CONFIG", path)

	res := runWol(t, "AA:BB:CC:DD:EE:FF")
	assert.Equal(t, 0, res.code, res.stderr)
	require.Len(t, res.conn.to, 1)
	assert.Equal(t, "255.255.255.255:7", res.conn.to[0])
}
