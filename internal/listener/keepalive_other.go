//go:build !linux && !darwin

package listener

import "net"

// Only the probe interval set by SetTCPKeepalive applies here.
func setKeepaliveOptions(conn *net.TCPConn, ka Keepalive) error {
	return nil
}
