package listener

import (
	"net"

	"golang.org/x/sys/unix"
)

func setKeepaliveOptions(conn *net.TCPConn, ka Keepalive) error {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var sysErr error
	err = rawConn.Control(func(fd uintptr) {
		sysErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, int(ka.Idle.Seconds()))
		if sysErr != nil {
			return
		}
		sysErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, int(ka.Interval.Seconds()))
		if sysErr != nil {
			return
		}
		sysErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, ka.Count)
		if sysErr != nil {
			return
		}
		// unacked data times out on the same schedule as the probes
		userTimeout := int(ka.Idle.Milliseconds()) + int(ka.Interval.Milliseconds())*ka.Count
		sysErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_USER_TIMEOUT, userTimeout)
	})
	if err != nil {
		return err
	}
	return sysErr
}
