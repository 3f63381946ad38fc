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
		sysErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPALIVE, int(ka.Idle.Seconds()))
		if sysErr != nil {
			return
		}
		// missing on older releases
		unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, int(ka.Interval.Seconds()))
		unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, ka.Count)
	})
	if err != nil {
		return err
	}
	return sysErr
}
