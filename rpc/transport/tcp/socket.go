package tcp

import (
	"net"
	"time"

	"github.com/ValentinKolb/skv/rpc/common"
)

// applySocketOptions applies performance optimizations to a TCP connection
// using configuration values from TCPConf and SocketConf
func applySocketOptions(conn net.Conn, tcpConf common.TCPConf, sockConf common.SocketConf) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(tcpConf.TCPNoDelay); err != nil {
		return err
	}

	// Set socket buffer sizes if configured
	if sockConf.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(sockConf.WriteBufferSize); err != nil {
			return err
		}
	}
	if sockConf.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(sockConf.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if tcpConf.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(tcpConf.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	// Set TCP linger option if configured (negative keeps the OS default)
	if tcpConf.TCPLingerSec >= 0 {
		if err := tcpConn.SetLinger(tcpConf.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}
