package plesk

import (
	"fmt"
	"net"
	"strconv"
)

// sourceIPFor returns the local address the OS would route traffic to
// host through. Panel sessions are bound to the address that creates
// them, so the session manager has to know it up front. Dialing UDP
// performs no handshake; it only consults the routing table.
func sourceIPFor(host string, port int) (string, error) {
	conn, err := net.Dial("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return "", fmt.Errorf("discover source ip for %s: %w", host, err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("discover source ip for %s: unexpected local address %v", host, conn.LocalAddr())
	}
	return addr.IP.String(), nil
}
