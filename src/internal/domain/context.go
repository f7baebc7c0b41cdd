package domain

import (
	"log"
	"net"
	"strconv"
)

type Config struct {
	Version string
	Host    string // empty binds every interface
	Port    int
	Root    string
	Watch   bool
}

// Addr is the listen address for net.Listen.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL is the address printed in the startup banner.
func (c Config) URL() string {
	return "http://localhost:" + strconv.Itoa(c.Port) + "/"
}

type Context struct {
	Config Config
}

// ParsePort returns the port named by the first positional argument, or
// DefaultPort when there is none or it is not a usable TCP port.
func ParsePort(args []string) int {
	if len(args) == 0 {
		return DefaultPort
	}

	port, err := strconv.Atoi(args[0])
	if err != nil || port < 1 || port > 65535 {
		log.Printf("Warning: invalid port %q, using %d", args[0], DefaultPort)
		return DefaultPort
	}
	return port
}
