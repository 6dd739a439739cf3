package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	// DefaultMaxFrameSize is the largest frame payload accepted by default (16 MiB).
	DefaultMaxFrameSize = 16 * 1024 * 1024
	// DefaultCompressionThreshold is the payload size above which frames are compressed.
	// It is roughly one ethernet MTU worth of payload.
	DefaultCompressionThreshold = 1436
	// MaxFrameSizeLimit is the largest value the 31 bit length field can hold.
	MaxFrameSizeLimit = 1<<31 - 1
)

// --------------------------------------------------------------------------
// Shared configuration structs
// --------------------------------------------------------------------------

// SocketConf holds the socket buffer sizes (in bytes, 0 keeps the OS default).
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options.
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// TLSConf configures transport encryption.
//
// On the server CertFile/KeyFile are the server identity and CAFile (optional) enables
// client certificate verification. On the client CAFile is the trust anchor for the
// server (system roots if empty), Domain the expected server name and CertFile/KeyFile
// an optional client identity.
type TLSConf struct {
	Insecure bool
	CertFile string
	KeyFile  string
	CAFile   string
	Domain   string
}

// ProtocolConf configures the framed protocol. Both peers must agree on it.
type ProtocolConf struct {
	Compression          string
	CompressionThreshold int
	MaxFrameSize         int
}

// DefaultProtocolConf returns the protocol defaults (no compression).
func DefaultProtocolConf() ProtocolConf {
	return ProtocolConf{
		Compression:          "none",
		CompressionThreshold: DefaultCompressionThreshold,
		MaxFrameSize:         DefaultMaxFrameSize,
	}
}

// Validate checks the protocol configuration.
func (c ProtocolConf) Validate() error {
	switch c.Compression {
	case "", "none", "snappy", "lz4", "zstd":
	default:
		return errors.Newf("invalid compression %q (expected one of none, snappy, lz4, zstd)", c.Compression)
	}
	if c.MaxFrameSize < 0 || c.MaxFrameSize > MaxFrameSizeLimit {
		return errors.Newf("max frame size must be between 0 and %d", MaxFrameSizeLimit)
	}
	if c.CompressionThreshold < 0 {
		return errors.New("compression threshold must not be negative")
	}
	return nil
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// Storage backends
const (
	StorageMemory = "memory"
	StoragePebble = "pebble"
)

// StorageConf selects and configures the storage backend of the server.
type StorageConf struct {
	Backend       string
	DataDir       string
	PebbleSync    bool
	PebbleCacheMB int
}

// ServerTransportConfig holds the listener settings of the server.
type ServerTransportConfig struct {
	Endpoint string
	SocketConf
	TCPConf
	TLSConf
	ProtocolConf
}

// ServerConfig holds all configuration parameters of the server.
type ServerConfig struct {
	// Per exchange read/write deadline in seconds, 0 disables it
	TimeoutSecond int64

	Transport ServerTransportConfig
	Storage   StorageConf

	// Address of the admin HTTP endpoint (metrics, health), empty disables it
	AdminEndpoint string

	// Logging configuration
	LogLevel string
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Transport.Endpoint == "" {
		return errors.New("endpoint must not be empty")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case StorageMemory:
	case StoragePebble:
		if c.Storage.DataDir == "" {
			return errors.New("data dir is required for the pebble storage backend")
		}
	default:
		return errors.Newf("invalid storage backend %q (expected one of memory, pebble)", c.Storage.Backend)
	}
	if !c.Transport.Insecure && (c.Transport.CertFile == "" || c.Transport.KeyFile == "") {
		return errors.New("tls certificate and key are required unless insecure mode is enabled")
	}
	return c.Transport.ProtocolConf.Validate()
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// RPC settings
	addSection("RPC Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	if c.AdminEndpoint != "" {
		addField("Admin Endpoint", c.AdminEndpoint)
	}

	// Protocol
	addSection("Protocol")
	addField("Compression", c.Transport.Compression)
	addField("Compression Threshold", fmt.Sprintf("%d bytes", c.Transport.CompressionThreshold))
	addField("Max Frame Size", fmt.Sprintf("%d bytes", c.Transport.MaxFrameSize))

	// TLS
	addSection("TLS")
	if c.Transport.Insecure {
		addField("Mode", "insecure (plain text)")
	} else {
		addField("Certificate", c.Transport.CertFile)
		addField("Key", c.Transport.KeyFile)
		if c.Transport.CAFile != "" {
			addField("Client CA", c.Transport.CAFile)
		}
	}

	// Storage
	addSection("Storage")
	addField("Backend", c.Storage.Backend)
	if c.Storage.Backend == StoragePebble {
		addField("Data Directory", c.Storage.DataDir)
		addField("Sync Writes", strconv.FormatBool(c.Storage.PebbleSync))
		addField("Cache Size", fmt.Sprintf("%d MB", c.Storage.PebbleCacheMB))
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the connection settings of the client.
type ClientTransportConfig struct {
	Endpoints              []string
	RetryCount             int
	ConnectionsPerEndpoint int
	SocketConf
	TCPConf
	TLSConf
	ProtocolConf
}

// ClientConfig holds all configuration parameters of the client.
type ClientConfig struct {
	// Per exchange deadline in seconds, 0 disables it
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// Validate checks the client configuration.
func (c *ClientConfig) Validate() error {
	if len(c.Transport.Endpoints) == 0 {
		return errors.New("no endpoints provided")
	}
	return c.Transport.ProtocolConf.Validate()
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Conn. Per Endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))
	addField("Compression", c.Transport.Compression)
	if c.Transport.Insecure {
		addField("TLS", "disabled")
	} else {
		addField("TLS Domain", c.Transport.Domain)
	}

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
