package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dotset/lib/backend"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerShard describes one namespace served by the rpc server
type ServerShard struct {
	// ShardID is the ID of the shard, clients address it in every request
	ShardID uint64
	// Driver is the backend implementation holding the shard
	Driver backend.Implementation
}

// ServerConfig holds all configuration parameters for the rpc server.
type ServerConfig struct {
	// Shards served by this server
	Shards []ServerShard

	// Per request timeout for backend calls
	TimeoutSecond int64

	// HTTP api settings
	Endpoint string

	// Logging configuration
	LogLevel string
}

// HasShard checks if the configuration contains the shard with the given id
func (c *ServerConfig) HasShard(shardID uint64) bool {
	for _, shard := range c.Shards {
		if shard.ShardID == shardID {
			return true
		}
	}
	return false
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var r report
	r.section("Settings Server")
	r.field("Endpoint", c.Endpoint)
	r.field("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	r.field("Log Level", c.LogLevel)

	r.section("Namespaces")
	for _, shard := range c.Shards {
		r.field("Shard "+strconv.FormatUint(shard.ShardID, 10), string(shard.Driver))
	}
	return r.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the settings of a remote backend connection.
type ClientConfig struct {
	// Servers to talk to, used round robin
	Endpoints []string
	// Timeout of a single request
	TimeoutSecond int
	// Attempts per request, values below 1 mean one attempt
	RetryCount int
	// Idle connections kept per server
	ConnectionsPerEndpoint int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var r report
	r.section("Remote Backend")
	r.field("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	r.field("Retry Count", strconv.Itoa(max(1, c.RetryCount)))
	r.field("Connections Per Endpoint", strconv.Itoa(max(1, c.ConnectionsPerEndpoint)))
	r.field("Endpoints", strings.Join(c.Endpoints, ", "))
	return r.String()
}

// report formats configurations as titled sections of aligned fields
type report struct {
	strings.Builder
}

func (r *report) section(title string) {
	fmt.Fprintf(r, "\n%s\n", strings.ToUpper(title))
}

func (r *report) field(name, value string) {
	fmt.Fprintf(r, "  %-24s: %s\n", name, value)
}
