// Package config holds the tunable timing and cluster-membership
// parameters for a node.
package config

import (
	"errors"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	// DefaultHeartbeatInterval is how often an active leader broadcasts a
	// LeaderActive heartbeat.
	DefaultHeartbeatInterval = 50 * time.Millisecond
	// DefaultLeadershipTimeout is how long a leader (or a candidate
	// PotentialLeader) tolerates missing a majority before giving up.
	DefaultLeadershipTimeout = 300 * time.Millisecond
	// DefaultFollowerTimeout is how long a follower tolerates missing
	// heartbeats from its leader before campaigning itself.
	DefaultFollowerTimeout = 1000 * time.Millisecond
)

// NodeConfig describes one member of the cluster as seen from the
// registry/transport layer. It plays no part in the role engine itself,
// which only knows numeric ids and a cluster size.
type NodeConfig struct {
	ID      uint64            `json:"id" mapstructure:"id"`
	Address string            `json:"address" mapstructure:"address"`
	Tags    map[string]string `json:"tags,omitempty" mapstructure:"tags"`
}

// Config is the full set of tunables for a node.
type Config struct {
	// ClusterSize is the fixed size of the cluster, including this node.
	ClusterSize int `json:"cluster_size" mapstructure:"cluster_size"`

	// HeartbeatInterval is the leader's heartbeat cadence.
	HeartbeatInterval time.Duration `json:"heartbeat_interval,omitempty" mapstructure:"heartbeat_interval"`
	// LeadershipTimeout is the time a leader or candidate tolerates
	// missing a majority before stepping down / retrying.
	LeadershipTimeout time.Duration `json:"leadership_timeout,omitempty" mapstructure:"leadership_timeout"`
	// FollowerTimeout is the time a follower tolerates missing leader
	// heartbeats before campaigning.
	FollowerTimeout time.Duration `json:"follower_timeout,omitempty" mapstructure:"follower_timeout"`

	// Peers lists the other members of the cluster for the transport
	// layer to dial. The role engine never reads this field directly.
	Peers []NodeConfig `json:"peers,omitempty" mapstructure:"peers"`
}

// WithDefaults returns a copy of cfg with zero-valued timing fields
// replaced by their defaults, the way ElectConfig's timeouts are
// defaulted in the teacher library.
func (c Config) WithDefaults() Config {
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.LeadershipTimeout == 0 {
		c.LeadershipTimeout = DefaultLeadershipTimeout
	}
	if c.FollowerTimeout == 0 {
		c.FollowerTimeout = DefaultFollowerTimeout
	}
	return c
}

// Validate rejects configurations that can never make progress.
func (c Config) Validate() error {
	if c.ClusterSize < 1 {
		return errors.New("config: cluster size must be at least 1")
	}
	if c.HeartbeatInterval < 0 || c.LeadershipTimeout < 0 || c.FollowerTimeout < 0 {
		return errors.New("config: timeouts must not be negative")
	}
	d := c.WithDefaults()
	if d.LeadershipTimeout <= d.HeartbeatInterval {
		return errors.New("config: leadership timeout must exceed the heartbeat interval")
	}
	if d.FollowerTimeout <= d.LeadershipTimeout {
		return errors.New("config: follower timeout must exceed the leadership timeout")
	}
	return nil
}

// Decode builds a Config from a generic map, as when configuration
// arrives from a JSON/YAML document already unmarshalled into
// map[string]any, or from an environment-derived source.
func Decode(raw map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	return cfg, nil
}
