package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_WithDefaults(t *testing.T) {
	c := Config{ClusterSize: 3}.WithDefaults()
	assert.Equal(t, DefaultHeartbeatInterval, c.HeartbeatInterval)
	assert.Equal(t, DefaultLeadershipTimeout, c.LeadershipTimeout)
	assert.Equal(t, DefaultFollowerTimeout, c.FollowerTimeout)
}

func TestConfig_WithDefaults_PreservesExplicitValues(t *testing.T) {
	c := Config{
		ClusterSize:       3,
		HeartbeatInterval: 10 * time.Millisecond,
	}.WithDefaults()
	assert.Equal(t, 10*time.Millisecond, c.HeartbeatInterval)
	assert.Equal(t, DefaultLeadershipTimeout, c.LeadershipTimeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid with defaults",
			cfg:  Config{ClusterSize: 5},
		},
		{
			name:    "zero cluster size",
			cfg:     Config{ClusterSize: 0},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			cfg:     Config{ClusterSize: 3, HeartbeatInterval: -1},
			wantErr: true,
		},
		{
			name: "leadership timeout must exceed heartbeat",
			cfg: Config{
				ClusterSize:       3,
				HeartbeatInterval: 500 * time.Millisecond,
				LeadershipTimeout: 100 * time.Millisecond,
			},
			wantErr: true,
		},
		{
			name: "follower timeout must exceed leadership timeout",
			cfg: Config{
				ClusterSize:       3,
				HeartbeatInterval: 50 * time.Millisecond,
				LeadershipTimeout: 300 * time.Millisecond,
				FollowerTimeout:   200 * time.Millisecond,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Decode(t *testing.T) {
	raw := map[string]any{
		"cluster_size":       3,
		"heartbeat_interval": "50ms",
		"peers": []any{
			map[string]any{"id": 2, "address": "10.0.0.2:7000"},
			map[string]any{"id": 3, "address": "10.0.0.3:7000"},
		},
	}

	cfg, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ClusterSize)
	assert.Equal(t, 50*time.Millisecond, cfg.HeartbeatInterval)
	require.Len(t, cfg.Peers, 2)
	assert.EqualValues(t, 2, cfg.Peers[0].ID)
	assert.Equal(t, "10.0.0.3:7000", cfg.Peers[1].Address)
}

func TestConfig_Decode_RejectsWrongType(t *testing.T) {
	raw := map[string]any{
		"cluster_size": "not-a-number",
	}
	_, err := Decode(raw)
	assert.Error(t, err)
}
