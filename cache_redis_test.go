package networkkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisConfigValidate(t *testing.T) {
	valid := RedisConfig{Addr: "localhost:6379"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		cfg  RedisConfig
	}{
		{"missing address", RedisConfig{}},
		{"negative db", RedisConfig{Addr: "localhost:6379", DB: -1}},
		{"negative pool", RedisConfig{Addr: "localhost:6379", PoolSize: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestNewRedisCacheRejectsInvalidConfig(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{})
	assert.Error(t, err)
}
