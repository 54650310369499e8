package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 9000, Database: "stockpulse", User: "u", Password: "p"}
	for _, opt := range []ClientOption{
		WithTimeouts(5*time.Second, 30*time.Second, 30*time.Second),
		WithMaxExecutionTime(time.Minute),
		WithAsyncInsert(true, true),
	} {
		opt(&cfg)
	}

	assert.Equal(t,
		"clickhouse://u:p@ch:9000/stockpulse?dial_timeout=5s&read_timeout=30s&max_execution_time=60&async_insert=1&wait_for_async_insert=1",
		buildDSN(cfg))
}

func TestBuildDSNHTTP(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 8123, Database: "db", User: "default", UseHTTP: true}
	assert.Equal(t, "clickhouse+http://default:@ch:8123/db", buildDSN(cfg))
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(WithPort(9000))
	assert.Error(t, err)
}
