package domain_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestEpoch_Partitions(t *testing.T) {
	e := domain.Epoch{App: "carwash-pro", Version: "3"}

	assert.Equal(t, "carwash-pro-static-v3", e.StaticPartition())
	assert.Equal(t, "carwash-pro-dynamic-v3", e.DynamicPartition())
	assert.True(t, e.Owns("carwash-pro-static-v3"))
	assert.True(t, e.Owns("carwash-pro-dynamic-v3"))
	assert.False(t, e.Owns("carwash-pro-static-v2"))
	assert.False(t, e.Owns("other-static-v3"))
}

func TestValidPartitionName(t *testing.T) {
	assert.True(t, domain.ValidPartitionName("carwash-pro-static-v1.2"))
	assert.False(t, domain.ValidPartitionName(""))
	assert.False(t, domain.ValidPartitionName("../escape"))
	assert.False(t, domain.ValidPartitionName("with space"))
}

func TestIsNavigation(t *testing.T) {
	tests := []struct {
		name   string
		method string
		header http.Header
		want   bool
	}{
		{"fetch mode navigate", http.MethodGet, http.Header{"Sec-Fetch-Mode": {"navigate"}}, true},
		{"fetch mode cors", http.MethodGet, http.Header{"Sec-Fetch-Mode": {"cors"}, "Accept": {"text/html"}}, false},
		{"accept html", http.MethodGet, http.Header{"Accept": {"text/html,application/xhtml+xml;q=0.9"}}, true},
		{"accept json", http.MethodGet, http.Header{"Accept": {"application/json"}}, false},
		{"post", http.MethodPost, http.Header{"Sec-Fetch-Mode": {"navigate"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest(tt.method, "http://localhost:5173/bookings", nil)
			r.Header = tt.header
			assert.Equal(t, tt.want, domain.IsNavigation(r))
		})
	}
}

func TestStatus_Uptime(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &domain.Status{StartedAt: started}

	assert.Equal(t, 90*time.Second, s.Uptime(started.Add(90*time.Second+400*time.Millisecond)))
	assert.Zero(t, (&domain.Status{}).Uptime(started))
}

func TestStrategy_Intercepted(t *testing.T) {
	assert.False(t, domain.StrategyPassthrough.Intercepted())
	assert.False(t, domain.Strategy("").Intercepted())
	assert.True(t, domain.StrategyCacheFirst.Intercepted())
}
