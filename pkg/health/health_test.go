package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zoff-tech/go-orderflow/pkg/config"
)

func TestFromSettingsMemoryBackends(t *testing.T) {
	cfg := &config.Settings{
		Broker: config.BrokerSettings{Type: "memory"},
		Store:  config.StoreSettings{Type: "memory"},
	}

	report := FromSettings(cfg)
	assert.Equal(t, "ok", report.Status)
	assert.True(t, report.Checks.QueueConfigured)
	assert.True(t, report.Checks.StoreConfigured)
	assert.False(t, report.Checks.TelemetryConfigured)
}

func TestFromSettingsDegradedWithoutBrokerURL(t *testing.T) {
	cfg := &config.Settings{
		Broker: config.BrokerSettings{Type: "rabbitmq"},
		Store:  config.StoreSettings{Type: "memory"},
	}

	report := FromSettings(cfg)
	assert.Equal(t, "degraded", report.Status)
	assert.False(t, report.Checks.QueueConfigured)
}

func TestHandlerStatusCodes(t *testing.T) {
	ok := &config.Settings{
		Broker: config.BrokerSettings{Type: "memory"},
		Store:  config.StoreSettings{Type: "memory"},
	}
	w := httptest.NewRecorder()
	Handler(ok)(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	degraded := &config.Settings{
		Broker: config.BrokerSettings{Type: "rabbitmq"},
		Store:  config.StoreSettings{Type: "memory"},
	}
	w = httptest.NewRecorder()
	Handler(degraded)(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
