package telemetry

import (
	"runtime"
	"sync"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "directory"}, logger)
	assert.ErrorContains(t, err, "server address")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, logger)
	assert.ErrorContains(t, err, "application name")
}

func TestProfiler_StopConcurrent(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Stop())
		}()
	}
	wg.Wait()
}

func TestApplyRuntimeRates(t *testing.T) {
	t.Cleanup(func() {
		runtime.SetMutexProfileFraction(0)
		runtime.SetBlockProfileRate(0)
	})

	applyRuntimeRates([]pyroscope.ProfileType{pyroscope.ProfileMutexCount}, ProfilerConfig{MutexProfileFraction: 3})
	assert.Equal(t, 3, runtime.SetMutexProfileFraction(-1))

	applyRuntimeRates(DefaultProfileTypes, ProfilerConfig{})
	assert.Equal(t, 3, runtime.SetMutexProfileFraction(-1), "default types leave mutex profiling untouched")
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 5, orDefault(0, 5))
	assert.Equal(t, 5, orDefault(-2, 5))
	assert.Equal(t, 7, orDefault(7, 5))
}

func TestHostTags(t *testing.T) {
	t.Setenv("HOSTNAME", "api-1")
	t.Setenv("POD_NAME", "")
	assert.Equal(t, map[string]string{"hostname": "api-1"}, hostTags())
}
