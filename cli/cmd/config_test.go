package cmd

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponyo877/vivachat/client/transport/ws"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		c, err := LoadConfig(v)
		require.NoError(t, err)
		assert.Equal(t, defaultAPIBaseURL, c.APIBaseURL)
		assert.Equal(t, "websocket", c.Transport)
		assert.Equal(t, 2*time.Second, c.TypingQuiet)
		assert.Equal(t, 5*time.Second, c.ReconnectDelay)
		assert.Equal(t, 10*time.Second, c.ConnectTimeout)
		assert.Empty(t, c.MetricsAddr)
		assert.Zero(t, c.CurrentRoom)
	})

	t.Run("connect timeout is its own setting", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set(reconnectDelayKey, "30s")
		v.Set(connectTimeoutKey, "3s")
		c, err := LoadConfig(v)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, c.ReconnectDelay)
		assert.Equal(t, 3*time.Second, c.ConnectTimeout)

		a := &application{cfg: c}
		d, ok := a.dialer().(*ws.Dialer)
		require.True(t, ok)
		assert.Equal(t, 3*time.Second, d.Timeout)
	})

	t.Run("metrics address", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set(metricsAddrKey, "127.0.0.1:9464")
		c, err := LoadConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9464", c.MetricsAddr)

		v.Set(metricsAddrKey, "nowhere")
		_, err = LoadConfig(v)
		assert.Error(t, err)
	})

	t.Run("durations decode from strings", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set(typingQuietKey, "750ms")
		v.Set(currentRoomKey, "12")
		c, err := LoadConfig(v)
		require.NoError(t, err)
		assert.Equal(t, 750*time.Millisecond, c.TypingQuiet)
		assert.Equal(t, int64(12), c.CurrentRoom)
	})

	t.Run("unknown transport", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set(transportKey, "carrier-pigeon")
		_, err := LoadConfig(v)
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("grpc needs a relay address", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set(transportKey, "grpc")
		v.Set(relayAddressKey, "")
		_, err := LoadConfig(v)
		assert.Error(t, err)
	})

	t.Run("bad api url", func(t *testing.T) {
		v := viper.New()
		setDefaults(v)
		v.Set(apiBaseURLKey, "not a url")
		_, err := LoadConfig(v)
		assert.Error(t, err)
	})
}

func TestRoomArg(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })

	cfg = Config{CurrentRoom: 4}
	id, err := roomArg([]string{"9"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	id, err = roomArg(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	_, err = roomArg([]string{"x"}, 0)
	assert.Error(t, err)

	cfg = Config{}
	_, err = roomArg(nil, 0)
	assert.Error(t, err)
}
