package util

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func TestGetClientConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("timeout", 7)
	viper.Set("transport-endpoints", "a:1,b:2")
	viper.Set("transport-retries", 4)
	viper.Set("transport-read-buffer", 2)
	viper.Set("insecure", true)
	viper.Set("compression", "zstd")
	viper.Set("compression-threshold", 512)
	viper.Set("max-frame-size", 1024)

	conf := GetClientConfig()
	assert.Equal(t, 7, conf.TimeoutSecond)
	assert.Equal(t, []string{"a:1", "b:2"}, conf.Transport.Endpoints)
	assert.Equal(t, 4, conf.Transport.RetryCount)
	assert.Equal(t, 2048, conf.Transport.ReadBufferSize)
	assert.True(t, conf.Transport.Insecure)
	assert.Equal(t, "zstd", conf.Transport.Compression)
	assert.Equal(t, 512, conf.Transport.CompressionThreshold)
	assert.Equal(t, 1024, conf.Transport.MaxFrameSize)
	require.NoError(t, conf.Validate())
}

func TestGetSerializerAndTransport(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("serializer", "gob")
	_, err := GetSerializer()
	assert.NoError(t, err)
	viper.Set("serializer", "xml")
	_, err = GetSerializer()
	assert.Error(t, err)

	for _, name := range []string{"tcp", "unix"} {
		viper.Set("transport", name)
		_, err = GetClientTransport()
		assert.NoError(t, err)
		_, err = GetServerTransport()
		assert.NoError(t, err)
	}
	viper.Set("transport", "http")
	_, err = GetClientTransport()
	assert.Error(t, err)
	_, err = GetServerTransport()
	assert.Error(t, err)
}
