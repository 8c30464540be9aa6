package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv_PrefersLoadedFile(t *testing.T) {
	Env = map[string]string{"SCREENER_TEST_KEY": "from-file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("SCREENER_TEST_KEY", "from-os")

	assert.Equal(t, "from-file", GetEnv("SCREENER_TEST_KEY", "def"))
}

func TestGetEnv_FallsBackToOSAndDefault(t *testing.T) {
	Env = nil
	t.Setenv("SCREENER_TEST_OS", "from-os")

	assert.Equal(t, "from-os", GetEnv("SCREENER_TEST_OS", "def"))
	assert.Equal(t, "def", GetEnv("SCREENER_TEST_MISSING", "def"))
}

func TestTypedGetters(t *testing.T) {
	Env = map[string]string{
		"N":     "42",
		"BAD":   "forty",
		"BIG":   "10485760",
		"FLAG":  "yes",
		"FLAG2": "off",
	}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, 42, GetEnvInt("N", 1))
	assert.Equal(t, 1, GetEnvInt("BAD", 1))
	assert.Equal(t, int64(10485760), GetEnvInt64("BIG", 0))
	assert.True(t, GetEnvBool("FLAG", false))
	assert.False(t, GetEnvBool("FLAG2", true))
	assert.True(t, GetEnvBool("MISSING", true))
}
