package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDecode(t *testing.T) {
	cases := map[string]struct {
		input       string
		expected    Config
		expectedErr bool
	}{
		"Empty": {
			input:    "",
			expected: Default(),
		},
		"Full": {
			input: `
mode: values
start: seed
terminal: location
workers: 4
coalesce: false
logLevel: debug
`,
			expected: Config{
				Mode:     ModeValues,
				Start:    "seed",
				Terminal: "location",
				Workers:  4,
				Coalesce: false,
				LogLevel: "debug",
			},
		},
		"Partial": {
			input: "workers: 2\n",
			expected: Config{
				Mode:     ModeRanges,
				Workers:  2,
				Coalesce: true,
				LogLevel: "info",
			},
		},
		"ErrorMode": {
			input:       "mode: both\n",
			expectedErr: true,
		},
		"ErrorWorkers": {
			input:       "workers: -1\n",
			expectedErr: true,
		},
		"ErrorLevel": {
			input:       "logLevel: loud\n",
			expectedErr: true,
		},
		"ErrorUnknownKey": {
			input:       "mdoe: values\n",
			expectedErr: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := Decode(strings.NewReader(tc.input))
			if tc.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, c)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "almanac.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: values\nlogLevel: warn\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeValues, c.Mode)
	l, err := c.Level()
	assert.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, l)
	assert.Contains(t, c.String(), "mode: values")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
