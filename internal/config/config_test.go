package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"GSTCTL_API_URL", "GSTCTL_MAX_FILE_BYTES", "GSTCTL_ALLOWED_EXTENSIONS",
		"GSTCTL_POLL_INTERVAL", "GSTCTL_TOKEN_PATH", "GSTCTL_HTTP_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.APIURL)
	require.EqualValues(t, 50<<20, cfg.MaxFileSize)
	require.Equal(t, []string{"xlsx", "xls", "xlsb", "csv"}, cfg.AllowedExtensions)
	require.Equal(t, 2*time.Second, cfg.PollInterval)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.NotEmpty(t, cfg.TokenPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GSTCTL_API_URL", "https://gst.example.com/")
	t.Setenv("GSTCTL_MAX_FILE_BYTES", "1048576")
	t.Setenv("GSTCTL_ALLOWED_EXTENSIONS", " XLSX , Csv ")
	t.Setenv("GSTCTL_POLL_INTERVAL", "500ms")
	t.Setenv("GSTCTL_TOKEN_PATH", "/tmp/gstctl-token")
	t.Setenv("GSTCTL_HTTP_TIMEOUT", "10s")

	cfg, err := Load()
	require.NoError(t, err)
	// Trailing slash is trimmed so path joins never double up.
	require.Equal(t, "https://gst.example.com", cfg.APIURL)
	require.EqualValues(t, 1<<20, cfg.MaxFileSize)
	require.Equal(t, []string{"xlsx", "csv"}, cfg.AllowedExtensions)
	require.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	require.Equal(t, "/tmp/gstctl-token", cfg.TokenPath)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
}

func TestLoadIgnoresGarbageValues(t *testing.T) {
	t.Setenv("GSTCTL_MAX_FILE_BYTES", "lots")
	t.Setenv("GSTCTL_POLL_INTERVAL", "-3s")
	t.Setenv("GSTCTL_HTTP_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	require.EqualValues(t, 50<<20, cfg.MaxFileSize)
	require.Equal(t, 2*time.Second, cfg.PollInterval)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestAllowedExtension(t *testing.T) {
	cfg := &Config{AllowedExtensions: []string{"xlsx", "xls", "xlsb", "csv"}}

	cases := []struct {
		ext  string
		want bool
	}{
		{".xlsx", true},
		{"xlsx", true},
		{".XLSB", true},
		{"Csv", true},
		{".pdf", false},
		{"", false},
		{".xlsx.exe", false},
	}
	for _, tc := range cases {
		if got := cfg.AllowedExtension(tc.ext); got != tc.want {
			t.Fatalf("AllowedExtension(%q) = %v, want %v", tc.ext, got, tc.want)
		}
	}
}
