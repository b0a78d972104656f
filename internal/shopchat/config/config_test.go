package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)
	require.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	v := newViper()
	v.Set("endpoint_url", "https://shop.example/api/chat/")
	v.Set("request_timeout", "15s")
	v.Set("session_idle_ttl", "1h")
	v.Set("allowed_origins", []string{"https://shop.example"})

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "https://shop.example/api/chat/", cfg.EndpointURL)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Equal(t, time.Hour, cfg.SessionIdleTTL)
	require.Equal(t, []string{"https://shop.example"}, cfg.AllowedOrigins)
}

func TestLoad_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("SHOP_ENDPOINT", "https://env.example/api/chat/")
	t.Setenv("SHOP_SITE", "https://env.example")

	v := newViper()
	v.Set("endpoint_url", "$SHOP_ENDPOINT")
	v.Set("site_url", "${SHOP_SITE}")

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "https://env.example/api/chat/", cfg.EndpointURL)
	require.Equal(t, "https://env.example", cfg.SiteURL)
}

func TestLoad_Validation(t *testing.T) {
	v := newViper()
	v.Set("endpoint_url", "$SHOPCHAT_TEST_UNSET_VARIABLE")
	_, err := Load(v)
	require.Error(t, err)
	require.Contains(t, err.Error(), "endpoint URL is not configured")

	v = newViper()
	v.Set("request_timeout", "-1s")
	_, err = Load(v)
	require.Error(t, err)
	require.Contains(t, err.Error(), "request_timeout")
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("SHOPCHAT_TEST_VALUE", "hello")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "literal", input: "plain", want: "plain"},
		{name: "dollar", input: "$SHOPCHAT_TEST_VALUE", want: "hello"},
		{name: "braces", input: "${SHOPCHAT_TEST_VALUE}", want: "hello"},
		{name: "unset", input: "$SHOPCHAT_TEST_UNSET_VARIABLE", want: ""},
		{name: "empty name", input: "$", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVar(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePath(t *testing.T) {
	v := viper.New()

	abs, err := ResolvePath(v, "/srv/static")
	require.NoError(t, err)
	require.Equal(t, "/srv/static", abs)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := ResolvePath(v, "static")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(cwd, "static"), rel)

	v.SetConfigFile("/etc/shopchat/config.toml")
	fromConfig, err := ResolvePath(v, "static")
	require.NoError(t, err)
	require.Equal(t, "/etc/shopchat/static", fromConfig)
}

func TestFileValues_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	want := NewDefaultConfig()
	want.RequestTimeout = 20 * time.Second

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, toml.NewEncoder(f).Encode(want.FileValues()))
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), `request_timeout = "20s"`))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	got, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
