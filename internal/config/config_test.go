package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: "9090"
shareasale:
  affiliate_id: 1234
  api_token: tok
  api_secret_key: sekrit
quota:
  monthly_limit: 200
tenants:
  - id: reporting
    name: Reporting
    api_key: sk-reporting
    rate_limit:
      qps: 2
      burst: 4
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, int64(1234), cfg.ShareASale.AffiliateID)
	assert.Equal(t, "tok", cfg.ShareASale.APIToken)
	assert.Equal(t, 200, cfg.Quota.MonthlyLimit)
	require.Len(t, cfg.Tenants, 1)
	assert.Equal(t, "sk-reporting", cfg.Tenants[0].APIKey)
	require.NotNil(t, cfg.Tenants[0].RateLimit.QPS)
	assert.Equal(t, 2.0, *cfg.Tenants[0].RateLimit.QPS)

	// defaults
	assert.Equal(t, 2.3, cfg.ShareASale.APIVersion)
	assert.Equal(t, "https://shareasale.com/x.cfm", cfg.ShareASale.BaseURL)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 1000, cfg.Audit.BufferSize)
	assert.NoError(t, cfg.Validate())
}

func TestExplicitZeroQPSIsKept(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `
tenants:
  - id: batch
    api_key: sk-batch
    rate_limit:
      qps: 0
  - id: bi
    api_key: sk-bi
`))
	require.NoError(t, err)
	require.Len(t, cfg.Tenants, 2)
	require.NotNil(t, cfg.Tenants[0].RateLimit.QPS)
	assert.Equal(t, 0.0, *cfg.Tenants[0].RateLimit.QPS)
	assert.Nil(t, cfg.Tenants[1].RateLimit.QPS)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SASGATE_SHAREASALE_API_SECRET_KEY", "from-env")
	t.Setenv("SASGATE_SERVER_PORT", "7070")

	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.ShareASale.APISecretKey)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{ShareASale: ShareASaleConfig{
			AffiliateID: 1, APIToken: "t", APISecretKey: "s", APIVersion: 2.3,
		}}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"affiliate": func(c *Config) { c.ShareASale.AffiliateID = 0 },
		"token":     func(c *Config) { c.ShareASale.APIToken = " " },
		"secret":    func(c *Config) { c.ShareASale.APISecretKey = "" },
		"version":   func(c *Config) { c.ShareASale.APIVersion = 0 },
		"quota":     func(c *Config) { c.Quota.MonthlyLimit = -1 },
		"tenant id": func(c *Config) { c.Tenants = []TenantConfig{{APIKey: "k"}} },
		"negative qps": func(c *Config) {
			qps := -1.0
			c.Tenants = []TenantConfig{{ID: "a", APIKey: "k", RateLimit: RateLimitConfig{QPS: &qps}}}
		},
		"dup key": func(c *Config) {
			c.Tenants = []TenantConfig{{ID: "a", APIKey: "k"}, {ID: "b", APIKey: "k"}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
