package config

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pu0238/vote-me/pkg/oracle"
)

const (
	DefaultConfigPath = "/etc/voteme/config"
	ConfigFileName    = "voteme.yml"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// DefaultSignFee is the number of cycles attached to every sign request.
const DefaultSignFee uint64 = 10_000_000_000

// VoteMeConfig holds all VoteMe configuration settings
type VoteMeConfig struct {
	// AppName is the first component of every derivation path
	AppName string `yaml:"app_name" json:"app_name"`

	// Network selects the oracle master key (regtest, testnet, mainnet)
	Network string `yaml:"network" json:"network"`

	// TokenTTL is the lifetime of issued tokens in seconds
	TokenTTL int `yaml:"token_ttl" json:"token_ttl"`

	// TrustedProxies is a list of CIDR ranges allowed to set CallerHeader
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// CallerHeader carries the caller id set by a trusted proxy
	CallerHeader string `yaml:"caller_header" json:"caller_header"`

	// CallerJWKSURI enables JWT caller assertions verified against this JWKS
	CallerJWKSURI string `yaml:"caller_jwks_uri" json:"caller_jwks_uri"`

	// CallerJWTIssuer is the required iss claim of caller assertions
	CallerJWTIssuer string `yaml:"caller_jwt_issuer" json:"caller_jwt_issuer"`

	// OracleURL is the remote oracle; empty runs the oracle in process
	OracleURL string `yaml:"oracle_url" json:"oracle_url"`

	// OracleTimeout bounds each oracle call, in seconds
	OracleTimeout int `yaml:"oracle_timeout" json:"oracle_timeout"`

	// SignFee is the cycles attached to each sign request
	SignFee uint64 `yaml:"sign_fee" json:"sign_fee"`

	// Store selects the storage backend (memory or postgres)
	Store string `yaml:"store" json:"store"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *VoteMeConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *VoteMeConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

func newDefault() *VoteMeConfig {
	return &VoteMeConfig{
		AppName:        "VoteMe",
		Network:        oracle.NetworkRegtest.String(),
		TokenTTL:       600,
		TrustedProxies: []string{},
		CallerHeader:   "X-Caller-Id",
		OracleTimeout:  30,
		SignFee:        DefaultSignFee,
		Store:          StoreMemory,
		sources:        make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*VoteMeConfig, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("VOTEME_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig VoteMeConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"app_name", "network", "token_ttl", "trusted_proxies",
		"caller_header", "caller_jwks_uri", "caller_jwt_issuer",
		"oracle_url", "oracle_timeout", "sign_fee", "store",
	}
}

func (c *VoteMeConfig) applyFileConfig(file *VoteMeConfig) {
	if file.AppName != "" {
		c.AppName = file.AppName
		c.sources["app_name"] = "file"
	}
	if file.Network != "" {
		c.Network = file.Network
		c.sources["network"] = "file"
	}
	if file.TokenTTL != 0 {
		c.TokenTTL = file.TokenTTL
		c.sources["token_ttl"] = "file"
	}
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
	if file.CallerHeader != "" {
		c.CallerHeader = file.CallerHeader
		c.sources["caller_header"] = "file"
	}
	if file.CallerJWKSURI != "" {
		c.CallerJWKSURI = file.CallerJWKSURI
		c.sources["caller_jwks_uri"] = "file"
	}
	if file.CallerJWTIssuer != "" {
		c.CallerJWTIssuer = file.CallerJWTIssuer
		c.sources["caller_jwt_issuer"] = "file"
	}
	if file.OracleURL != "" {
		c.OracleURL = file.OracleURL
		c.sources["oracle_url"] = "file"
	}
	if file.OracleTimeout != 0 {
		c.OracleTimeout = file.OracleTimeout
		c.sources["oracle_timeout"] = "file"
	}
	if file.SignFee != 0 {
		c.SignFee = file.SignFee
		c.sources["sign_fee"] = "file"
	}
	if file.Store != "" {
		c.Store = file.Store
		c.sources["store"] = "file"
	}
}

func (c *VoteMeConfig) applyEnvConfig() {
	if val := os.Getenv("VOTEME_APP_NAME"); val != "" {
		c.AppName = val
		c.sources["app_name"] = "environment"
	}
	if val := os.Getenv("VOTEME_NETWORK"); val != "" {
		c.Network = val
		c.sources["network"] = "environment"
	}
	if val := os.Getenv("VOTEME_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.TokenTTL = i
			c.sources["token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("VOTEME_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
	if val := os.Getenv("VOTEME_CALLER_HEADER"); val != "" {
		c.CallerHeader = val
		c.sources["caller_header"] = "environment"
	}
	if val := os.Getenv("VOTEME_CALLER_JWKS_URI"); val != "" {
		c.CallerJWKSURI = val
		c.sources["caller_jwks_uri"] = "environment"
	}
	if val := os.Getenv("VOTEME_CALLER_JWT_ISSUER"); val != "" {
		c.CallerJWTIssuer = val
		c.sources["caller_jwt_issuer"] = "environment"
	}
	if val := os.Getenv("VOTEME_ORACLE_URL"); val != "" {
		c.OracleURL = val
		c.sources["oracle_url"] = "environment"
	}
	if val := os.Getenv("VOTEME_ORACLE_TIMEOUT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.OracleTimeout = i
			c.sources["oracle_timeout"] = "environment"
		}
	}
	if val := os.Getenv("VOTEME_SIGN_FEE"); val != "" {
		if i, err := strconv.ParseUint(val, 10, 64); err == nil {
			c.SignFee = i
			c.sources["sign_fee"] = "environment"
		}
	}
	if val := os.Getenv("VOTEME_STORE"); val != "" {
		c.Store = val
		c.sources["store"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *VoteMeConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *VoteMeConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// TokenLifetime returns the token TTL as a duration
func (c *VoteMeConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenTTL) * time.Second
}

// OracleCallTimeout returns the oracle timeout as a duration
func (c *VoteMeConfig) OracleCallTimeout() time.Duration {
	return time.Duration(c.OracleTimeout) * time.Second
}

// OracleNetwork returns the configured network
func (c *VoteMeConfig) OracleNetwork() (oracle.Network, error) {
	n, err := oracle.NetworkString(c.Network)
	if err != nil {
		return 0, fmt.Errorf("invalid network: %s", c.Network)
	}
	return n, nil
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *VoteMeConfig) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Try as plain IP
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *VoteMeConfig) Validate() error {
	if c.AppName == "" {
		return fmt.Errorf("app_name must not be empty")
	}
	if _, err := c.OracleNetwork(); err != nil {
		return err
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive: %d", c.TokenTTL)
	}
	if c.OracleTimeout <= 0 {
		return fmt.Errorf("oracle_timeout must be positive: %d", c.OracleTimeout)
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}

	for name, raw := range map[string]string{"oracle_url": c.OracleURL, "caller_jwks_uri": c.CallerJWKSURI} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s value: %s", name, raw)
		}
	}

	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("invalid store: %s", c.Store)
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *VoteMeConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "app_name", Value: c.AppName, Source: c.Source("app_name")},
		{Name: "network", Value: c.Network, Source: c.Source("network")},
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTL), Source: c.Source("token_ttl")},
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "caller_header", Value: c.CallerHeader, Source: c.Source("caller_header")},
		{Name: "caller_jwks_uri", Value: c.CallerJWKSURI, Source: c.Source("caller_jwks_uri")},
		{Name: "caller_jwt_issuer", Value: c.CallerJWTIssuer, Source: c.Source("caller_jwt_issuer")},
		{Name: "oracle_url", Value: c.OracleURL, Source: c.Source("oracle_url")},
		{Name: "oracle_timeout", Value: strconv.Itoa(c.OracleTimeout), Source: c.Source("oracle_timeout")},
		{Name: "sign_fee", Value: strconv.FormatUint(c.SignFee, 10), Source: c.Source("sign_fee")},
		{Name: "store", Value: c.Store, Source: c.Source("store")},
	}
}

// FormatText returns a text representation of the configuration
func (c *VoteMeConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *VoteMeConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
