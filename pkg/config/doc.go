// Package config provides configuration management for VoteMe.
//
// Configuration is read from voteme.yml under VOTEME_CONFIG_PATH
// (default /etc/voteme/config) and overridden by VOTEME_* environment
// variables. Every attribute remembers whether its value came from the
// default, the file or the environment.
//
// # Key Configuration Options
//
//   - VOTEME_NETWORK: oracle key set (regtest, testnet, mainnet)
//   - VOTEME_TRUSTED_PROXIES: proxies allowed to set the caller header
//   - VOTEME_ORACLE_URL: remote signing oracle
//   - VOTEME_STORE: memory or postgres
//
// Secrets are read from the environment only: VOTEME_ORACLE_SEED and
// DATABASE_URL.
package config
