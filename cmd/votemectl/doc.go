// Command votemectl runs the VoteMe server.
//
// VoteMe registers users against keys held by a signing oracle, issues
// bearer tokens signed by those keys, and keeps a small voting ledger
// whose mutations are gated by token role.
//
// # Quick Start
//
//	# Generate a seed for the in-process oracle
//	export VOTEME_ORACLE_SEED=$(votemectl oracle seed generate)
//
//	# Start the server with the memory store
//	votemectl server
//
//	# Or with Postgres
//	export DATABASE_URL=postgres://...
//	VOTEME_STORE=postgres votemectl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - VOTEME_ORACLE_SEED: Base64-encoded master seed of the local oracle
//   - VOTEME_CONFIG_PATH: Directory holding voteme.yml
//   - VOTEME_LOG_LEVEL: debug enables SQL logging
//   - PORT: Server port (default: 8000)
package main
