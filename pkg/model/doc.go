// Package model defines the records shared by the registry, the token
// service and the voting ledger.
//
// The structs carry GORM tags that map to the tables created by the
// migrations under db/migrations:
//
//   - identities: one row per registered username
//   - votings: one row per voting, holding the pro and cons tallies
//   - voting_voters: the ordered list of usernames that voted
//
// The memory store uses the same types without touching the tags.
package model
