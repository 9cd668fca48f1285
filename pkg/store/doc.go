// Package store defines the storage interfaces behind the identity
// registry and the voting ledger.
//
// Every method is atomic with respect to every other method of the same
// store. Implementations live in sub-packages:
//
//   - store/memory keeps everything in process behind one mutex
//   - store/gorm keeps everything in PostgreSQL
//
// Registration is two phase. StageIdentity reserves the username and fixes
// its role in one atomic step; the identity stays invisible to
// FetchIdentity until CommitIdentity is called. DiscardIdentity drops a
// staged identity that will not be committed.
package store
