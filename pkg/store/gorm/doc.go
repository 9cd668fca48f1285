// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// All statements are raw SQL against the schema in db/migrations. Staging
// an identity takes a SHARE ROW EXCLUSIVE lock on identities so the
// emptiness check and the insert cannot interleave with another
// registration.
package gorm
