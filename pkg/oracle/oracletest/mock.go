// Package oracletest provides a testify mock of the signing oracle.
package oracletest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pu0238/vote-me/pkg/derivation"
	"github.com/pu0238/vote-me/pkg/oracle"
)

var _ oracle.Oracle = (*Mock)(nil)

// Mock is a testify mock implementing oracle.Oracle.
type Mock struct {
	mock.Mock
}

func (m *Mock) PublicKey(ctx context.Context, path derivation.Path) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func (m *Mock) Sign(ctx context.Context, path derivation.Path, digest [32]byte) ([]byte, error) {
	args := m.Called(ctx, path, digest)
	sig, _ := args.Get(0).([]byte)
	return sig, args.Error(1)
}
