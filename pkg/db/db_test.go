package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestConnectRequiresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Connect(Config{})
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLogMode(t *testing.T) {
	t.Setenv("VOTEME_LOG_LEVEL", "")
	assert.Equal(t, logger.Silent, LogMode())

	t.Setenv("VOTEME_LOG_LEVEL", "debug")
	assert.Equal(t, logger.Info, LogMode())
}
