package logger

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/private-chef-marketplace/internal/config"
)

func TestSetupFallsBackToInfo(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	closer := Setup(config.LogConfig{Level: "loud"})

	assert.Nil(t, closer)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestSetupWithFile(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	path := filepath.Join(t.TempDir(), "app.log")

	closer := Setup(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1})
	require.NotNil(t, closer)
	defer closer.Close()

	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}
