package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		Logger.SetLevel(logrus.InfoLevel)
	})

	SetLevel("warn")
	Logger.Info("hidden")
	Logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	SetLevel("")
	SetLevel("loud")
	assert.Equal(t, logrus.WarnLevel, Logger.GetLevel())
}
