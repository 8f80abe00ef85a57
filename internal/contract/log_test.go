package contract

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { _ = ConfigureLogging("info", "text") })

	assert.NoError(t, ConfigureLogging("debug", "json"))
	assert.Equal(t, logrus.DebugLevel, Logger().GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, Logger().Formatter)

	assert.NoError(t, ConfigureLogging("", "TEXT"))
	assert.IsType(t, &logrus.TextFormatter{}, Logger().Formatter)

	assert.Error(t, ConfigureLogging("loud", "text"))
	assert.Error(t, ConfigureLogging("info", "xml"))
}

func TestLogWarn(t *testing.T) {
	var buf bytes.Buffer
	Logger().SetOutput(&buf)
	t.Cleanup(func() { Logger().SetOutput(os.Stderr) })

	LogWarn("store close failed", assert.AnError)
	out := buf.String()
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "store close failed")
	assert.Contains(t, out, assert.AnError.Error())
}
