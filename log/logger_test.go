package log

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullLoggerDiscards(t *testing.T) {
	t.Parallel()

	l := NewNullLogger()
	l.Infof("cat", "dropped %d", 1)
	l.Errorf("cat", "dropped too")
}

func TestLoggerCategoryFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetLevel(logrus.DebugLevel)

	l := New(base, false, regexp.MustCompile("^Page:"))
	l.Debugf("Page:didClose", "kept")
	l.Debugf("Route:dispatch", "filtered")

	out := buf.String()
	assert.Contains(t, out, "kept")
	assert.NotContains(t, out, "filtered")
}

func TestLoggerSetLevel(t *testing.T) {
	t.Parallel()

	l := NewNullLogger()
	require.NoError(t, l.SetLevel("debug"))
	assert.True(t, l.DebugMode())

	require.Error(t, l.SetLevel("bogus"))
}

func TestLoggerSetCategoryFilter(t *testing.T) {
	t.Parallel()

	l := NewNullLogger()
	require.NoError(t, l.SetCategoryFilter(""))
	require.NoError(t, l.SetCategoryFilter("^Frame:"))
	require.Error(t, l.SetCategoryFilter("["))
}

func TestLoggerDebugOverride(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetLevel(logrus.InfoLevel)

	l := New(base, true, nil)
	l.Debugf("cat", "forced through")
	assert.Contains(t, buf.String(), "forced through")
}
