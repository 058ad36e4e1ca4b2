package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeoutSettingsDefaults(t *testing.T) {
	t.Parallel()

	ts := NewTimeoutSettings(nil)
	assert.Equal(t, DefaultTimeout, ts.timeout())
	assert.Equal(t, DefaultTimeout, ts.navigationTimeout())
}

func TestTimeoutSettingsOverrides(t *testing.T) {
	t.Parallel()

	ts := NewTimeoutSettings(nil)
	ts.setDefaultTimeout(5 * time.Second)
	assert.Equal(t, 5*time.Second, ts.timeout())
	// Navigation falls back to the general timeout when unset.
	assert.Equal(t, 5*time.Second, ts.navigationTimeout())

	ts.setDefaultNavigationTimeout(10 * time.Second)
	assert.Equal(t, 10*time.Second, ts.navigationTimeout())
	assert.Equal(t, 5*time.Second, ts.timeout())
}

func TestTimeoutSettingsParentFallback(t *testing.T) {
	t.Parallel()

	parent := NewTimeoutSettings(nil)
	parent.setDefaultTimeout(7 * time.Second)

	child := NewTimeoutSettings(parent)
	assert.Equal(t, 7*time.Second, child.timeout())
	assert.Equal(t, 7*time.Second, child.navigationTimeout())

	child.setDefaultTimeout(3 * time.Second)
	assert.Equal(t, 3*time.Second, child.timeout())
	assert.Equal(t, 7*time.Second, parent.timeout())
}
