package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	// Register should be safe to call multiple times.
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("/api/appointments")
		IncCreated("platform_job")
		IncCreated("external")
		IncConflict()
		IncExport("google")
		IncExport("ics")
		IncExport("xlsx")
	})
}
