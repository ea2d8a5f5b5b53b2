package cmd

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/nota-fiscal-generator/templates"
)

func TestVersionInfo(t *testing.T) {
	out := versionInfo()

	assert.Contains(t, out, "Version:    "+Version)
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, templates.DefaultNFeName+" (embedded)")
}
