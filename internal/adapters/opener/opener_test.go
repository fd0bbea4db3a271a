package opener

import (
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RejectsMissingPath(t *testing.T) {
	o := NewOpener("true")

	assert.Error(t, o.Open(""))
	assert.Error(t, o.Open(filepath.Join(t.TempDir(), "missing")))
}

func TestFind_Priority(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(EnvOpener, "from-env")
	program, args := NewOpener("from-flag").find(dir)
	assert.Equal(t, "from-flag", program)
	assert.Equal(t, []string{dir}, args)

	program, _ = NewOpener("").find(dir)
	assert.Equal(t, "from-env", program)
}

func TestOpen_StartsProgram(t *testing.T) {
	program, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true is not available")
	}
	o := NewOpener(program)

	require.NoError(t, o.Open(t.TempDir()))
}
