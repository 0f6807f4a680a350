package scenarios

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		c, err := Load(f)
		require.NoError(t, err, f)
		t.Run(c.Name, func(t *testing.T) {
			RunCase(t, c)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
}
