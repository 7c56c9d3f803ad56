package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/umafamily/affinity/internal/build"
)

func TestVersionCommand(t *testing.T) {
	root := NewRootCommand()
	root.AddCommand(NewVersionCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "affinity version "+build.Version)
}
