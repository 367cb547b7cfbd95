package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	cmd := newRootCmd("1.2.3")

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate"}, names)

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	flag := serve.Flags().Lookup("skip-migrations")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestVersionFlag(t *testing.T) {
	cmd := newRootCmd("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "1.2.3")
}
