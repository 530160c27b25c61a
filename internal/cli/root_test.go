package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "storefront", cmd.Use)
	assert.Contains(t, cmd.Long, "STOREFRONT_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"},
		{"categories", "list"}, {"categories", "add"}, {"categories", "rename"}, {"categories", "delete"},
		{"products", "list"}, {"products", "add"}, {"products", "update"}, {"products", "delete"},
		{"products", "search"}, {"products", "filter"},
		{"users", "list"}, {"users", "add"}, {"users", "login"}, {"users", "set-role"},
		{"users", "update"}, {"users", "delete"},
		{"cart", "add"}, {"cart", "set"}, {"cart", "remove"}, {"cart", "show"}, {"cart", "clear"},
		{"checkout"},
		{"orders", "list"}, {"orders", "show"}, {"orders", "status"}, {"orders", "filter"},
		{"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"db", "config", "log-level", "seed", "catalog", "admin-password", "bcrypt-cost"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestProductFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, sub := range []string{"add", "update"} {
		c, _, err := cmd.Find([]string{"products", sub})
		require.NoError(t, err)
		for _, name := range []string{"name", "price", "image", "category"} {
			assert.NotNil(t, c.Flags().Lookup(name), "products %s missing --%s", sub, name)
		}
	}
}

func TestCheckoutFlags(t *testing.T) {
	cmd := NewRootCommand()
	c, _, err := cmd.Find([]string{"checkout"})
	require.NoError(t, err)
	for _, name := range []string{"address", "note", "payment", "token"} {
		assert.NotNil(t, c.Flags().Lookup(name), "checkout missing --%s", name)
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "invalid", "categories", "list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
