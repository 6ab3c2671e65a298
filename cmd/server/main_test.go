package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "sweep", "hash-password"}, names)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestHashPassword(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		out, err := execute(t, "", "hash-password", "--cost", "4", "correct horse")
		require.NoError(t, err)

		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, 4, cost)
	})

	t.Run("from stdin", func(t *testing.T) {
		out, err := execute(t, "battery staple\n", "hash-password", "--cost", "4")
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("battery staple")))
	})

	t.Run("empty stdin", func(t *testing.T) {
		_, err := execute(t, "", "hash-password")
		assert.EqualError(t, err, "password must not be empty")
	})
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	_, err := execute(t, "", "migrate", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}

func TestCommandsFailOnInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	// A missing database URL and JWT secret fail validation.
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	for _, name := range []string{"serve", "sweep", "migrate"} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, "", name, "--config", path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to load configuration")
		})
	}
}
