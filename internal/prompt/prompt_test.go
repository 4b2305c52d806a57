package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Yes\n", true},
		{"  yep\n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"y", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			out := &bytes.Buffer{}
			p := NewTerminalIO(strings.NewReader(tt.input), out)

			got, err := p.Confirm("Generate key root_ca.key?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Generate key root_ca.key? (y/N): ", out.String())
		})
	}

	t.Run("closed input returns error", func(t *testing.T) {
		p := NewTerminalIO(strings.NewReader(""), &bytes.Buffer{})

		_, err := p.Confirm("Continue?")
		require.Error(t, err)
	})
}

func TestTerminal_AskSecret(t *testing.T) {
	t.Run("reads a line when not a terminal", func(t *testing.T) {
		out := &bytes.Buffer{}
		p := NewTerminalIO(strings.NewReader("s3cret\nsecond\n"), out)

		secret, err := p.AskSecret("Passphrase: ")
		require.NoError(t, err)
		assert.Equal(t, "s3cret", secret)
		assert.Equal(t, "Passphrase: ", out.String())

		secret, err = p.AskSecret("Confirm passphrase: ")
		require.NoError(t, err)
		assert.Equal(t, "second", secret)
	})

	t.Run("empty line is an empty secret", func(t *testing.T) {
		p := NewTerminalIO(strings.NewReader("\n"), &bytes.Buffer{})

		secret, err := p.AskSecret("Passphrase: ")
		require.NoError(t, err)
		assert.Empty(t, secret)
	})
}

func TestAssumeYes(t *testing.T) {
	var p Prompter = AssumeYes{}

	ok, err := p.Confirm("anything?")
	require.NoError(t, err)
	assert.True(t, ok)

	secret, err := p.AskSecret("Passphrase: ")
	require.NoError(t, err)
	assert.Empty(t, secret)
}

func TestScripted(t *testing.T) {
	p := NewScripted(true, false).WithSecrets("one")

	ok, err := p.Confirm("first?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm("second?")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.Confirm("third?")
	require.ErrorIs(t, err, ErrScriptExhausted)

	secret, err := p.AskSecret("pass: ")
	require.NoError(t, err)
	assert.Equal(t, "one", secret)

	_, err = p.AskSecret("pass: ")
	require.ErrorIs(t, err, ErrScriptExhausted)

	assert.Equal(t, []string{"first?", "second?", "third?"}, p.Questions())
	assert.Equal(t, []string{"pass: ", "pass: "}, p.SecretPrompts())
}
