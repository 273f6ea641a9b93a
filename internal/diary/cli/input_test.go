package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  hello world \n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetMultiline_DoubleEnter(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("a\nb\n\n\n"), "Enter text", &out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}

func TestGetMultiline_EOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("only\n"), "Enter text", &out)
	require.NoError(t, err)
	assert.Equal(t, "only", got)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("1234"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out, "Secret code")
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), pw)
	assert.Equal(t, "Secret code: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPassword(&out, "Secret code")
	require.Error(t, err)
}

func TestApp_getSecret_UsesTerminalWhenAvailable(t *testing.T) {
	oldTerm, oldRead := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = oldTerm, oldRead })

	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("from-tty"), nil }

	a, _ := newTestApp(t, "from-reader")
	got, err := a.getSecret("Secret code")
	require.NoError(t, err)
	assert.Equal(t, "from-tty", got)

	isTerminal = func(int) bool { return false }
	got, err = a.getSecret("Secret code")
	require.NoError(t, err)
	assert.Equal(t, "from-reader", got)
}

func TestApp_confirm(t *testing.T) {
	a, _ := newTestApp(t, "YES", "n", "")
	for _, want := range []bool{true, false, false} {
		got, err := a.confirm("Sure?")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
