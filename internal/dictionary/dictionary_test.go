package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_CaseAndWhitespaceInsensitive(t *testing.T) {
	d := New("hello")

	inputs := []string{" hello ", "HELLO", "Hello", "\thElLo\n"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			res, err := d.Validate(in)
			require.NoError(t, err)
			assert.Equal(t, Result{Valid: true, Word: "HELLO"}, res)
		})
	}
}

func TestValidate_EmptyInput(t *testing.T) {
	d := New("hello")

	for _, in := range []string{"", "   ", "\n\t"} {
		res, err := d.Validate(in)
		assert.True(t, errors.Is(err, ErrInvalidInput))
		assert.Equal(t, Result{}, res)
	}
}

func TestValidate_UnknownWord(t *testing.T) {
	d := New("cat", "dog")

	res, err := d.Validate("zebra")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "ZEBRA", res.Word)
}

func TestLoad_RoundTrip(t *testing.T) {
	content := "aa\n  Quixotic \nZYZZYVA\r\n\n   \nqi\n"
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())

	for _, w := range []string{"aa", "quixotic", "zyzzyva", "QI"} {
		res, err := d.Validate(w)
		require.NoError(t, err)
		assert.True(t, res.Valid, w)
	}
	for _, w := range []string{"zz", "quixote", "q"} {
		res, err := d.Validate(w)
		require.NoError(t, err)
		assert.False(t, res.Valid, w)
	}
}

func TestLoad_MissingFileFailsOpen(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 0, d.Len())

	res, err := d.Validate("hello")
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestLoad_DirectoryIsAnError(t *testing.T) {
	d, err := Load(t.TempDir())
	assert.Nil(t, d)
	assert.Error(t, err)
}

func TestRead_FromReader(t *testing.T) {
	d, err := Read(strings.NewReader("one\ntwo\nONE\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.True(t, d.Contains(" two"))
}

func TestValidate_ConcurrentReaders(t *testing.T) {
	d := New("alpha", "beta", "gamma")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				res, err := d.Validate("Beta")
				assert.NoError(t, err)
				assert.True(t, res.Valid)
			}
		}()
	}
	wg.Wait()
}
