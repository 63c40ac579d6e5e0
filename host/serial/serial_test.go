package serial

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trickleWriter accepts at most n bytes per call
type trickleWriter struct {
	n   int
	buf bytes.Buffer
}

func (w *trickleWriter) Write(b []byte) (int, error) {
	if len(b) > w.n {
		b = b[:w.n]
	}
	return w.buf.Write(b)
}

type stuckWriter struct{}

func (stuckWriter) Write([]byte) (int, error) { return 0, nil }

func TestWriteFullRetriesShortWrites(t *testing.T) {
	w := &trickleWriter{n: 3}
	data := []byte("0123456789")

	require.NoError(t, WriteFull(w, data))
	assert.Equal(t, data, w.buf.Bytes())
}

func TestWriteFullStuckWriter(t *testing.T) {
	assert.ErrorIs(t, WriteFull(stuckWriter{}, []byte{1}), io.ErrShortWrite)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultBaud, cfg.Baud)

	assert.ErrorIs(t, DefaultConfig("").Validate(), ErrNoDevice)

	cfg.Baud = 0
	assert.Error(t, cfg.Validate())

	_, err := Open(nil)
	assert.Error(t, err)
}
