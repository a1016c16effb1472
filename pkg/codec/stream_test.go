package codec

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeWriter(t *testing.T) {
	var buf bytes.Buffer
	err := SerializeWriter(&buf, &testPerson{Name: "Ada", Age: 1}, newPersonMeta(), NewOptions())
	require.NoError(t, err)
	assert.Equal(t, "name: Ada\nage: 1\ntags: []\n", buf.String(), "nil collections normalize to empty")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("sink closed") }

func TestSerializeWriter_SinkError(t *testing.T) {
	err := SerializeWriter(failingWriter{}, &testPerson{Name: "Ada"}, newPersonMeta(), NewOptions())
	require.EqualError(t, err, "sink closed")
}

func TestDeserializeReader(t *testing.T) {
	got, err := DeserializeReader(strings.NewReader("name: Ada\nage: 2\n"), newPersonMeta(), NewOptions())
	require.NoError(t, err)
	assert.Equal(t, &testPerson{Name: "Ada", Age: 2}, got)
}

func TestSerializeContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := SerializeContext(ctx, &buf, &testPerson{Name: "Ada"}, newPersonMeta(), NewOptions())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len(), "nothing may reach the sink after cancellation")
}

func TestDeserializeContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DeserializeContext(ctx, strings.NewReader("name: Ada\n"), newPersonMeta(), NewOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestDeserializeContext_Live(t *testing.T) {
	got, err := DeserializeContext(context.Background(), strings.NewReader("name: Ada\n"), newPersonMeta(), NewOptions())
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.(*testPerson).Name)
}
