package codec

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// readBufPool recycles buffers used to slurp stream input.
var readBufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// SerializeWriter renders value as YAML and writes it to w. The
// document is produced fully in memory; only the final write touches
// the stream.
func SerializeWriter(w io.Writer, value any, meta *TypeMeta, opts *Options) error {
	b, err := Serialize(value, meta, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// SerializeContext is SerializeWriter with cancellation. The traversal
// itself is synchronous; ctx is observed at the I/O boundary only.
func SerializeContext(ctx context.Context, w io.Writer, value any, meta *TypeMeta, opts *Options) error {
	b, err := Serialize(value, meta, opts)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// DeserializeReader reads one YAML document from r. The input is
// buffered fully before parsing.
func DeserializeReader(r io.Reader, meta *TypeMeta, opts *Options) (any, error) {
	buf := readBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer readBufPool.Put(buf)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return Deserialize(buf.Bytes(), meta, opts)
}

// DeserializeContext is DeserializeReader with cancellation, observed
// after the input has been buffered and before parsing begins.
func DeserializeContext(ctx context.Context, r io.Reader, meta *TypeMeta, opts *Options) (any, error) {
	buf := readBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer readBufPool.Put(buf)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Deserialize(buf.Bytes(), meta, opts)
}
