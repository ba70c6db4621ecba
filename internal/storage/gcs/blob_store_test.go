package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	bytes.Buffer
	closed   bool
	closeErr error
	writeErr error
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	if w.writeErr != nil {
		return 0, w.writeErr
	}
	return w.Buffer.Write(p)
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return w.closeErr
}

type openCall struct {
	bucket, path, contentType string
}

func factory(w *fakeWriter, calls *[]openCall) WriterFactory {
	return func(_ context.Context, bucket, path, contentType string) io.WriteCloser {
		*calls = append(*calls, openCall{bucket, path, contentType})
		return w
	}
}

func TestPutObjectUploads(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	var calls []openCall
	store, err := NewWithWriters(factory(w, &calls), Config{Bucket: "site-bucket"})
	require.NoError(t, err)

	uri, err := store.PutObject(context.Background(), "abc.txt", "text/plain; charset=utf-8", strings.NewReader("abc\n"))
	require.NoError(t, err)
	require.Equal(t, "gs://site-bucket/abc.txt", uri)
	require.Equal(t, []openCall{{"site-bucket", "abc.txt", "text/plain; charset=utf-8"}}, calls)
	require.Equal(t, "abc\n", w.String())
	require.True(t, w.closed)
}

func TestPutObjectWriteFailureClosesWriter(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{writeErr: errors.New("boom")}
	var calls []openCall
	store, err := NewWithWriters(factory(w, &calls), Config{Bucket: "b"})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "k.txt", "", strings.NewReader("k\n"))
	require.ErrorContains(t, err, "copy object")
	require.True(t, w.closed)
}

func TestPutObjectCloseFailure(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{closeErr: errors.New("precondition failed")}
	var calls []openCall
	store, err := NewWithWriters(factory(w, &calls), Config{Bucket: "b"})
	require.NoError(t, err)

	_, err = store.PutObject(context.Background(), "k.txt", "", strings.NewReader("k\n"))
	require.ErrorContains(t, err, "close writer")
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)
	_, err = NewWithWriters(nil, Config{Bucket: "b"})
	require.Error(t, err)
	var calls []openCall
	_, err = NewWithWriters(factory(&fakeWriter{}, &calls), Config{})
	require.ErrorContains(t, err, "bucket name is required")

	store, err := NewWithWriters(factory(&fakeWriter{}, &calls), Config{Bucket: "b"})
	require.NoError(t, err)
	_, err = store.PutObject(context.Background(), " ", "", strings.NewReader(""))
	require.ErrorContains(t, err, "path is required")
}
