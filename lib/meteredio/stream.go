// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package meteredio

import "io"

// Reader instruments an io.Reader.
type Reader struct {
	recorder Recorder
	reader   io.Reader
}

// NewReader wraps reader.
func NewReader(recorder Recorder, reader io.Reader) *Reader {
	return &Reader{recorder: recorder, reader: reader}
}

// Read calls the wrapped Read.
func (r *Reader) Read(p []byte) (n int, err error) {
	r.recorder.OperationPending()
	defer r.recorder.OperationComplete()

	n, err = r.reader.Read(p)
	observeRead(r.recorder, n, err)
	return n, err
}

// Writer instruments an io.Writer.
type Writer struct {
	recorder Recorder
	writer   io.Writer
}

// NewWriter wraps writer.
func NewWriter(recorder Recorder, writer io.Writer) *Writer {
	return &Writer{recorder: recorder, writer: writer}
}

// Write calls the wrapped Write.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.recorder.OperationPending()
	defer w.recorder.OperationComplete()

	n, err = w.writer.Write(p)
	observeWrite(w.recorder, n, err)
	return n, err
}

// WriteString calls the wrapped WriteString if there is one, otherwise
// the wrapped Write. Either way it records one observation.
func (w *Writer) WriteString(s string) (n int, err error) {
	w.recorder.OperationPending()
	defer w.recorder.OperationComplete()

	if stringWriter, ok := w.writer.(io.StringWriter); ok {
		n, err = stringWriter.WriteString(s)
	} else {
		n, err = w.writer.Write([]byte(s))
	}
	observeWrite(w.recorder, n, err)
	return n, err
}

// ReadCloser instruments an io.ReadCloser.
type ReadCloser struct {
	Reader
	closer io.Closer
}

// NewReadCloser wraps readCloser.
func NewReadCloser(recorder Recorder, readCloser io.ReadCloser) *ReadCloser {
	return &ReadCloser{
		Reader: Reader{recorder: recorder, reader: readCloser},
		closer: readCloser,
	}
}

// Close calls the wrapped Close. No observation is recorded.
func (r *ReadCloser) Close() error {
	return closeTracked(r.recorder, r.closer)
}

// WriteCloser instruments an io.WriteCloser.
type WriteCloser struct {
	Writer
	closer io.Closer
}

// NewWriteCloser wraps writeCloser.
func NewWriteCloser(recorder Recorder, writeCloser io.WriteCloser) *WriteCloser {
	return &WriteCloser{
		Writer: Writer{recorder: recorder, writer: writeCloser},
		closer: writeCloser,
	}
}

// Close calls the wrapped Close. No observation is recorded.
func (w *WriteCloser) Close() error {
	return closeTracked(w.recorder, w.closer)
}

func closeTracked(recorder Recorder, closer io.Closer) error {
	recorder.OperationPending()
	defer recorder.OperationComplete()
	return closer.Close()
}
