// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package meteredio

import (
	"io/fs"
	"os"
)

// File instruments an *os.File. Read, ReadAt, Write, WriteAt,
// WriteString, and Close report to the recorder; Seek, Stat, Sync,
// Name, and Fd pass straight through.
type File struct {
	recorder Recorder
	file     *os.File
}

// Open opens name for reading. The open itself is tracked as pending.
func Open(recorder Recorder, name string) (*File, error) {
	return OpenFile(recorder, name, os.O_RDONLY, 0)
}

// Create creates or truncates name. The open itself is tracked as
// pending.
func Create(recorder Recorder, name string) (*File, error) {
	return OpenFile(recorder, name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// OpenFile is os.OpenFile with the open tracked as pending. Errors are
// os.OpenFile's, unchanged.
func OpenFile(recorder Recorder, name string, flag int, perm fs.FileMode) (*File, error) {
	done := Track(recorder)
	defer done()

	file, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &File{recorder: recorder, file: file}, nil
}

// NewFile wraps a file descriptor as os.NewFile does. Returns nil if
// fd is not a valid descriptor.
func NewFile(recorder Recorder, fd uintptr, name string) *File {
	file := os.NewFile(fd, name)
	if file == nil {
		return nil
	}
	return Wrap(recorder, file)
}

// Wrap instruments an already open file.
func Wrap(recorder Recorder, file *os.File) *File {
	return &File{recorder: recorder, file: file}
}

// Read calls the file's Read.
func (f *File) Read(p []byte) (n int, err error) {
	f.recorder.OperationPending()
	defer f.recorder.OperationComplete()

	n, err = f.file.Read(p)
	observeRead(f.recorder, n, err)
	return n, err
}

// ReadAt calls the file's ReadAt. A short read at the end of the file
// (n < len(p) with io.EOF) records n.
func (f *File) ReadAt(p []byte, offset int64) (n int, err error) {
	f.recorder.OperationPending()
	defer f.recorder.OperationComplete()

	n, err = f.file.ReadAt(p, offset)
	observeRead(f.recorder, n, err)
	return n, err
}

// Write calls the file's Write.
func (f *File) Write(p []byte) (n int, err error) {
	f.recorder.OperationPending()
	defer f.recorder.OperationComplete()

	n, err = f.file.Write(p)
	observeWrite(f.recorder, n, err)
	return n, err
}

// WriteAt calls the file's WriteAt.
func (f *File) WriteAt(p []byte, offset int64) (n int, err error) {
	f.recorder.OperationPending()
	defer f.recorder.OperationComplete()

	n, err = f.file.WriteAt(p, offset)
	observeWrite(f.recorder, n, err)
	return n, err
}

// WriteString calls the file's WriteString, which writes through the
// raw file and not through this wrapper's Write.
func (f *File) WriteString(s string) (n int, err error) {
	f.recorder.OperationPending()
	defer f.recorder.OperationComplete()

	n, err = f.file.WriteString(s)
	observeWrite(f.recorder, n, err)
	return n, err
}

// Close closes the file. No observation is recorded.
func (f *File) Close() error {
	return closeTracked(f.recorder, f.file)
}

// Seek is not instrumented.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.file.Seek(offset, whence)
}

// Stat is not instrumented.
func (f *File) Stat() (fs.FileInfo, error) { return f.file.Stat() }

// Sync is not instrumented.
func (f *File) Sync() error { return f.file.Sync() }

// Name returns the file's name.
func (f *File) Name() string { return f.file.Name() }

// Fd returns the file's descriptor.
func (f *File) Fd() uintptr { return f.file.Fd() }

// Unwrap returns the underlying file. Calls made on it are not
// recorded.
func (f *File) Unwrap() *os.File { return f.file }
