//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package bio

import (
	"errors"
	"io"
)

// Ctrl is a control command.
type Ctrl int

// Control commands.
const (
	CtrlReset    Ctrl = 1  // rewind or clear the stream.
	CtrlEOF      Ctrl = 2  // 1 if no data is available, 0 otherwise.
	CtrlInfo     Ctrl = 3  // method specific information.
	CtrlPush     Ctrl = 6  // the BIO was pushed onto a chain.
	CtrlPop      Ctrl = 7  // the BIO was popped off a chain.
	CtrlGetClose Ctrl = 8  // get the close-on-free flag.
	CtrlSetClose Ctrl = 9  // set the close-on-free flag.
	CtrlPending  Ctrl = 10 // bytes available to read.
	CtrlFlush    Ctrl = 11 // flush buffered output.
	CtrlDup      Ctrl = 12 // the BIO was duplicated.
	CtrlWPending Ctrl = 13 // bytes still waiting to be written out.

	// CtrlSetEmptyReturn selects what a read of an empty memq reports.
	// Zero makes it report io.EOF, any other value reports ErrEmpty and
	// flags the BIO to retry the read.
	CtrlSetEmptyReturn Ctrl = 130
	// CtrlGetEmptyReturn returns the value set by CtrlSetEmptyReturn.
	CtrlGetEmptyReturn Ctrl = 131
)

// Close flags for CtrlSetClose.
const (
	NoClose     int64 = 0 // Free leaves the data alone, someone else owns it.
	CloseOnFree int64 = 1 // Free releases the data.
)

// EOF reports whether b has no data to read.
// A nil handle is reported as at EOF.
func EOF(b *BIO) bool {
	v, _ := b.Ctrl(CtrlEOF, 0)
	return v != 0
}

// Pending returns the number of bytes the next read can deliver.
func Pending(b *BIO) int64 {
	v, _ := b.Ctrl(CtrlPending, 0)
	return v
}

// WPending returns the number of bytes waiting to be written out.
func WPending(b *BIO) int64 {
	v, _ := b.Ctrl(CtrlWPending, 0)
	return v
}

// GetClose returns the close flag of b.
func GetClose(b *BIO) int64 {
	v, _ := b.Ctrl(CtrlGetClose, 0)
	return v
}

// SetClose sets the close flag of b, NoClose or CloseOnFree.
func SetClose(b *BIO, flag int64) error {
	_, err := b.Ctrl(CtrlSetClose, flag)
	return err
}

// Flush flushes b.
func Flush(b *BIO) error {
	_, err := b.Ctrl(CtrlFlush, 0)
	return err
}

// Code converts the result of Read or Write into the integer convention of
// C style BIO callers: the byte count on success, 0 for io.EOF and -1 for
// any error, including both ErrEmpty and ErrNilHandle.
func Code(n int, err error) int {
	switch {
	case err == nil:
		return n
	case errors.Is(err, io.EOF):
		return 0
	default:
		return -1
	}
}
