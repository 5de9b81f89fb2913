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

package errs

import (
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"
)

var (
	traceable bool                // errors carry a stack trace when set.
	stackSkip = defaultStackSkip // number of stack frames skipped.
)

const defaultStackSkip = 4

// SetTraceable controls whether new errors carry a stack trace.
// It is meant to be called during setup and is not concurrency safe.
func SetTraceable(x bool) {
	traceable = x
}

// SetStackSkip sets the number of skipped stack frames.
func SetStackSkip(skip int) {
	stackSkip = skip
}

// frame is a program counter + 1 inside a stack frame.
type frame uintptr

func (f frame) pc() uintptr { return uintptr(f) - 1 }

func (f frame) fileLine() (string, int) {
	fn := runtime.FuncForPC(f.pc())
	if fn == nil {
		return "unknown", 0
	}
	return fn.FileLine(f.pc())
}

func (f frame) name() string {
	fn := runtime.FuncForPC(f.pc())
	if fn == nil {
		return "unknown"
	}
	return fn.Name()
}

// Format formats the frame.
//
//	%s    source file base name
//	%d    source line
//	%n    function name
//	%v    equivalent to %s:%d
//	%+v   function name and full path, then :line
func (f frame) Format(s fmt.State, verb rune) {
	file, line := f.fileLine()
	switch verb {
	case 's':
		if s.Flag('+') {
			io.WriteString(s, f.name()+"\n\t"+file)
			return
		}
		io.WriteString(s, path.Base(file))
	case 'd':
		io.WriteString(s, strconv.Itoa(line))
	case 'n':
		io.WriteString(s, funcName(f.name()))
	case 'v':
		f.Format(s, 's')
		io.WriteString(s, ":")
		f.Format(s, 'd')
	}
}

// stackTrace is stack of frames from innermost (newest) to outermost (oldest).
type stackTrace []frame

// Format prints one frame per line for %+v and a bracketed list otherwise.
func (st stackTrace) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		for _, f := range st {
			io.WriteString(s, "\n")
			f.Format(s, verb)
		}
		return
	}
	io.WriteString(s, "[")
	for i, f := range st {
		if i > 0 {
			io.WriteString(s, " ")
		}
		f.Format(s, verb)
	}
	io.WriteString(s, "]")
}

func callers() stackTrace {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(stackSkip, pcs[:])
	st := make(stackTrace, n)
	for i := 0; i < n; i++ {
		st[i] = frame(pcs[i])
	}
	return st
}

// funcName removes the path prefix component of a function's name.
func funcName(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}
