// Copyright 2024 The goimporter Authors
// This file is part of the goimporter library.
//
// The goimporter library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The goimporter library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the goimporter library. If not, see <http://www.gnu.org/licenses/>.

// Package glog is a thin structured logger in the calling convention
// the teacher's own log package uses throughout its codebase:
// log.Info("what happened", "key", value, "key2", value2). It is
// backed by the standard library's slog, with go-stack/stack used to
// annotate Crit-level records with their call site, the way the
// teacher's logger tags fatal conditions.
package glog

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-stack/stack"
)

// Logger wraps a slog.Logger with the key/value calling convention
// used across the importer, ledger and pool collaborators.
type Logger struct {
	inner *slog.Logger
}

// New returns a Logger writing text-formatted records to os.Stderr.
func New(component string) *Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{inner: slog.New(h).With("component", component)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.inner.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.inner.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.inner.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.inner.Error(msg, kv...) }

// Crit logs at error level tagged with the immediate caller's frame,
// then terminates the process — reserved for the catastrophic-future
// case in spec.md §7, where the actor's supervisor has no better
// recovery than a clean restart of the whole program.
func (l *Logger) Crit(msg string, kv ...any) {
	caller := stack.Caller(1)
	kv = append(kv, "at", fmt.Sprintf("%+v", caller))
	l.inner.Error(msg, kv...)
	os.Exit(1)
}
