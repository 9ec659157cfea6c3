// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log_test

import (
	"errors"
	"os"
	"testing"

	"github.com/padcomm/padctl/log"
)

func init() {
	if err := log.Init("info", "log  ", "", false); err != nil {
		panic(err)
	}
}

var errSentinel = errors.New("log_test: sentinel")

func TestErrorKeepsIdentity(t *testing.T) {
	if err := log.Error(errSentinel); err != errSentinel {
		t.Error("log.Error() should return the very same error")
	}
	if err := log.Warn(errSentinel); err != errSentinel {
		t.Error("log.Warn() should return the very same error")
	}
	if err := log.Errorf("log_test: %d", 42); err == nil || err.Error() != "log_test: 42" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInit(t *testing.T) {
	if err := log.Init("verbose", "log  ", "", false); err == nil {
		t.Error("should fail")
	}
	if err := log.Init("info", "log", "", false); err == nil {
		t.Error("should fail")
	}
	if !log.ValidLevel("DEBUG") {
		t.Error("level should be valid")
	}
	if err := log.InitOpts(log.Options{}, "log  "); err != nil {
		t.Error(err)
	}
	if err := log.SetLogWriter(nil); err == nil {
		t.Error("should fail")
	}
}

func createFile() error {
	conditionWhichShouldBeTrue := true
	// ...

	// create own error
	if !conditionWhichShouldBeTrue {
		return log.Error("package name: condition should be true")
	}

	// calling external package which can produce an error
	_, err := os.Create("filename")
	if err != nil {
		return log.Error(err)
	}
	return nil
}

// This example shows when and how to use the error log level.
func Example_error() {
	if err := createFile(); err != nil {
		return
	}
}

// This example shows when and how to use the warn log level.
func Example_warn() {
	acknowledged := false
	// ...

	// a soft failure which does not abort the operation
	if !acknowledged {
		log.Warnf("netflux: broadcast not acknowledged, possibly delivered")
	}
}
