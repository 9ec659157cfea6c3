// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadline(t *testing.T) {
	tmpdir := t.TempDir()
	fn := filepath.Join(tmpdir, "password")
	if err := os.WriteFile(fn, []byte("correct-horse\nsecond line\n"), 0600); err != nil {
		t.Fatal(err)
	}
	fp, err := os.Open(fn)
	if err != nil {
		t.Fatal(err)
	}
	line, err := Readline(fp)
	if err != nil {
		t.Fatal(err)
	}
	if string(line) != "correct-horse" {
		t.Errorf("Readline() = %q", line)
	}
}

func TestCreateDirs(t *testing.T) {
	tmpdir := t.TempDir()
	dir := filepath.Join(tmpdir, "a", "b")
	if err := CreateDirs("", dir); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Error("directory not created")
	}
}

func TestContainsString(t *testing.T) {
	if !ContainsString([]string{"a", "b"}, "b") {
		t.Error("should contain b")
	}
	if ContainsString(nil, "a") {
		t.Error("should not contain a")
	}
}
