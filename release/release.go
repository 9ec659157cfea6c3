// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package release implements release specific constants and methods.
package release

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
)

// PrintVersion prints version information of the padctl binary.
func PrintVersion(c *cli.Context) {
	w := c.App.Writer
	fmt.Fprintf(w, "%v version %v\n", c.App.Name, c.App.Version)
	fmt.Fprintf(w, "commit %s\n", Commit)
	fmt.Fprintf(w, "Date:   %s\n", Date)
	fmt.Fprintf(w, "built with %s for %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
