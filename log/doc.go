// Copyright (c) 2015 Mute Communications Ltd.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package log implements the padctl logging framework.

See https://github.com/cihub/seelog/wiki/Log-levels for an introduction to the
different logging levels.

We want to log all error conditions, but want to avoid logging them multiple
times. Therefore, we log them once as early as possible: When calling external
packages that create an error, we wrap that error in a log.Error() call. If we
create our own errors, we use log.Error[f]() to do that. Typed errors (sentinel
values, *auth.Error, *rpc.Error) are passed through log.Error() unchanged, so
callers can still match them with errors.Is and errors.As.

Protocol noise from the relay (frames that do not parse or do not decrypt) is
expected and only logged on the trace and debug levels. Soft failures which do
not abort an operation, like a broadcast that was not acknowledged in time, are
logged with log.Warn[f]().
*/
package log
