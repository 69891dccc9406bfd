// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

// Package worker runs administrative tasks in an external worker process.
//
// The access token is handed to the worker once over its standard input. The
// worker reports back with one JSON object per line on standard output:
//
//	{"type":"progress","message":"Scanning users","percent":40}
//	{"type":"success","data":{"table":{"headers":["A"],"rows":[["1"]]}}}
//	{"type":"error","message":"boom"}
//
// Any other line is treated as diagnostic text.
package worker
