// Package web holds the embedded browser chat page.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
