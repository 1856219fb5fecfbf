package lang

import (
	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScript is the registry key for the Node.js source dialect.
const JavaScript = "javascript"

// nodeBuiltins are the Node.js core modules. require("node:x") is handled
// by the scanner before the lookup.
var nodeBuiltins = []string{
	"assert", "async_hooks", "buffer", "child_process", "cluster", "console",
	"constants", "crypto", "dgram", "diagnostics_channel", "dns", "domain",
	"events", "fs", "http", "http2", "https", "inspector", "module", "net",
	"os", "path", "perf_hooks", "process", "punycode", "querystring",
	"readline", "repl", "stream", "string_decoder", "sys", "timers", "tls",
	"trace_events", "tty", "url", "util", "v8", "vm", "wasi",
	"worker_threads", "zlib",
}

func init() {
	builtins := make(map[string]struct{}, len(nodeBuiltins))
	for _, name := range nodeBuiltins {
		builtins[name] = struct{}{}
	}
	Languages[JavaScript] = &Language{
		Name:       JavaScript,
		Extensions: []string{".js", ".cjs"},
		lang:       javascript.GetLanguage(),
		Builtins:   builtins,
	}
}
