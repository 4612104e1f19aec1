package sim

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/movekit/transcheck/internal/ledger"
)

// ModuleNames extracts the declared module names from one source text.
func ModuleNames(source string) []string {
	return moduleNames([][]byte{[]byte(source)})
}

// SourceDigest is the content digest of staged or published program
// source, shared by stage-package and the disassembler listing.
func SourceDigest(source string) ledger.Digest {
	return ledger.Digest(hashWithDomain(domainPackage, []byte(source)))
}

// moduleNames extracts the declared module names from program source,
// in declaration order. A declaration is a line starting with `module`,
// with an optional address qualifier (`module 0x1::m`, `module adr::m`).
func moduleNames(modules [][]byte) []string {
	var names []string
	seen := make(map[string]bool)
	for _, src := range modules {
		sc := bufio.NewScanner(bytes.NewReader(src))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			rest, ok := strings.CutPrefix(line, "module ")
			if !ok {
				continue
			}
			// The name ends at the body brace or terminator, which may
			// share the declaration line.
			name := strings.TrimSpace(rest)
			if i := strings.IndexAny(name, " \t{;"); i >= 0 {
				name = name[:i]
			}
			if i := strings.LastIndex(name, "::"); i >= 0 {
				name = name[i+2:]
			}
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
