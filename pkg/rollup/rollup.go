// Package rollup implements the dependency roll-up: a pure function from a
// crate's used-package names, the current build tree's hash index, and a
// way to read a single dependency's policy-hash file, to a sorted list of
// (name, summary) pairs. It has no state of its own so both the hasher and
// any later verifier that wants to recompute a summary can share it.
package rollup

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
)

// DepHashReader reads the first line (the summary hash) of the named
// dependency's policy-hash file.
type DepHashReader func(name string) (string, error)

// Entry is one row of the rolled-up dependency list.
type Entry struct {
	Name    string
	Summary string
}

// ParseHashIndex splits the newline-delimited hash-index contents into the
// set of package names that have already had a policy-hash file produced in
// the current build tree. A malformed or empty index is treated as empty,
// mirroring "first run in this build tree".
func ParseHashIndex(contents string) map[string]bool {
	set := make(map[string]bool)
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		set[line] = true
	}
	return set
}

// RollUp intersects usedCrateNames with the packages recorded in the hash
// index, sorts the survivors lexicographically, rejects duplicates, and
// resolves each one's summary hash via read. It fails the whole roll-up if
// any expected policy-hash file is missing or its first line is empty.
func RollUp(usedCrateNames []string, hashIndexContents string, read DepHashReader) ([]Entry, error) {
	indexed := ParseHashIndex(hashIndexContents)

	seen := make(map[string]bool, len(usedCrateNames))
	var retained []string
	for _, name := range usedCrateNames {
		if !indexed[name] {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("rollup: duplicate dependency %q", name)
		}
		seen[name] = true
		retained = append(retained, name)
	}
	sort.Strings(retained)

	entries := make([]Entry, 0, len(retained))
	for _, name := range retained {
		summary, err := read(name)
		if err != nil {
			return nil, fmt.Errorf("rollup: reading policy-hash file for %q: %w", name, err)
		}
		summary = firstLine(summary)
		if summary == "" {
			return nil, fmt.Errorf("rollup: policy-hash file for %q has an empty summary line", name)
		}
		entries = append(entries, Entry{Name: name, Summary: summary})
	}
	return entries, nil
}

func firstLine(s string) string {
	sc := bufio.NewScanner(strings.NewReader(s))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}

// Map turns a sorted Entry list into the crate_name -> hex map shape used by
// PolicyHashFile.DependencyHashes.
func Map(entries []Entry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Name] = e.Summary
	}
	return m
}
