// Package adapters maps each scanner's native output format onto the
// canonical Finding record. One adapter per tool; adapters extract
// tool-specific shape only and leave vocabulary normalization to the
// normalizer, so severity and CWE rules cannot drift between tools.
package adapters

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/appsecsanta/research/pkg/types"
)

// TargetAll is the discovery placeholder for tools that report every
// target in one shared file. The adapter resolves real targets itself.
const TargetAll = "__all__"

// Adapter parses one tool's raw output into findings. Parse must not
// panic on malformed input; it returns an error the loader downgrades to
// a warning, so one broken file never aborts a run.
type Adapter interface {
	// Name returns the canonical tool identifier
	Name() string

	// Category returns the scanner family the tool belongs to
	Category() types.Category

	// Parse converts one raw output file for the given target
	Parse(data []byte, target string) ([]types.Finding, error)
}

// Options carries the configuration the registry is built from. Targets
// feed the checkov adapter's path-based target resolution; Aliases map
// alternate spellings onto canonical tool names.
type Options struct {
	Targets []string
	Aliases map[string]string
}

// Registry resolves tool names to adapters. It is immutable after
// construction; build one per run instead of sharing package state.
type Registry struct {
	byName map[string]Adapter
	alias  map[string]string
}

// NewRegistry builds the registry of all supported adapters.
func NewRegistry(opts Options) *Registry {
	all := []Adapter{
		Trivy{},
		Grype{},
		Bearer{},
		NodeJSScan{},
		Bandit{},
		Semgrep{},
		ZAP{},
		Nuclei{},
		NPMAudit{},
		PipAudit{},
		DepCheck{},
		NewCheckov(opts.Targets),
		CodeQL{},
	}
	r := &Registry{
		byName: make(map[string]Adapter, len(all)),
		alias:  make(map[string]string, len(opts.Aliases)),
	}
	for _, a := range all {
		r.byName[a.Name()] = a
	}
	for alias, canonical := range opts.Aliases {
		r.alias[strings.ToLower(alias)] = strings.ToLower(canonical)
	}
	return r
}

// Resolve maps a tool name or alias to its canonical name, or "" when
// the name is unknown.
func (r *Registry) Resolve(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := r.alias[name]; ok {
		name = canonical
	}
	if _, ok := r.byName[name]; ok {
		return name
	}
	return ""
}

// Lookup returns the adapter for a tool name or alias.
func (r *Registry) Lookup(name string) (Adapter, bool) {
	canonical := r.Resolve(name)
	if canonical == "" {
		return nil, false
	}
	return r.byName[canonical], true
}

// MatchNames returns every name the registry answers to, canonical names
// and aliases both, longest first so that prefix matching against file
// stems never stops at "npm" when "npm-audit" applies.
func (r *Registry) MatchNames() []string {
	names := make([]string, 0, len(r.byName)+len(r.alias))
	for name := range r.byName {
		names = append(names, name)
	}
	for alias := range r.alias {
		names = append(names, alias)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

// flexString decodes JSON fields that tools emit as either a string or a
// number (ZAP risk codes, bearer CWE ids, dep-check CWE lists).
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// flexStringList decodes JSON fields that are a single value or an array
// of values (nuclei's classification."cwe-id" appears both ways).
type flexStringList []flexString

func (l *flexStringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []flexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var single flexString
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = flexStringList{single}
	return nil
}

// first returns the first non-empty value of the list.
func (l flexStringList) first() string {
	for _, v := range l {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

// fileLine joins a file path with a line number the way most SAST tools
// report locations. A zero line leaves the bare path.
func fileLine(file string, line int) string {
	if file == "" {
		return ""
	}
	if line > 0 {
		return file + ":" + strconv.Itoa(line)
	}
	return file
}

// firstNonEmpty returns the first value with non-space content.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
