// Package loader reads job definitions from disk. Four formats are
// understood:
//
//	steps  "Step C must be finished before step A can begin." per line
//	yaml   jobs: [{id: A, after: [C], duration: 4}]
//	json   {"jobs": [{"id": "A", "after": ["C"], "duration": 4}]}
//	hcl    job "A" { after = ["C"]  duration = 4 }
//
// Durations are optional; jobs without one fall back to the configured model.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/steploom/internal/duration"
	"github.com/joshharrison/steploom/internal/graph"
)

// Supported formats.
const (
	FormatSteps = "steps"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
	FormatHCL   = "hcl"
)

// ErrUnsupportedFormat is returned for an unknown format name or extension.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// Definition is the parsed content of a job file.
type Definition struct {
	Jobs      []graph.JobID
	Edges     []graph.Edge
	Durations map[graph.JobID]int
}

// Graph builds the dependency graph described by d.
func (d *Definition) Graph() (*graph.Graph, error) {
	return graph.BuildFromEdges(d.Edges, d.Jobs...)
}

// Model returns fallback, overridden by any explicit durations in d.
func (d *Definition) Model(fallback duration.Model) duration.Model {
	if len(d.Durations) == 0 {
		return fallback
	}
	return duration.Table{Values: d.Durations, Fallback: fallback}
}

func (d *Definition) addJob(id string, after []string, dur *int) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("job with empty id")
	}
	d.Jobs = append(d.Jobs, graph.JobID(id))
	for _, pre := range after {
		pre = strings.TrimSpace(pre)
		if pre == "" {
			return fmt.Errorf("job %s: empty prerequisite", id)
		}
		d.Edges = append(d.Edges, graph.Edge{Before: graph.JobID(pre), After: graph.JobID(id)})
	}
	if dur != nil {
		if d.Durations == nil {
			d.Durations = make(map[graph.JobID]int)
		}
		d.Durations[graph.JobID(id)] = *dur
	}
	return nil
}

// DetectFormat maps a file extension to a format name.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".steps", "":
		return FormatSteps, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads and parses the file at path. An empty format is detected from
// the extension.
func Load(path, format string) (*Definition, error) {
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	def, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return def, nil
}

// Parse reads a definition in the given format from r.
func Parse(r io.Reader, format string) (*Definition, error) {
	switch strings.ToLower(format) {
	case FormatSteps:
		return parseSteps(r)
	case FormatYAML, "yml":
		return parseYAML(r)
	case FormatJSON:
		return parseJSON(r)
	case FormatHCL:
		return parseHCL(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

var stepLine = regexp.MustCompile(`^Step (\S+) must be finished before step (\S+) can begin\.?$`)

func parseSteps(r io.Reader) (*Definition, error) {
	def := &Definition{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := stepLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: unrecognised instruction %q", lineNo, line)
		}
		def.Edges = append(def.Edges, graph.Edge{Before: graph.JobID(m[1]), After: graph.JobID(m[2])})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read instructions: %w", err)
	}
	return def, nil
}

type yamlFile struct {
	Jobs []yamlJob `yaml:"jobs"`
}

type yamlJob struct {
	ID       string   `yaml:"id"`
	After    []string `yaml:"after"`
	Duration *int     `yaml:"duration"`
}

func parseYAML(r io.Reader) (*Definition, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &Definition{}, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	def := &Definition{}
	for i, j := range f.Jobs {
		if err := def.addJob(j.ID, j.After, j.Duration); err != nil {
			return nil, fmt.Errorf("jobs[%d]: %w", i, err)
		}
	}
	return def, nil
}

func parseJSON(r io.Reader) (*Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid json")
	}

	jobs := gjson.GetBytes(data, "jobs")
	if jobs.Exists() && !jobs.IsArray() {
		return nil, errors.New(`"jobs" must be an array`)
	}

	def := &Definition{}
	var parseErr error
	i := 0
	jobs.ForEach(func(_, item gjson.Result) bool {
		var after []string
		for _, a := range item.Get("after").Array() {
			after = append(after, a.String())
		}
		var dur *int
		if d := item.Get("duration"); d.Exists() {
			if d.Type != gjson.Number || d.Num != math.Trunc(d.Num) {
				parseErr = fmt.Errorf("jobs[%d]: duration must be a whole number, got %s", i, d.Raw)
				return false
			}
			v := int(d.Int())
			dur = &v
		}
		if err := def.addJob(item.Get("id").String(), after, dur); err != nil {
			parseErr = fmt.Errorf("jobs[%d]: %w", i, err)
			return false
		}
		i++
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return def, nil
}

type hclFile struct {
	Jobs []hclJob `hcl:"job,block"`
}

type hclJob struct {
	ID       string   `hcl:"id,label"`
	After    []string `hcl:"after,optional"`
	Duration *int     `hcl:"duration,optional"`
}

func parseHCL(r io.Reader) (*Definition, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read hcl: %w", err)
	}

	file, diags := hclparse.NewParser().ParseHCL(src, "jobs.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse hcl: %w", diags)
	}
	var f hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("decode hcl: %w", diags)
	}

	def := &Definition{}
	for _, j := range f.Jobs {
		if err := def.addJob(j.ID, j.After, j.Duration); err != nil {
			return nil, err
		}
	}
	return def, nil
}
