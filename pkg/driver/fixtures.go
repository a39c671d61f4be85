package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Unlimited-Development-Works/Intent/pkg/interpreter"
	"github.com/Unlimited-Development-Works/Intent/pkg/runtime"
)

// SuiteSuffix marks files collected by CollectSuites.
const SuiteSuffix = ".fixtures.yml"

// Suite is a named list of evaluation cases loaded from one fixture file.
type Suite struct {
	Path  string
	Name  string
	Cases []Case
}

// Case pairs an input noun with its expected reduct. When ExpectLimit is set
// the case instead expects the run to stop on that limit ("steps" or "depth").
type Case struct {
	Name        string
	Input       runtime.Value
	Expect      runtime.Value
	ExpectLimit string
	MaxSteps    int
	MaxDepth    int
}

// CaseResult reports one case run.
type CaseResult struct {
	Suite   string
	Case    string
	Mode    interpreter.Mode
	Passed  bool
	Got     runtime.Value
	Stats   interpreter.Stats
	Err     error
	Message string
}

// LoadSuite parses a fixture file. Nouns are written in YAML: an integer is
// an atom, null is Error, and a sequence of two or more items is a
// right-nested cell.
func LoadSuite(path string) (*Suite, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw suiteDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("fixtures: parse %s: %w", abs, err)
	}

	suite := &Suite{Path: abs, Name: strings.TrimSpace(raw.Name)}
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(abs), SuiteSuffix)
	}
	seen := make(map[string]bool, len(raw.Cases))
	for i, rc := range raw.Cases {
		c, err := rc.toCase(i)
		if err != nil {
			return nil, fmt.Errorf("fixtures: %s: %w", abs, err)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("fixtures: %s: duplicate case %q", abs, c.Name)
		}
		seen[c.Name] = true
		suite.Cases = append(suite.Cases, c)
	}
	return suite, nil
}

// CollectSuites returns the fixture files under roots in sorted order. A root
// may name a directory or a single file.
func CollectSuites(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if _, ok := seen[abs]; ok {
			return nil
		}
		seen[abs] = struct{}{}
		files = append(files, abs)
		return nil
	}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("fixtures: %w", err)
		}
		if !info.IsDir() {
			if err := add(root); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && (d.Name() == ".git" || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(d.Name(), SuiteSuffix) {
				return add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("fixtures: walk %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// RunSuite evaluates every case of suite with base options. Per-case limits
// override the base limits.
func RunSuite(ctx context.Context, suite *Suite, base interpreter.Options) []CaseResult {
	results := make([]CaseResult, 0, len(suite.Cases))
	for _, c := range suite.Cases {
		results = append(results, RunCase(ctx, suite.Name, c, base))
	}
	return results
}

// RunCase evaluates a single case.
func RunCase(ctx context.Context, suite string, c Case, base interpreter.Options) CaseResult {
	opts := base
	if c.MaxSteps > 0 {
		opts.MaxSteps = c.MaxSteps
	}
	if c.MaxDepth > 0 {
		opts.MaxDepth = c.MaxDepth
	}
	interp := interpreter.New(opts)
	got, stats, err := interp.Run(ctx, c.Input)
	result := CaseResult{
		Suite: suite,
		Case:  c.Name,
		Mode:  interp.Options().Mode,
		Got:   got,
		Stats: stats,
		Err:   err,
	}

	if c.ExpectLimit != "" {
		want := limitSentinel(c.ExpectLimit)
		switch {
		case err == nil:
			result.Message = fmt.Sprintf("expected %s limit, got %s", c.ExpectLimit, runtime.Format(got))
		case !errors.Is(err, want):
			result.Message = fmt.Sprintf("expected %s limit, got error %v", c.ExpectLimit, err)
		default:
			result.Passed = true
			result.Err = nil
		}
		return result
	}

	switch {
	case err != nil:
		result.Message = err.Error()
	case !runtime.Identical(got, c.Expect):
		result.Message = fmt.Sprintf("expected %s, got %s", runtime.Format(c.Expect), runtime.Format(got))
	default:
		result.Passed = true
	}
	return result
}

func limitSentinel(name string) error {
	if name == "depth" {
		return interpreter.ErrDepthLimit
	}
	return interpreter.ErrStepLimit
}

type suiteDisk struct {
	Name  string     `yaml:"name"`
	Cases []caseDisk `yaml:"cases"`
}

type caseDisk struct {
	Name        string    `yaml:"name"`
	Input       yaml.Node `yaml:"input"`
	Expect      yaml.Node `yaml:"expect"`
	ExpectLimit string    `yaml:"expect_limit"`
	MaxSteps    int       `yaml:"max_steps"`
	MaxDepth    int       `yaml:"max_depth"`
}

func (d caseDisk) toCase(index int) (Case, error) {
	c := Case{
		Name:        strings.TrimSpace(d.Name),
		ExpectLimit: strings.ToLower(strings.TrimSpace(d.ExpectLimit)),
		MaxSteps:    d.MaxSteps,
		MaxDepth:    d.MaxDepth,
	}
	if c.Name == "" {
		c.Name = fmt.Sprintf("case %d", index+1)
	}
	if c.MaxSteps < 0 || c.MaxDepth < 0 {
		return Case{}, fmt.Errorf("case %q: limits must not be negative", c.Name)
	}
	if d.Input.Kind == 0 {
		return Case{}, fmt.Errorf("case %q: input required", c.Name)
	}
	input, err := DecodeNoun(&d.Input)
	if err != nil {
		return Case{}, fmt.Errorf("case %q: input: %w", c.Name, err)
	}
	c.Input = input

	switch c.ExpectLimit {
	case "":
		if d.Expect.Kind == 0 {
			return Case{}, fmt.Errorf("case %q: expect or expect_limit required", c.Name)
		}
		expect, err := DecodeNoun(&d.Expect)
		if err != nil {
			return Case{}, fmt.Errorf("case %q: expect: %w", c.Name, err)
		}
		c.Expect = expect
	case "steps", "depth":
		if d.Expect.Kind != 0 {
			return Case{}, fmt.Errorf("case %q: expect and expect_limit are exclusive", c.Name)
		}
	default:
		return Case{}, fmt.Errorf("case %q: unknown expect_limit %q (expected steps or depth)", c.Name, c.ExpectLimit)
	}
	return c, nil
}

// DecodeNoun converts a YAML node into a noun. Anchors and aliases produce
// shared subtrees; an anchor that contains an alias to itself is rejected.
func DecodeNoun(node *yaml.Node) (runtime.Value, error) {
	d := &nounDecoder{
		memo:     make(map[*yaml.Node]runtime.Value),
		visiting: make(map[*yaml.Node]bool),
	}
	return d.decode(node)
}

type nounDecoder struct {
	memo     map[*yaml.Node]runtime.Value
	visiting map[*yaml.Node]bool
}

func (d *nounDecoder) decode(node *yaml.Node) (runtime.Value, error) {
	if node == nil {
		return nil, fmt.Errorf("missing noun")
	}
	if v, ok := d.memo[node]; ok {
		return v, nil
	}
	if d.visiting[node] {
		return nil, fmt.Errorf("line %d: anchor refers to itself", node.Line)
	}
	d.visiting[node] = true
	defer delete(d.visiting, node)

	var (
		v   runtime.Value
		err error
	)
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) != 1 {
			return nil, fmt.Errorf("line %d: expected one noun", node.Line)
		}
		v, err = d.decode(node.Content[0])
	case yaml.AliasNode:
		v, err = d.decode(node.Alias)
	case yaml.ScalarNode:
		v, err = decodeScalar(node)
	case yaml.SequenceNode:
		if len(node.Content) < 2 {
			return nil, fmt.Errorf("line %d: a cell needs at least two nouns, found %d", node.Line, len(node.Content))
		}
		items := make([]runtime.Value, len(node.Content))
		for i, child := range node.Content {
			items[i], err = d.decode(child)
			if err != nil {
				return nil, err
			}
		}
		v = runtime.Tuple(items...)
	default:
		return nil, fmt.Errorf("line %d: a mapping is not a noun", node.Line)
	}
	if err != nil {
		return nil, err
	}
	d.memo[node] = v
	return v, nil
}

func decodeScalar(node *yaml.Node) (runtime.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return runtime.Error(), nil
	case "!!int":
		text := strings.ReplaceAll(node.Value, "_", "")
		n, ok := new(big.Int).SetString(text, 0)
		if !ok {
			return nil, fmt.Errorf("line %d: invalid atom %q", node.Line, node.Value)
		}
		return runtime.AtomBig(n), nil
	case "!!float":
		// Integers past 64 bits resolve as floats.
		if n, ok := new(big.Int).SetString(node.Value, 10); ok {
			return runtime.AtomBig(n), nil
		}
		return nil, fmt.Errorf("line %d: atom %s is not an integer", node.Line, node.Value)
	default:
		return nil, fmt.Errorf("line %d: %q is not a noun", node.Line, node.Value)
	}
}
