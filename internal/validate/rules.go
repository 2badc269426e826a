package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/manifestd/internal/logging"
	"github.com/danmuck/manifestd/internal/observability"
	"github.com/danmuck/manifestd/internal/tree"
)

var ErrInvalidRule = errors.New("validate: invalid rule")

// RuleSpec is one [[rule]] entry of a rule file.
type RuleSpec struct {
	NodePath  string `toml:"nodepath" json:"nodepath"`
	Predicate string `toml:"predicate" json:"predicate"`
	Message   string `toml:"message" json:"message,omitempty"`
}

type ruleFile struct {
	Rules []RuleSpec `toml:"rule"`
}

// Rule is a RuleSpec whose nodepath and predicate were resolved at load time.
type Rule struct {
	Spec  RuleSpec
	Name  Name
	Path  tree.Path
	check Predicate
}

// Bind resolves spec's predicate and parses its nodepath.
func Bind(spec RuleSpec) (Rule, error) {
	name, err := Canonical(spec.Predicate)
	if err != nil {
		return Rule{}, err
	}
	path, err := tree.Parse(strings.TrimSpace(spec.NodePath))
	if err != nil {
		return Rule{}, fmt.Errorf("%w: predicate %s: %w", ErrInvalidRule, name, err)
	}
	return Rule{Spec: spec, Name: name, Path: path, check: catalog[name]}, nil
}

// Check applies the rule's predicate to n.
func (r Rule) Check(n *tree.Node) bool {
	return r.check(n)
}

// ParseRules decodes and binds a TOML rule set.
func ParseRules(data string) ([]Rule, error) {
	var raw ruleFile
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return bindAll(raw, meta)
}

// LoadRules reads and binds a TOML rule file.
func LoadRules(path string) ([]Rule, error) {
	var raw ruleFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return bindAll(raw, meta)
}

func bindAll(raw ruleFile, meta toml.MetaData) ([]Rule, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidRule, undecoded[0].String())
	}
	rules := make([]Rule, 0, len(raw.Rules))
	for i, spec := range raw.Rules {
		r, err := Bind(spec)
		if err != nil {
			return nil, fmt.Errorf("rule[%d]: %w", i, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Failure records one node that did not satisfy a rule.
type Failure struct {
	Predicate Name   `json:"predicate"`
	NodePath  string `json:"nodepath"`
	Path      string `json:"path"`
	Value     string `json:"value"`
	Message   string `json:"message,omitempty"`
}

// Report summarizes one engine run.
type Report struct {
	Rules     int       `json:"rules"`
	Evaluated int       `json:"evaluated"`
	Failures  []Failure `json:"failures"`
}

func (r Report) OK() bool {
	return len(r.Failures) == 0
}

// Engine evaluates a bound rule set.
type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return &Engine{rules: out}
}

func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Run applies every rule to every node its nodepath resolves to, in rule order
// and document order.
func (e *Engine) Run(s *tree.Store) Report {
	log := logging.For("validate")
	report := Report{Rules: len(e.rules), Failures: make([]Failure, 0)}
	for _, r := range e.rules {
		for _, n := range s.ResolvePath(r.Path) {
			ok := r.Check(n)
			report.Evaluated++
			observability.RecordEvaluation(string(r.Name), ok)
			if ok {
				continue
			}
			f := Failure{
				Predicate: r.Name,
				NodePath:  r.Path.String(),
				Path:      n.Path(),
				Value:     n.Value(),
				Message:   r.Spec.Message,
			}
			log.Debug().
				Str("predicate", string(f.Predicate)).
				Str("nodepath", f.NodePath).
				Str("value", f.Value).
				Msg("rule failed")
			report.Failures = append(report.Failures, f)
		}
	}
	return report
}
