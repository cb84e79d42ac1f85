package services

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultBrokenStatuses are the response codes that suggest a redirect target
// is broken rather than merely protected or moved.
var DefaultBrokenStatuses = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusMethodNotAllowed,
	http.StatusNotAcceptable,
	http.StatusRequestTimeout,
	http.StatusConflict,
	http.StatusGone,
	http.StatusMisdirectedRequest,
	http.StatusInternalServerError,
	http.StatusNotImplemented,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// ruleEnv is the environment visible to a classification rule.
type ruleEnv struct {
	Status int    `expr:"status"`
	URL    string `expr:"url"`
}

// Verdict is the classification of one probe response.
type Verdict struct {
	Broken bool
	Reason string
}

// Classifier decides whether a response status marks a destination as broken.
type Classifier struct {
	broken  map[int]struct{}
	rule    *vm.Program
	ruleSrc string
}

// NewClassifier builds a classifier from a broken-status set and an optional
// expr rule (e.g. "status >= 500 && url startsWith 'https://legacy.'").
// A nil statuses slice selects DefaultBrokenStatuses; an empty one disables the set.
func NewClassifier(statuses []int, rule string) (*Classifier, error) {
	if statuses == nil {
		statuses = DefaultBrokenStatuses
	}
	c := &Classifier{broken: make(map[int]struct{}, len(statuses))}
	for _, s := range statuses {
		if s < 100 || s > 599 {
			return nil, fmt.Errorf("invalid broken status %d", s)
		}
		c.broken[s] = struct{}{}
	}

	if rule != "" {
		program, err := expr.Compile(rule, expr.Env(ruleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile broken rule %q: %w", rule, err)
		}
		c.rule = program
		c.ruleSrc = rule
	}
	return c, nil
}

// Statuses returns the broken-status set in ascending order.
func (c *Classifier) Statuses() []int {
	out := make([]int, 0, len(c.broken))
	for s := range c.broken {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Classify returns whether a response with the given status from url counts as broken.
func (c *Classifier) Classify(url string, status int) Verdict {
	if _, ok := c.broken[status]; ok {
		return Verdict{Broken: true, Reason: "in broken set"}
	}
	if c.rule == nil {
		return Verdict{}
	}

	out, err := expr.Run(c.rule, ruleEnv{Status: status, URL: url})
	if err != nil {
		return Verdict{Broken: true, Reason: fmt.Sprintf("broken rule failed: %v", err)}
	}
	if matched, _ := out.(bool); matched {
		return Verdict{Broken: true, Reason: fmt.Sprintf("matches rule %q", c.ruleSrc)}
	}
	return Verdict{}
}
