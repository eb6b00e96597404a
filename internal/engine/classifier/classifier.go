// Package classifier maps an intercepted request to its serving strategy using an
// ordered rule table. The first matching rule wins.
package classifier

import (
	"net/http"
	"slices"
	"strings"

	"github.com/elkincvco/crwsh/internal/core/domain"
)

// Rule names of the default table.
const (
	RuleNonGET      = "non-get"
	RuleAPIPath     = "api-path"
	RuleDataService = "data-service"
	RuleManifest    = "manifest"
	RuleDefault     = "default"
)

// Predicate reports whether a rule applies to the request.
type Predicate func(r *http.Request) bool

// Rule pairs a predicate with the strategy selected when it matches.
type Rule struct {
	Name     string
	Match    Predicate
	Strategy domain.Strategy
}

// Options parameterizes the default rule table.
type Options struct {
	APIPath         string
	DataServiceHost string
	Manifest        []string
}

// DefaultRules returns the rule table of the interception layer.
// API and data-service rules come before the manifest rule so backend calls are never
// served cache-first, even when their URL also ends with a manifest entry.
func DefaultRules(opts Options) []Rule {
	manifest := slices.Clone(opts.Manifest)

	return []Rule{
		{
			Name:     RuleNonGET,
			Match:    func(r *http.Request) bool { return r.Method != http.MethodGet },
			Strategy: domain.StrategyPassthrough,
		},
		{
			Name:     RuleAPIPath,
			Match:    PathContains(opts.APIPath),
			Strategy: domain.StrategyNetworkFirst,
		},
		{
			Name:     RuleDataService,
			Match:    HostContains(opts.DataServiceHost),
			Strategy: domain.StrategyNetworkFirst,
		},
		{
			Name:     RuleManifest,
			Match:    URLHasSuffix(manifest...),
			Strategy: domain.StrategyCacheFirst,
		},
		{
			Name:     RuleDefault,
			Match:    func(*http.Request) bool { return true },
			Strategy: domain.StrategyStaleWhileRevalidate,
		},
	}
}

// PathContains matches requests whose URL path contains fragment.
// An empty fragment never matches.
func PathContains(fragment string) Predicate {
	return func(r *http.Request) bool {
		return fragment != "" && strings.Contains(r.URL.Path, fragment)
	}
}

// HostContains matches requests whose host contains fragment.
// An empty fragment never matches.
func HostContains(fragment string) Predicate {
	return func(r *http.Request) bool {
		if fragment == "" {
			return false
		}
		host := r.URL.Host
		if host == "" {
			host = r.Host
		}
		return strings.Contains(strings.ToLower(host), strings.ToLower(fragment))
	}
}

// URLHasSuffix matches requests whose full URL ends with one of the suffixes.
func URLHasSuffix(suffixes ...string) Predicate {
	return func(r *http.Request) bool {
		u := r.URL.String()
		return slices.ContainsFunc(suffixes, func(s string) bool {
			return s != "" && strings.HasSuffix(u, s)
		})
	}
}

// Classifier evaluates a rule table.
type Classifier struct {
	rules []Rule
}

// New creates a Classifier over rules, evaluated in order.
func New(rules []Rule) *Classifier {
	return &Classifier{rules: slices.Clone(rules)}
}

// Match returns the first rule matching r. When no rule matches, the returned rule
// selects passthrough and ok is false.
func (c *Classifier) Match(r *http.Request) (rule Rule, ok bool) {
	for _, rule := range c.rules {
		if rule.Match(r) {
			return rule, true
		}
	}
	return Rule{Strategy: domain.StrategyPassthrough}, false
}

// Classify returns the strategy selected for r.
func (c *Classifier) Classify(r *http.Request) domain.Strategy {
	rule, _ := c.Match(r)
	return rule.Strategy
}
