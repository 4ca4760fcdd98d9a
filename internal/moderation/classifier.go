// Package moderation screens outgoing user messages for attempts to
// override the assistant persona before they reach a completion backend.
package moderation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// ErrNoPatterns is returned when a pattern source yields nothing usable.
var ErrNoPatterns = errors.New("moderation: no patterns configured")

// Verdict is the transient outcome of screening one message.
type Verdict struct {
	Rejected bool
	Pattern  string // Source of the first matching pattern, empty on pass
}

type rule struct {
	source string
	re     *regexp.Regexp
}

// Classifier evaluates each message in isolation against a fixed rule set.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules []rule
}

// NewClassifier compiles patterns case-insensitively.
func NewClassifier(patterns []string) (*Classifier, error) {
	rules := make([]rule, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("moderation: compile pattern %q: %w", p, err)
		}
		rules = append(rules, rule{source: p, re: re})
	}
	if len(rules) == 0 {
		return nil, ErrNoPatterns
	}
	return &Classifier{rules: rules}, nil
}

// NewDefaultClassifier compiles DefaultPatterns.
func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultPatterns)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadClassifier reads patterns from path, or uses DefaultPatterns when path is empty.
func LoadClassifier(path string) (*Classifier, error) {
	if path == "" {
		return NewDefaultClassifier(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("moderation: open pattern file: %w", err)
	}
	defer f.Close()

	patterns, err := ReadPatterns(f)
	if err != nil {
		return nil, err
	}
	return NewClassifier(patterns)
}

// ReadPatterns parses one pattern per line. Blank lines and lines starting with # are skipped.
func ReadPatterns(r io.Reader) ([]string, error) {
	var patterns []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("moderation: read patterns: %w", err)
	}
	return patterns, nil
}

// Check returns the verdict for text.
func (c *Classifier) Check(text string) Verdict {
	for _, r := range c.rules {
		if r.re.MatchString(text) {
			return Verdict{Rejected: true, Pattern: r.source}
		}
	}
	return Verdict{}
}

// IsManipulationAttempt reports whether text matches any configured pattern.
func (c *Classifier) IsManipulationAttempt(text string) bool {
	return c.Check(text).Rejected
}

// Patterns returns the configured pattern sources in evaluation order.
func (c *Classifier) Patterns() []string {
	out := make([]string, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.source
	}
	return out
}
