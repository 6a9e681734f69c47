package workflow

import (
	"bufio"
	"io"
	"iter"
	"strconv"
	"strings"
	"unicode"
)

// Document is a parsed puzzle input: workflows, then parts.
type Document struct {
	Table *Table
	Parts []Part
}

func byPiece(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

func parseLabel(s string) (Label, bool) {
	if !ValidName(s) {
		return "", false
	}
	return Label(s), true
}

// ParseCondition parses "a<2006:qkq".
func ParseCondition(s string) (Condition, error) {
	fail := func(reason string) (Condition, error) {
		return Condition{}, &ParseError{Text: s, Reason: reason}
	}

	test, target, ok := strings.Cut(s, ":")
	if !ok {
		return fail("missing ':' in condition")
	}
	if len(test) < 3 {
		return fail("condition too short")
	}

	category, err := ParseCategory(test[0])
	if err != nil {
		return fail(err.Error())
	}

	op := Comparator(test[1])
	if op != Greater && op != Less {
		return fail("comparator must be '<' or '>'")
	}

	threshold, err := strconv.Atoi(test[2:])
	if err != nil {
		return fail("threshold is not an integer")
	}

	label, ok := parseLabel(target)
	if !ok {
		return fail("invalid target")
	}

	return Condition{
		Category:  category,
		Op:        op,
		Threshold: threshold,
		Target:    label,
	}, nil
}

// ParseRule parses "px{a<2006:qkq,m>2090:A,rfg}". The last entry is the
// default target and carries no condition.
func ParseRule(s string) (Rule, error) {
	name, body, ok := strings.Cut(s, "{")
	if !ok || !strings.HasSuffix(body, "}") {
		return Rule{}, &ParseError{Text: s, Reason: "rule must look like name{...}"}
	}
	if !ValidName(name) || Label(name).Terminal() {
		return Rule{}, &ParseError{Text: s, Reason: "invalid rule name"}
	}
	body = strings.TrimSuffix(body, "}")

	rule := Rule{Name: name}
	var pieces []string
	for _, piece := range byPiece(body, ",") {
		pieces = append(pieces, piece)
	}

	last := len(pieces) - 1
	for _, piece := range pieces[:last] {
		c, err := ParseCondition(piece)
		if err != nil {
			return Rule{}, err
		}
		rule.Conditions = append(rule.Conditions, c)
	}

	def, ok := parseLabel(pieces[last])
	if !ok {
		return Rule{}, &ParseError{Text: s, Reason: "invalid default target"}
	}
	rule.Default = def

	return rule, nil
}

// ParsePart parses "{x=787,m=2655,a=1222,s=2876}". Every category must be
// given exactly once, in any order.
func ParsePart(s string) (Part, error) {
	var (
		part Part
		seen [NumCategories]bool
	)
	body, ok := strings.CutPrefix(s, "{")
	if !ok || !strings.HasSuffix(body, "}") {
		return part, &ParseError{Text: s, Reason: "part must be enclosed in braces"}
	}
	body = strings.TrimSuffix(body, "}")

	for _, field := range byPiece(body, ",") {
		key, value, ok := strings.Cut(field, "=")
		if !ok || len(key) != 1 {
			return part, &ParseError{Text: s, Reason: "rating must look like c=N"}
		}
		c, err := ParseCategory(key[0])
		if err != nil {
			return part, &ParseError{Text: s, Reason: err.Error()}
		}
		if seen[c] {
			return part, &ParseError{Text: s, Reason: "duplicate rating " + c.String()}
		}
		v, err := strconv.Atoi(value)
		if err != nil {
			return part, &ParseError{Text: s, Reason: "rating is not an integer"}
		}
		part[c] = v
		seen[c] = true
	}

	for c, ok := range seen {
		if !ok {
			return part, &ParseError{Text: s, Reason: "missing rating " + Category(c).String()}
		}
	}
	return part, nil
}

// Parse reads workflows up to the first blank line and parts after it.
// The parts section may be absent.
func Parse(r io.Reader) (*Document, error) {
	var (
		rules   []Rule
		parts   []Part
		inParts bool
		lineNo  int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			if len(rules) > 0 {
				inParts = true
			}
			continue
		}

		if inParts {
			p, err := ParsePart(line)
			if err != nil {
				return nil, withLine(err, lineNo)
			}
			parts = append(parts, p)
			continue
		}

		rule, err := ParseRule(line)
		if err != nil {
			return nil, withLine(err, lineNo)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	table, err := NewTable(rules...)
	if err != nil {
		return nil, err
	}

	return &Document{Table: table, Parts: parts}, nil
}

func withLine(err error, line int) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Line = line
	}
	return err
}
