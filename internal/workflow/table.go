package workflow

// Table maps rule names to rules. It is not modified after construction.
type Table struct {
	rules map[string]*Rule
	order []string
}

func NewTable(rules ...Rule) (*Table, error) {
	t := &Table{
		rules: make(map[string]*Rule, len(rules)),
		order: make([]string, 0, len(rules)),
	}
	for i := range rules {
		r := rules[i]
		if _, ok := t.rules[r.Name]; ok {
			return nil, &ConfigurationError{Kind: ErrDuplicateRule, Rule: r.Name}
		}
		t.rules[r.Name] = &r
		t.order = append(t.order, r.Name)
	}
	return t, nil
}

func (t *Table) Rule(name string) (*Rule, bool) {
	r, ok := t.rules[name]
	return r, ok
}

func (t *Table) Len() int {
	return len(t.order)
}

// Rules returns the rules in declaration order.
func (t *Table) Rules() []*Rule {
	rules := make([]*Rule, len(t.order))
	for i, name := range t.order {
		rules[i] = t.rules[name]
	}
	return rules
}

// Check reports the first dangling reference of any rule, reachable or not.
func (t *Table) Check() error {
	for _, r := range t.Rules() {
		for _, target := range r.Targets() {
			if target.Terminal() {
				continue
			}
			if _, ok := t.rules[string(target)]; !ok {
				return &ConfigurationError{
					Kind: ErrDanglingReference, Rule: r.Name, Target: target,
				}
			}
		}
	}
	return nil
}

// Validate checks every rule reachable from entry for dangling references
// and cycles.
func (t *Table) Validate(entry string) error {
	if _, ok := t.rules[entry]; !ok {
		return &ConfigurationError{Kind: ErrUnknownEntry, Rule: entry}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(t.rules))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return &ConfigurationError{Kind: ErrRuleCycle, Rule: name}
		case done:
			return nil
		}
		state[name] = visiting
		r := t.rules[name]
		for _, target := range r.Targets() {
			if target.Terminal() {
				continue
			}
			if _, ok := t.rules[string(target)]; !ok {
				return &ConfigurationError{
					Kind: ErrDanglingReference, Rule: name, Target: target,
				}
			}
			if err := visit(string(target)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	return visit(entry)
}
