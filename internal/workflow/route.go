package workflow

// Route follows p through the table from entry and returns the terminal it
// ends up in.
func Route(t *Table, entry string, p Part) (Label, error) {
	if _, ok := t.Rule(entry); !ok {
		return "", &ConfigurationError{Kind: ErrUnknownEntry, Rule: entry}
	}

	var (
		label = Label(entry)
		from  string
		seen  = make(map[string]bool)
	)
	for !label.Terminal() {
		r, ok := t.Rule(string(label))
		if !ok {
			return "", &ConfigurationError{
				Kind: ErrDanglingReference, Rule: from, Target: label,
			}
		}
		if seen[r.Name] {
			return "", &ConfigurationError{Kind: ErrRuleCycle, Rule: r.Name}
		}
		seen[r.Name] = true
		from, label = r.Name, r.Next(p)
	}
	return label, nil
}

// SumAccepted adds up the ratings of every part that is accepted.
func SumAccepted(t *Table, entry string, parts []Part) (int, error) {
	sum := 0
	for _, p := range parts {
		label, err := Route(t, entry, p)
		if err != nil {
			return 0, err
		}
		if label == Accept {
			sum += p.Rating()
		}
	}
	return sum, nil
}

type Answer struct {
	AcceptedRatingSum    int   `json:"accepted_rating_sum"`
	AcceptedCombinations int64 `json:"accepted_combinations"`
}

// Solve computes both answers for a parsed document.
func Solve(doc *Document, entry string, b Box) (Answer, error) {
	var (
		ans Answer
		err error
	)
	ans.AcceptedRatingSum, err = SumAccepted(doc.Table, entry, doc.Parts)
	if err != nil {
		return Answer{}, err
	}
	ans.AcceptedCombinations, err = Count(doc.Table, entry, b)
	if err != nil {
		return Answer{}, err
	}
	return ans, nil
}
