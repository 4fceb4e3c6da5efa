package cli

import (
	"slices"
	"strings"

	"facette.io/natsort"
	"github.com/manifoldco/promptui"
)

const doneChoice = "[Done]"

// sortedUnique returns choices in natural order with duplicates removed.
func sortedUnique(choices []string) []string {
	out := slices.Clone(choices)
	natsort.Sort(out)

	return slices.Compact(out)
}

// prefixSearcher matches items by case-insensitive prefix. Items for which
// skip returns true never match.
func prefixSearcher(items []string, skip func(int) bool) func(string, int) bool {
	return func(input string, index int) bool {
		if skip != nil && skip(index) {
			return false
		}

		if len(input) == 0 {
			return false
		}

		return strings.HasPrefix(strings.ToLower(items[index]), strings.ToLower(input))
	}
}

// Select asks the user to pick one of choices, listed in natural order.
func Select(label string, choices ...string) (string, error) {
	if len(choices) == 0 {
		return "", nil
	}

	names := sortedUnique(choices)

	sel := &promptui.Select{
		Label:    label,
		Items:    names,
		Size:     len(names),
		Searcher: prefixSearcher(names, nil),
	}

	_, value, err := sel.Run()

	return value, err
}

// MultiSelect asks the user to pick any number of choices, one at a time,
// until they pick [Done] or nothing is left. The result keeps the order of
// choices.
func MultiSelect(label string, choices ...string) ([]string, error) {
	if len(choices) == 0 {
		return nil, nil
	}

	remaining := sortedUnique(choices)
	selected := make(map[string]bool, len(remaining))

	for len(remaining) > 0 {
		items := append([]string{doneChoice}, remaining...)

		sel := &promptui.Select{
			Label: label,
			Items: items,
			Searcher: prefixSearcher(items, func(index int) bool {
				return index == 0
			}),
		}

		idx, value, err := sel.Run()
		if err != nil {
			return nil, err
		}

		if idx == 0 {
			break
		}

		selected[value] = true
		remaining = slices.DeleteFunc(remaining, func(s string) bool {
			return s == value
		})
	}

	var out []string

	for _, c := range choices {
		if selected[c] {
			out = append(out, c)
			delete(selected, c)
		}
	}

	return out, nil
}
