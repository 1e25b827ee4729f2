package layout

import "strings"

// Wrap partitions the words of text into lines whose shaped width does not
// exceed maxWidth at the given size. It is greedy first-fit: a word is kept
// on the current line if the shaped line including it still fits, otherwise
// the current line is closed and the word starts the next one.
//
// Measurement always applies to the shaped, reordered string. A single word
// wider than maxWidth gets a line of its own and overflows.
func (e *Engine) Wrap(text string, size, maxWidth float64) []DisplayLine {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []DisplayLine
	var current []string
	var committed DisplayLine

	for _, word := range words {
		tentative := append(current, word)
		candidate := e.line(strings.Join(tentative, " "), size)
		if len(current) == 0 || candidate.Width <= maxWidth {
			current = tentative
			committed = candidate
			continue
		}
		lines = append(lines, committed)
		current = []string{word}
		committed = e.line(word, size)
	}
	if len(current) > 0 {
		lines = append(lines, committed)
	}
	return lines
}
