package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/snapcard/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
)

// ParseFile reads a file from the given path and extracts all pairs.
func ParseFile(path string) ([]domain.Pair, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// ParseString extracts all pairs from s.
func ParseString(s string) []domain.Pair {
	// Reading from a strings.Reader only fails on lines longer than the
	// scanner buffer, which Parse sizes to fit.
	pairs, _ := Parse(strings.NewReader(s))
	return pairs
}

// Parse reads "Q:" / "A:" text from r and extracts all complete pairs.
//
// A "Q:" line starts a new pair and an "A:" line starts its answer, which may
// also follow the question on the same line. Other lines continue the field
// being read. A "---" line ends the pair. "C:" context blocks are skipped.
// Pairs without both a question and an answer are dropped.
func Parse(r io.Reader) ([]domain.Pair, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pairs []domain.Pair
	var question, answer []string
	currentState := seeking

	finishPair := func() {
		q := strings.TrimSpace(strings.Join(question, "\n"))
		a := strings.TrimSpace(strings.Join(answer, "\n"))
		if q != "" && a != "" {
			pairs = append(pairs, domain.Pair{Question: q, Answer: a})
		}
		question, answer = nil, nil
		currentState = seeking
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == separator:
			finishPair()
		case strings.HasPrefix(trimmed, questionPrefix):
			if currentState != seeking { // A new question always starts a new pair
				finishPair()
			}
			q, a, inline := splitInlineAnswer(stripPrefix(trimmed, questionPrefix))
			question = append(question, q)
			currentState = readingQuestion
			if inline {
				answer = append(answer, a)
				currentState = readingAnswer
			}
		case strings.HasPrefix(trimmed, answerPrefix):
			if currentState == seeking {
				continue // an answer without a question
			}
			answer = append(answer, stripPrefix(trimmed, answerPrefix))
			currentState = readingAnswer
		case strings.HasPrefix(trimmed, contextPrefix):
			if currentState != seeking {
				currentState = readingContext
			}
		default:
			switch currentState {
			case readingQuestion:
				question = append(question, line)
			case readingAnswer:
				answer = append(answer, line)
			}
		}
	}

	finishPair() // Finish the very last pair in the input

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return pairs, nil
}

func stripPrefix(line, prefix string) string {
	return strings.TrimSpace(line[len(prefix):])
}

// splitInlineAnswer splits "question? A: answer" written on one line.
func splitInlineAnswer(s string) (question, answer string, ok bool) {
	for i := 0; i+len(answerPrefix) <= len(s); i++ {
		if !strings.HasPrefix(s[i:], answerPrefix) {
			continue
		}
		if i > 0 && s[i-1] != ' ' && s[i-1] != '\t' {
			continue
		}
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(answerPrefix):]), true
	}
	return s, "", false
}
