package hub

import (
	"strings"

	"github.com/lmorg/readline"

	"github.com/paiml/ruchy-sub025/source/text"
)

// StartRepl reads lines until the user quits. A line ending in '{' keeps
// reading until the braces balance, so multiline cells paste naturally.
func StartRepl(hub *Hub) {
	rline := readline.NewInstance()
	hub.WriteString(text.Logo())
	for {
		rline.SetPrompt(makePrompt(hub, false))
		line, _ := rline.Readline()
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for openBraces(line) > 0 {
			rline.SetPrompt(makePrompt(hub, true))
			more, _ := rline.Readline()
			line = line + "\n" + more
		}

		if hub.Do(line) {
			break
		}
	}
}

func makePrompt(hub *Hub, indented bool) string {
	if indented {
		return strings.Repeat(" ", len(hub.CurrentSessionName())) + " … "
	}
	return hub.CurrentSessionName() + " " + text.PROMPT
}

func openBraces(s string) int {
	count := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			if i == 0 || s[i-1] != '\\' {
				inString = !inString
			}
		case '{':
			if !inString {
				count++
			}
		case '}':
			if !inString {
				count--
			}
		}
	}
	return count
}
