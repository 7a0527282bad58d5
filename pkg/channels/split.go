package channels

import "strings"

const (
	// Discord caps a message at 2000 characters; the chunk limit leaves room
	// to extend a chunk to the end of a code block.
	chunkLimit     = 1500
	fenceExtension = 400
	newlineWindow  = 200
	spaceWindow    = 100
)

// splitMessage cuts content into chunks of at most limit characters,
// preferring line and word boundaries and never splitting inside a code
// fence if the fence closes within the extension budget. Lengths are in
// runes because the Discord limit counts characters.
func splitMessage(content string, limit int) []string {
	var chunks []string
	runes := []rune(content)

	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}

		end := naturalBreak(runes[:limit])
		if end <= 0 {
			end = limit
		}

		if open := unclosedFence(runes[:end]); open >= 0 {
			end = fenceAwareEnd(runes, end, open, limit)
		}

		chunks = append(chunks, string(runes[:end]))
		runes = []rune(strings.TrimSpace(string(runes[end:])))
	}

	return chunks
}

// fenceAwareEnd moves a cut that would land inside a code block either past
// the closing fence or before the opening one.
func fenceAwareEnd(runes []rune, end, open, limit int) int {
	extended := limit + fenceExtension
	if len(runes) <= extended {
		return len(runes)
	}

	if closing := closingFenceEnd(runes, end); closing > 0 && closing <= extended {
		return closing
	}

	if cut := naturalBreak(runes[:open]); cut > 0 {
		return cut
	}
	if open > 0 {
		return open
	}
	return limit
}

func naturalBreak(runes []rune) int {
	if idx := lastIndexIn(runes, newlineWindow, func(r rune) bool { return r == '\n' }); idx > 0 {
		return idx
	}
	return lastIndexIn(runes, spaceWindow, func(r rune) bool { return r == ' ' || r == '\t' })
}

// lastIndexIn returns the last index within the trailing window of runes
// matching match, or -1.
func lastIndexIn(runes []rune, window int, match func(rune) bool) int {
	start := max(len(runes)-window, 0)
	for i := len(runes) - 1; i >= start; i-- {
		if match(runes[i]) {
			return i
		}
	}
	return -1
}

func isFence(runes []rune, i int) bool {
	return i+2 < len(runes) && runes[i] == '`' && runes[i+1] == '`' && runes[i+2] == '`'
}

// unclosedFence returns the index of the last opening fence without a
// closing partner, or -1 when all fences are balanced.
func unclosedFence(runes []rune) int {
	count, lastOpen := 0, -1
	for i := 0; i < len(runes); i++ {
		if isFence(runes, i) {
			if count%2 == 0 {
				lastOpen = i
			}
			count++
			i += 2
		}
	}
	if count%2 == 1 {
		return lastOpen
	}
	return -1
}

// closingFenceEnd returns the index just past the next fence at or after
// start, including one trailing newline, or -1.
func closingFenceEnd(runes []rune, start int) int {
	for i := start; i < len(runes); i++ {
		if isFence(runes, i) {
			end := i + 3
			if end < len(runes) && runes[end] == '\n' {
				end++
			}
			return end
		}
	}
	return -1
}
