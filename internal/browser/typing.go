package browser

import (
	"math/rand"
	"time"

	"github.com/chromedp/chromedp"
)

const baseKeyDelay = 60 * time.Millisecond

// humanType types text one key at a time with jittered delays. Repeated
// characters are typed faster.
func humanType(text string) []chromedp.Action {
	chars := []rune(text)
	actions := make([]chromedp.Action, 0, len(chars)*2)

	for i, char := range chars {
		actions = append(actions, chromedp.KeyEvent(string(char)))

		delay := baseKeyDelay + time.Duration(rand.Int63n(int64(baseKeyDelay/2)))
		if rand.Float64() < 0.05 {
			delay += time.Duration(rand.Intn(400)) * time.Millisecond
		}
		if i > 0 && chars[i-1] == char {
			delay /= 2
		}
		actions = append(actions, chromedp.Sleep(delay))
	}
	return actions
}

// typingBudget is the worst-case extra time humanType needs for text.
func typingBudget(text string, human bool) time.Duration {
	if !human {
		return 0
	}
	n := time.Duration(len([]rune(text)))
	return n * (baseKeyDelay*3/2 + 400*time.Millisecond)
}
