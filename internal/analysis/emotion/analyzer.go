package emotion

import (
	"strings"

	"github.com/auraproject/aura/internal/model/turn"
)

// Decision carries the scored outcome of the heuristic pass.
type Decision struct {
	Emotion turn.EmotionTag
	Score   int
}

var keywordBuckets = map[turn.EmotionTag][]string{
	turn.EmotionHappy: {
		"thanks", "thank you", "awesome", "great", "amazing", "love", "nice",
		"perfect", "haha", "lol", "well done", "good job", "brilliant", "wonderful",
	},
	turn.EmotionCurious: {
		"how does", "how do", "why does", "why is", "what is", "what are",
		"tell me about", "i wonder", "curious", "explain", "what happens if",
	},
	turn.EmotionUrgent: {
		"now", "right now", "immediately", "quick", "quickly", "hurry", "asap",
		"urgent", "emergency", "fast", "at once",
	},
	turn.EmotionFrustrated: {
		"not working", "doesn't work", "didn't work", "broken", "again", "still",
		"annoying", "stupid", "useless", "ugh", "frustrated", "angry", "fed up",
		"why won't", "wrong",
	},
}

var punctuationBoost = map[turn.EmotionTag]int{
	turn.EmotionHappy:  2,
	turn.EmotionUrgent: 3,
}

// Analyze infers the user's emotion from the utterance alone, with the most
// recent prior utterance as a weak secondary signal. Neutral when nothing
// scores.
func Analyze(utterance, previous string) Decision {
	current := scoreText(utterance)
	if current.Score > 0 {
		return current
	}

	// A turn with no signal of its own inherits a dampened reading of the
	// previous one, so short follow-ups ("and then?") keep their mood.
	prior := scoreText(previous)
	if prior.Score > 0 {
		return Decision{Emotion: prior.Emotion, Score: prior.Score / 2}
	}

	return Decision{Emotion: turn.EmotionNeutral, Score: 0}
}

func scoreText(text string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{Emotion: turn.EmotionNeutral, Score: 0}
	}

	scores := make(map[turn.EmotionTag]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	exclamations := strings.Count(text, "!")
	if exclamations > 0 {
		scores[turn.EmotionUrgent] += exclamations * punctuationBoost[turn.EmotionUrgent]
		if exclamations == 1 {
			scores[turn.EmotionHappy] += punctuationBoost[turn.EmotionHappy]
		}
	}
	if strings.Contains(text, "?") && scores[turn.EmotionFrustrated] == 0 {
		scores[turn.EmotionCurious]++
	}

	best := turn.EmotionNeutral
	bestScore := 0
	for label, s := range scores {
		if s > bestScore {
			bestScore = s
			best = label
		}
	}

	return Decision{Emotion: best, Score: bestScore}
}
