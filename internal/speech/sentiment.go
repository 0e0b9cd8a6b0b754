package speech

import "strings"

// #region lexicon

var lexPos = map[string]bool{
	"great": true, "awesome": true, "amazing": true, "wonderful": true,
	"perfect": true, "fantastic": true, "love": true, "happy": true,
	"glad": true, "cool": true, "nice": true, "excellent": true,
}

var lexNeg = map[string]bool{
	"angry": true, "annoyed": true, "frustrated": true, "upset": true,
	"tired": true, "exhausted": true, "stressed": true, "sad": true,
	"terrible": true, "horrible": true, "awful": true, "hate": true,
	"bad": true, "disappointed": true,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "hardly": true,
	"barely": true, "scarcely": true,
}

var boosters = map[string]bool{
	"very": true, "so": true, "really": true, "extremely": true, "super": true,
}

var diminishers = map[string]bool{
	"slightly": true, "somewhat": true, "kinda": true,
}

// #endregion lexicon

// #region scoring

func tokenize(t string) []string {
	t = strings.ReplaceAll(t, "!", " ! ")
	return strings.Fields(strings.ToLower(t))
}

// score runs lexicon scoring with negation/boost/diminish modifiers scanned
// in a three-token backward window, clamped to [-2.5, 2.5] and normalized to
// [-1, 1].
func score(tokens []string) float64 {
	const window = 3
	s := 0.0
	for i, w := range tokens {
		val := 0.0
		if lexPos[w] {
			val = 1.0
		} else if lexNeg[w] {
			val = -1.0
		}
		if val == 0.0 {
			continue
		}

		negated := false
		boost := 1.0
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		for j := lo; j < i; j++ {
			switch {
			case negators[tokens[j]]:
				negated = !negated
			case boosters[tokens[j]]:
				boost += 0.25
			case diminishers[tokens[j]]:
				boost -= 0.25
			}
		}

		if negated {
			val = -val
		}
		s += val * boost
	}

	for _, w := range tokens {
		if w == "!" {
			s += 0.2
			break
		}
	}

	if s > 2.5 {
		s = 2.5
	}
	if s < -2.5 {
		s = -2.5
	}
	return s / 2.5
}

// #endregion scoring

// #region mood

// GetMood maps the normalized sentiment score to a discrete mood with a
// small deadband around zero.
func GetMood(text string) Mood {
	t := strings.TrimSpace(text)
	if t == "" {
		return MoodNeutral
	}
	s := score(tokenize(t))
	if s > 0.15 {
		return MoodPositive
	}
	if s < -0.15 {
		return MoodNegative
	}
	return MoodNeutral
}

// GetScore returns the normalized sentiment score in [-1, 1].
func GetScore(text string) float64 {
	return score(tokenize(text))
}

// #endregion mood
