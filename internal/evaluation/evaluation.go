// Package evaluation scores recognized text against a known transcript.
package evaluation

import (
	"strings"
	"unicode/utf8"

	"github.com/anime-shed/idcard-scanner-go/pkg/models"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// Evaluate compares recognized text with the expected transcript. Both are
// whitespace-normalized first. CER is the character edit distance divided by
// the reference length; WER is the word-level equivalent.
func Evaluate(expected, recognized string) models.Evaluation {
	ref := normalize(expected)
	hyp := normalize(recognized)

	distance := levenshtein.Distance(ref, hyp)
	return models.Evaluation{
		ExpectedText: expected,
		CER:          rate(distance, utf8.RuneCountInString(ref), hyp),
		WER:          wordErrorRate(ref, hyp),
		EditDistance: distance,
	}
}

func wordErrorRate(ref, hyp string) float64 {
	refWords := strings.Fields(ref)
	hypWords := strings.Fields(hyp)
	if len(refWords) == 0 {
		return rate(len(hypWords), 0, hyp)
	}
	score, _ := wer.WER(refWords, hypWords)
	return score
}

// rate divides errors by the reference length. An empty reference scores 0
// against empty output and 1 against anything else.
func rate(errors, refLen int, hyp string) float64 {
	if refLen == 0 {
		if hyp == "" {
			return 0
		}
		return 1
	}
	return float64(errors) / float64(refLen)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
