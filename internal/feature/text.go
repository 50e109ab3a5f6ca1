package feature

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	digitRe     = regexp.MustCompile(`\d`)
	sentenceRe  = regexp.MustCompile(`[.!?]+`)
	powerWordRe = regexp.MustCompile(`(?i)best|top|guide|how|why|tips|tricks|secrets|amazing|powerful`)
	positiveRe  = regexp.MustCompile(`(?i)best|great|excellent|amazing|perfect|wonderful|fantastic`)
	ctaRe       = regexp.MustCompile(`(?i)learn|discover|find|get|shop|buy|read|click|visit`)
)

// textFeatures derives per-field text statistics and, when at least one text
// field exists, fits (or reuses) the bag-of-ngrams vectorizer over the
// concatenation of all text fields.
func (p *Pipeline) textFeatures(f *Frame, fit bool) error {
	var textFields []string

	if titles, ok := f.Text("title_tag"); ok {
		n := f.Len()
		wordCount := make([]float64, n)
		charCount := make([]float64, n)
		hasNumber := make([]float64, n)
		hasQuestion := make([]float64, n)
		hasPower := make([]float64, n)
		titleCase := make([]float64, n)
		positive := make([]float64, n)
		for i, t := range titles {
			wordCount[i] = float64(len(strings.Fields(t)))
			charCount[i] = float64(len(t))
			hasNumber[i] = boolFlag(digitRe.MatchString(t))
			hasQuestion[i] = boolFlag(strings.Contains(t, "?"))
			hasPower[i] = boolFlag(powerWordRe.MatchString(t))
			titleCase[i] = boolFlag(t != "" && isTitleCase(t))
			positive[i] = boolFlag(positiveRe.MatchString(t))
		}
		f.SetNumeric("title_word_count", wordCount)
		f.SetNumeric("title_char_count", charCount)
		f.SetNumeric("title_has_number", hasNumber)
		f.SetNumeric("title_has_question", hasQuestion)
		f.SetNumeric("title_has_power_word", hasPower)
		f.SetNumeric("title_is_title_case", titleCase)
		f.SetNumeric("title_positive_sentiment", positive)
		textFields = append(textFields, "title_tag")
	}

	if metas, ok := f.Text("meta_description"); ok {
		n := f.Len()
		wordCount := make([]float64, n)
		charCount := make([]float64, n)
		hasCTA := make([]float64, n)
		for i, m := range metas {
			wordCount[i] = float64(len(strings.Fields(m)))
			charCount[i] = float64(len(m))
			hasCTA[i] = boolFlag(ctaRe.MatchString(m))
		}
		f.SetNumeric("meta_word_count", wordCount)
		f.SetNumeric("meta_char_count", charCount)
		f.SetNumeric("meta_has_cta", hasCTA)
		textFields = append(textFields, "meta_description")
	}

	if contents, ok := f.Text("content"); ok {
		n := f.Len()
		wordCount := make([]float64, n)
		sentences := make([]float64, n)
		paragraphs := make([]float64, n)
		avgSentence := make([]float64, n)
		questionDensity := make([]float64, n)
		for i, c := range contents {
			words := float64(len(strings.Fields(c)))
			sents := float64(len(sentenceRe.FindAllString(c, -1)))
			wordCount[i] = words
			sentences[i] = sents
			paragraphs[i] = float64(strings.Count(c, "\n\n") + 1)
			if sents > 0 {
				avgSentence[i] = words / sents
			}
			if words > 0 {
				questionDensity[i] = float64(strings.Count(c, "?")) / words * 1000
			}
		}
		f.SetNumeric("content_word_count", wordCount)
		f.SetNumeric("content_sentence_count", sentences)
		f.SetNumeric("content_paragraph_count", paragraphs)
		f.SetNumeric("avg_sentence_length", avgSentence)
		f.SetNumeric("question_density", questionDensity)
		textFields = append(textFields, "content")
	}

	if len(textFields) == 0 {
		return nil
	}

	// Combined document per row for the vectorizer.
	docs := make([]string, f.Len())
	for _, field := range textFields {
		col, _ := f.Text(field)
		for i, v := range col {
			if docs[i] != "" && v != "" {
				docs[i] += " "
			}
			docs[i] += v
		}
	}

	if fit {
		p.vectorizer = NewVectorizer(p.opts.VocabSize)
		p.vectorizer.Fit(docs)
	}
	if p.vectorizer == nil {
		return nil
	}
	dense := p.vectorizer.Transform(docs)
	for j, term := range p.vectorizer.Vocabulary() {
		col := make([]float64, f.Len())
		for i := range col {
			col[i] = dense[i][j]
		}
		f.SetNumeric("ngram_"+sanitizeTerm(term), col)
	}
	return nil
}

func boolFlag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func isTitleCase(s string) bool {
	for _, word := range strings.Fields(s) {
		r := []rune(word)[0]
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func sanitizeTerm(term string) string {
	return strings.ReplaceAll(term, " ", "_")
}
