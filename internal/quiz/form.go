package quiz

import (
	"mime/multipart"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// The client submits quizzes as a flat multipart form with bracket-indexed
// keys, e.g.
//
//	questions[0][text]
//	questions[0][image]                       (file part)
//	questions[0][choices][1][is_correct]
//
// ParseQuizForm folds that flat mapping back into a nested tree. Keys whose
// index is not numeric simply fail the pattern match and are skipped.
var (
	choiceKeyRe   = regexp.MustCompile(`^questions\[(\d+)\]\[choices\]\[(\d+)\]\[([A-Za-z_][A-Za-z0-9_]*)\]$`)
	questionKeyRe = regexp.MustCompile(`^questions\[(\d+)\]\[([A-Za-z_][A-Za-z0-9_]*)\]$`)
)

// FormChoice carries raw field values; boolean coercion of IsCorrect is the
// merge engine's job so that all validation failures surface together.
type FormChoice struct {
	Text      string
	IsCorrect string
}

type FormQuestion struct {
	Text    string
	Image   *multipart.FileHeader
	Choices []FormChoice
}

// FormTree is the transient nested structure produced from one request. It
// is never persisted.
type FormTree struct {
	Title       string
	Description string
	Questions   []FormQuestion
}

type formQuestionBucket struct {
	text    string
	image   *multipart.FileHeader
	choices map[int]*FormChoice
}

// ParseQuizForm reconstructs the nested question/choice tree from flat form
// values and the parallel file mapping. Question and choice order follows
// the numeric index parsed out of the keys, not the order keys arrive in;
// index gaps shorten the sequence instead of erroring.
func ParseQuizForm(values url.Values, files map[string][]*multipart.FileHeader) *FormTree {
	tree := &FormTree{
		Title:       strings.TrimSpace(values.Get("title")),
		Description: strings.TrimSpace(values.Get("description")),
	}

	buckets := map[int]*formQuestionBucket{}
	bucket := func(idx int) *formQuestionBucket {
		b, ok := buckets[idx]
		if !ok {
			b = &formQuestionBucket{choices: map[int]*FormChoice{}}
			buckets[idx] = b
		}
		return b
	}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]

		if m := choiceKeyRe.FindStringSubmatch(key); m != nil {
			qi, _ := strconv.Atoi(m[1])
			ci, _ := strconv.Atoi(m[2])
			b := bucket(qi)
			c, ok := b.choices[ci]
			if !ok {
				c = &FormChoice{}
				b.choices[ci] = c
			}
			switch m[3] {
			case "text":
				c.Text = v
			case "is_correct":
				c.IsCorrect = v
			}
			continue
		}

		if m := questionKeyRe.FindStringSubmatch(key); m != nil {
			qi, _ := strconv.Atoi(m[1])
			if m[2] == "text" {
				bucket(qi).text = v
			}
		}
	}

	// Files only bind at the question level; there is no choice-level
	// upload key shape.
	for key, headers := range files {
		if len(headers) == 0 || headers[0] == nil {
			continue
		}
		m := questionKeyRe.FindStringSubmatch(key)
		if m == nil || m[2] != "image" {
			continue
		}
		qi, _ := strconv.Atoi(m[1])
		bucket(qi).image = headers[0]
	}

	tree.Questions = materializeQuestions(buckets)
	return tree
}

func materializeQuestions(buckets map[int]*formQuestionBucket) []FormQuestion {
	if len(buckets) == 0 {
		return nil
	}

	qIdx := make([]int, 0, len(buckets))
	for i := range buckets {
		qIdx = append(qIdx, i)
	}
	sort.Ints(qIdx)

	out := make([]FormQuestion, 0, len(qIdx))
	for _, i := range qIdx {
		b := buckets[i]

		cIdx := make([]int, 0, len(b.choices))
		for j := range b.choices {
			cIdx = append(cIdx, j)
		}
		sort.Ints(cIdx)

		choices := make([]FormChoice, 0, len(cIdx))
		for _, j := range cIdx {
			choices = append(choices, *b.choices[j])
		}

		out = append(out, FormQuestion{
			Text:    b.text,
			Image:   b.image,
			Choices: choices,
		})
	}
	return out
}
