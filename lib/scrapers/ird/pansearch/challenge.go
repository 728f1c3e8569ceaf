package pansearch

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"ird-scraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrChallengeNotFound = errors.New("captcha or token not found")
	ErrChallengeConsumed = errors.New("challenge was already submitted")
)

// Challenge is the solved captcha of one search page load together with the
// anti-forgery token and session cookies that came with it. the server ties
// all three to a single submission, so a Challenge can only be used once.
type Challenge struct {
	Question string
	Token    string
	Answer   int
	Cookies  []*http.Cookie

	consumed bool
}

// Consume marks the challenge as submitted.
func (c *Challenge) Consume() error {
	if c.consumed {
		return ErrChallengeConsumed
	}
	c.consumed = true
	return nil
}

func (c *Challenge) Consumed() bool {
	return c.consumed
}

var (
	// raw markup may space the question with &nbsp;
	questionRegex = regexp.MustCompile(`What(?:\s|\x{a0}|&nbsp;)+is(?:\s|\x{a0}|&nbsp;)*(\d+)(?:\s|\x{a0}|&nbsp;)*([+\-*xX×])(?:\s|\x{a0}|&nbsp;)*(\d+)`)
	tokenRegex    = regexp.MustCompile(`name="_token"\s+value="([^"]+)"`)
	tokenValue    = regexp.MustCompile(`[A-Za-z0-9]{40}`)
)

func solve(a int, op string, b int) (int, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*", "x", "X", "×":
		return a * b, nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrChallengeNotFound, op)
}

func findToken(doc *goquery.Document, body string) string {
	if doc != nil {
		token := doc.Find("input[name=_token]").First().AttrOr("value", "")
		if token != "" {
			return token
		}
	}
	groups := tokenRegex.FindStringSubmatch(body)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

// findQuestion looks in the captcha's label first, then in the text around
// the captcha input and only then in the rest of the page, other prose on the
// page can read like a question too. the raw markup is the last resort.
func findQuestion(doc *goquery.Document, body string) []string {
	if doc != nil {
		scopes := []*goquery.Selection{
			doc.Find("label[for=captcha]"),
			doc.Find("input[name=captcha]").Parent(),
			doc.Selection,
		}
		for _, scope := range scopes {
			for _, node := range scope.Nodes {
				groups := questionRegex.FindStringSubmatch(htmlutil.GetCleanText(node))
				if len(groups) == 4 {
					return groups
				}
			}
		}
	}
	return questionRegex.FindStringSubmatch(body)
}

// ParseChallenge reads the arithmetic question and the _token value out of
// the search page markup and solves the question.
func ParseChallenge(body string) (Challenge, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		doc = nil
	}

	groups := findQuestion(doc, body)
	if len(groups) < 4 {
		return Challenge{}, fmt.Errorf("%w: no question", ErrChallengeNotFound)
	}
	a, err := strconv.Atoi(groups[1])
	if err != nil {
		return Challenge{}, fmt.Errorf("%w: %w", ErrChallengeNotFound, err)
	}
	b, err := strconv.Atoi(groups[3])
	if err != nil {
		return Challenge{}, fmt.Errorf("%w: %w", ErrChallengeNotFound, err)
	}
	answer, err := solve(a, groups[2], b)
	if err != nil {
		return Challenge{}, err
	}

	token := tokenValue.FindString(findToken(doc, body))
	if token == "" {
		return Challenge{}, fmt.Errorf("%w: no token", ErrChallengeNotFound)
	}

	return Challenge{
		Question: groups[0],
		Token:    token,
		Answer:   answer,
	}, nil
}
