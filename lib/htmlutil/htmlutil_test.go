package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetCleanText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><head><style>p { color: red }</style></head><body>
		<label for="captcha">What is <b>4</b>
			+ 5 ?</label>
		<script>var a = "What is 1 + 1";</script>
	</body></html>`))
	require.NoError(t, err)

	require.Equal(t, "What is 4 + 5 ?", GetCleanText(doc))
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{in: "  HIMALAYAN\u00a0\u00a0TRADERS \n", expected: "HIMALAYAN TRADERS"},
		{in: "a\u200bb", expected: "ab"},
		{in: "", expected: ""},
		{in: "What is\u00a03+4", expected: "What is 3+4"},
		{in: "\u00a0\u00a0IRO\u00a0\u00a0Kathmandu\u00a0", expected: "IRO Kathmandu"},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, CleanText(test.in))
	}
}
