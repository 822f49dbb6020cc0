package fetch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNeedsJS(t *testing.T) {
	t.Parallel()

	fullPage := "<html><body>" + strings.Repeat("<p>listing content</p>", 200) + "</body></html>"

	cases := []struct {
		name string
		body string
		want bool
	}{
		{"rendered page", fullPage, false},
		{"tiny shell", "<html><div id='root'></div></html>", true},
		{"explicit js notice", fullPage + "You need to enable JavaScript to run this app.", true},
		{"polish js notice", fullPage + "Włącz obsługę JavaScript", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, reason := NeedsJS([]byte(tc.body), 2048)
			require.Equal(t, tc.want, got)
			if tc.want {
				require.NotEmpty(t, reason)
			}
		})
	}
}
