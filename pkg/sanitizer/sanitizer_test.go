package sanitizer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/biztrack/pkg/sanitizer"
)

func TestText(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"  Office   supplies ": "Office supplies",
		"line\none\r\ntwo":      "line one two",
		"tab\there\x07":         "tab here",
		"":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizer.Text(in), "%q", in)
	}
}

func TestNotes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "first\nsecond", sanitizer.Notes("  first\nsecond\x00 "))
}

func TestEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "user@example.com", sanitizer.Email("  User@Example.COM "))
	assert.Equal(t, "not-an-email", sanitizer.Email("Not-An-Email"))
}

func TestFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"receipt.jpg", "receipt.jpg"},
		{"/tmp/scans/receipt.png", "receipt.png"},
		{`C:\Users\me\receipt.png`, "receipt.png"},
		{"../../etc/passwd", "passwd"},
		{"bad:name?.jpg", "bad_name_.jpg"},
		{"..", "receipt"},
		{"", "receipt"},
		{" . ", "receipt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizer.Filename(tt.in, "receipt"), tt.in)
	}

	long := strings.Repeat("a", 300) + ".jpg"
	assert.Len(t, []rune(sanitizer.Filename(long, "receipt")), 255)
}

func TestAmount(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 10.13, sanitizer.Amount(10.125000001), 1e-9)
	assert.InDelta(t, -4.5, sanitizer.Amount(-4.499999), 1e-9)
	assert.Zero(t, sanitizer.Amount(0.004))
}

func TestCompose(t *testing.T) {
	t.Parallel()

	shout := sanitizer.Compose(sanitizer.Trim, strings.ToUpper)
	assert.Equal(t, "HI", shout("  hi "))
	assert.Equal(t, " hi ", sanitizer.Apply(" hi "), "no transforms")
}
