package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                          "/worker/",
		"/debts/":                   "/debts/",
		"/finance/?date_filter=all": "/finance/?date_filter=all",
		"https://evil.com":          "/worker/",
		"//evil.com":                "/worker/",
		"/\\evil.com":               "/worker/",
		"/\t/evil.com":              "/worker/",
		"/debts/\\x":                "/worker/",
		"evil.com":                  "/worker/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeNext(in), "next=%q", in)
	}
}
