package page

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<!doctype html>
<html><head>
  <link REL="Shortcut Icon" href="/favicon.ico">
  <meta name="robots" content="noindex">
  <script src="https://cdn.example.net/app.js"></script>
  <script>window.open("x")</script>
</head>
<body oncontextmenu="return false">
  <a href="/home">Home</a>
  <a href="#">Top</a>
  <a>none</a>
  <img src="logo.png"><iframe src="https://ads.example.org/"></iframe>
  <p>contact mailto:owner@example.com</p>
</body></html>`

func TestParseAndQuery(t *testing.T) {
	m := Parse(sample)
	require.False(t, m.IsEmpty())

	anchors := m.All("a")
	require.Len(t, anchors, 3)
	assert.Equal(t, "/home", anchors[0].AttrOr("href"))
	assert.Equal(t, "Home", anchors[0].Text())
	assert.False(t, anchors[2].HasAttr("href"))

	media := m.All("img", "iframe")
	require.Len(t, media, 2)
	assert.Equal(t, "img", media[0].Tag)
	assert.Equal(t, "iframe", media[1].Tag)

	icons := m.Matching("link", []string{"rel"}, func(_, v string) bool {
		return strings.Contains(strings.ToLower(v), "icon")
	})
	require.Len(t, icons, 1)
	assert.Equal(t, "/favicon.ico", icons[0].AttrOr("HREF"))

	body, ok := m.First("body")
	require.True(t, ok)
	assert.True(t, body.HasAttr("oncontextmenu"))

	assert.Contains(t, m.Text(), "mailto:owner@example.com")
	assert.Contains(t, m.Text(), `window.open("x")`)
}

func TestEmptyModel(t *testing.T) {
	for _, m := range []*Model{Empty(), Parse(""), Parse("   \n"), nil} {
		assert.True(t, m.IsEmpty())
		assert.Nil(t, m.All("a"))
		assert.Nil(t, m.Matching("link", []string{"rel"}, func(string, string) bool { return true }))
		_, ok := m.First("body")
		assert.False(t, ok)
		assert.Equal(t, "", m.Text())
	}
}

func TestParseToleratesBrokenMarkup(t *testing.T) {
	m := Parse("<html><body><a href='x'>unterminated <form action=")
	assert.False(t, m.IsEmpty())
	assert.Len(t, m.All("a"), 1)
}
