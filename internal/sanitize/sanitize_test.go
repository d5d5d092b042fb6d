package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_StripsMarkup(t *testing.T) {
	s := New()

	assert.Equal(t, "hello", s.Text(`<script>alert(1)</script><b>hello</b>`))
	assert.Equal(t, "Tom & Jerry", s.Text("  Tom & Jerry "))
	assert.Equal(t, "", s.Text(`<img src="x" onerror="alert(1)">`))
}

func TestText_EntityEncodedMarkupStaysInert(t *testing.T) {
	s := New()

	assert.Equal(t, "", s.Text("&lt;script&gt;alert(1)&lt;/script&gt;"))
	assert.Equal(t, "hi", s.Text("&lt;b&gt;hi&lt;/b&gt;"))

	got := s.Text("&amp;lt;img src=x onerror=alert(1)&amp;gt;")
	assert.NotContains(t, got, "<img")
	assert.NotContains(t, got, "onerror")
}

func TestText_PlainTextRoundTrips(t *testing.T) {
	s := New()

	assert.Equal(t, "a < b and c > d", s.Text("a < b and c > d"))
	assert.Equal(t, `"quoted" & 'single'`, s.Text(`"quoted" & 'single'`))
}

func TestOptional(t *testing.T) {
	s := New()

	assert.Nil(t, s.Optional(""))
	assert.Nil(t, s.Optional("   "))
	assert.Nil(t, s.Optional("<br>"))

	got := s.Optional(" Acme Ltd ")
	require.NotNil(t, got)
	assert.Equal(t, "Acme Ltd", *got)
}

func TestPointer(t *testing.T) {
	s := New()

	assert.Nil(t, s.Pointer(nil))

	empty := ""
	got := s.Pointer(&empty)
	require.NotNil(t, got)
	assert.Equal(t, "", *got)

	name := "<i>Jane</i>"
	got = s.Pointer(&name)
	require.NotNil(t, got)
	assert.Equal(t, "Jane", *got)
}
