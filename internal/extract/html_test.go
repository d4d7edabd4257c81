package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const termsPage = `<!DOCTYPE html>
<html>
<head><title> Terms of Service </title><style>body{color:red}</style></head>
<body>
<nav><a href="/">Home</a></nav>
<header>Acme Corp</header>
<main>
  <h1>Terms of Service</h1>
  <section>
    <h2>1. Acceptance</h2>
    <p>By using the service you agree to these terms.</p>
  </section>
  <section>
    <h2>2. Termination</h2>
    <p>We may terminate   your account
       at any time.</p>
    <ul><li>(a) without notice</li><li>(b) without refund</li></ul>
  </section>
  <script>track()</script>
</main>
<footer>Copyright</footer>
</body>
</html>`

func TestParseHTML_MainContent(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader(termsPage))
	require.NoError(t, err)

	assert.Equal(t, "Terms of Service", doc.Title)
	assert.Contains(t, doc.Text, "By using the service you agree to these terms.")
	assert.Contains(t, doc.Text, "We may terminate your account at any time.")
	assert.NotContains(t, doc.Text, "Home")
	assert.NotContains(t, doc.Text, "Acme Corp")
	assert.NotContains(t, doc.Text, "Copyright")
	assert.NotContains(t, doc.Text, "track()")
	assert.NotContains(t, doc.Text, "color:red")
}

func TestParseHTML_HeadersStartLines(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader(termsPage))
	require.NoError(t, err)

	lines := strings.Split(doc.Text, "\n")
	assert.Contains(t, lines, "1. Acceptance")
	assert.Contains(t, lines, "2. Termination")
	assert.Contains(t, lines, "(a) without notice")
	assert.NotContains(t, doc.Text, "\n\n\n")
}

func TestParseHTML_FallsBackToBody(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader(`<html><body><p>Plain agreement text.</p></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "", doc.Title)
	assert.Equal(t, "Plain agreement text.", doc.Text)
}

func TestParseHTML_RoleMain(t *testing.T) {
	doc, err := ParseHTML(strings.NewReader(`<html><body><div>menu</div><div role="main"><p>Clause one.</p></div></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Clause one.", doc.Text)
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("text/html; charset=utf-8", ""))
	assert.True(t, LooksLikeHTML("", "  <!DOCTYPE html><html>"))
	assert.False(t, LooksLikeHTML("text/plain", "SECTION 1. Parties"))
}
