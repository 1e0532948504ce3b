package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUGCStripsScripts(t *testing.T) {
	out := UGC(`<p>Great <b>raid</b> tonight</p><script>alert(1)</script>`)
	assert.Equal(t, `<p>Great <b>raid</b> tonight</p>`, out)
}

func TestUGCDropsEventHandlers(t *testing.T) {
	out := UGC(`<a href="https://example.com" onclick="steal()">guide</a>`)
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "guide")
}

func TestText(t *testing.T) {
	assert.Equal(t, "Patch notes are out & they rock", Text("<p>Patch notes are out</p><div>&amp; they   rock</div>"))
}
