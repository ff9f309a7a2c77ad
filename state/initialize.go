package state

import (
	"time"

	"impdex/config"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start:        time.Now(),
		DefaultStyle: []byte(defaultStylesheet),
		DefaultIcons: map[config.IconKind][]byte{
			config.IconKindLogo: []byte(`<svg viewBox="0 0 64 64" xmlns="http://www.w3.org/2000/svg">
  <path d="
    M12 16
    C8 20, 8 44, 12 48
    M52 16
    C56 20, 56 44, 52 48

    M22 24 H42
    M22 32 H42
    M22 40 H34
  "
  fill="none" stroke="black" stroke-width="3" stroke-linecap="round"/>
  <circle cx="42" cy="40" r="3" fill="black"/>
</svg>`),
			config.IconKindFavicon: []byte(`<svg viewBox="0 0 32 32" xmlns="http://www.w3.org/2000/svg">
  <path d="
    M7 8
    C5 10, 5 22, 7 24
    M25 8
    C27 10, 27 22, 25 24

    M12 13 H20
    M12 19 H17
  "
  fill="none" stroke="black" stroke-width="2" stroke-linecap="round"/>
  <circle cx="21" cy="19" r="2" fill="black"/>
</svg>`),
		},
	}
}

// defaultStylesheet is injected into rendered trees when configuration does
// not point at an external file. It only covers markup this program adds,
// the rest of the page keeps the generator's own styling.
const defaultStylesheet = `/* impdex additions */

#implementors-list .impl {
	margin-bottom: 0.75em;
}

#implementors-list .impl > .code-header {
	font-family: "Source Code Pro", monospace;
	white-space: pre-wrap;
}

#implementors-list .impl.external {
	opacity: 0.9;
}

.impdex-trait-index {
	max-width: 60em;
	margin: 0 auto;
	padding: 1em;
	font-family: "Fira Sans", sans-serif;
}

.impdex-trait-index h1 {
	border-bottom: 1px solid #ddd;
	padding-bottom: 0.3em;
}

.impdex-trait-index ul {
	list-style: none;
	padding-left: 0;
}

.impdex-trait-index li {
	padding: 0.15em 0;
}

.impdex-trait-index .count {
	color: #888;
	font-size: 0.9em;
	margin-left: 0.5em;
}
`
