package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Marker identifies a provenance header.
const Marker = "dog:generated"

// HashPrefix is prepended to every content hash.
const HashPrefix = "sha256:"

var headerRe = regexp.MustCompile(`^` + regexp.QuoteMeta(Marker) + ` verb=(\S+) version=(\S+) hash=(` + HashPrefix + `[0-9a-f]{64})$`)

// Provenance is the information carried by a provenance header.
type Provenance struct {
	Verb    string
	Version string
	Hash    string
}

// CommentStyle is the line comment syntax for a file type.
type CommentStyle struct {
	Open, Close string
}

var (
	slashStyle = CommentStyle{Open: "// "}
	hashStyle  = CommentStyle{Open: "# "}
	htmlStyle  = CommentStyle{Open: "<!-- ", Close: " -->"}
	dashStyle  = CommentStyle{Open: "-- "}
)

// StyleFor picks the comment style for a file from its name.
func StyleFor(name string) CommentStyle {
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, `\`, "/")))
	switch base {
	case "makefile", "dockerfile", ".gitignore", ".dockerignore", ".env":
		return hashStyle
	case "go.mod", "go.work":
		return slashStyle
	}
	switch path.Ext(base) {
	case ".go", ".js", ".ts", ".java", ".c", ".h", ".rs", ".proto", ".swift", ".kt":
		return slashStyle
	case ".md", ".html", ".xml", ".svg":
		return htmlStyle
	case ".sql", ".lua":
		return dashStyle
	default:
		return hashStyle
	}
}

// Hash returns the content hash of body, e.g. "sha256:ab12…".
func Hash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return HashPrefix + hex.EncodeToString(sum[:])
}

// FormatHeader renders the provenance header line for a file, without the
// trailing newline.
func FormatHeader(name string, p Provenance) string {
	s := StyleFor(name)
	return fmt.Sprintf("%s%s verb=%s version=%s hash=%s%s", s.Open, Marker, p.Verb, p.Version, p.Hash, s.Close)
}

// Stamp returns the file content for body: the provenance header followed by
// the body. A leading shebang line stays first.
func Stamp(name string, p Provenance, body string) string {
	header := FormatHeader(name, p) + "\n"
	if strings.HasPrefix(body, "#!") {
		first, rest, _ := strings.Cut(body, "\n")
		return first + "\n" + header + rest
	}
	return header + body
}

// Split separates file content into its provenance and body. ok is false when
// the content carries no well-formed header, in which case body is content.
func Split(name, content string) (p Provenance, body string, ok bool) {
	var shebang string
	rest := content
	if strings.HasPrefix(content, "#!") {
		first, after, found := strings.Cut(content, "\n")
		if !found {
			return Provenance{}, content, false
		}
		shebang, rest = first+"\n", after
	}

	line, after, found := strings.Cut(rest, "\n")
	if !found {
		return Provenance{}, content, false
	}
	s := StyleFor(name)
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, s.Open) || !strings.HasSuffix(line, s.Close) {
		return Provenance{}, content, false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(line, s.Open), s.Close)
	m := headerRe.FindStringSubmatch(inner)
	if m == nil {
		return Provenance{}, content, false
	}
	return Provenance{Verb: m[1], Version: m[2], Hash: m[3]}, shebang + after, true
}
