package filter

import (
	"regexp"
	"strings"
)

// compiledPattern is an rsync-style glob compiled to a regexp.
//
//	*.log      any entry whose name ends in .log, at any depth
//	/top.txt   only top.txt directly under the root
//	a/b/*.txt  anchored, since the pattern contains a slash
//	build/     directories named build, at any depth
//	**/x       x at any depth, including the root level
type compiledPattern struct {
	re      *regexp.Regexp
	dirOnly bool
}

func compilePattern(pattern string) (*compiledPattern, error) {
	cp := &compiledPattern{}

	if rest, ok := strings.CutSuffix(pattern, "/"); ok {
		cp.dirOnly = true
		pattern = rest
	}

	anchored := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	prefix := "(^|/)"
	if anchored {
		prefix = "^"
	}
	re, err := regexp.Compile(prefix + globToRegex(pattern) + "$")
	if err != nil {
		return nil, err
	}
	cp.re = re
	return cp, nil
}

func (cp *compiledPattern) match(relPath string, isDir bool) bool {
	if cp.dirOnly && !isDir {
		return false
	}
	return cp.re.MatchString(relPath)
}

// globToRegex translates glob syntax: ** crosses slashes, * and ? do not,
// and [...] / [!...] are character classes.
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); {
		switch c := glob[i]; c {
		case '*':
			switch {
			case strings.HasPrefix(glob[i:], "**/"):
				b.WriteString("(.*/)?")
				i += 3
			case strings.HasPrefix(glob[i:], "**"):
				b.WriteString(".*")
				i += 2
			default:
				b.WriteString("[^/]*")
				i++
			}
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			class, n := charClass(glob[i:])
			if n == 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			b.WriteString(class)
			i += n
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	return b.String()
}

// charClass converts a leading [...] in s and returns it with the number of
// bytes consumed, or 0 if the bracket is unterminated. A ] directly after
// the opening bracket (or after !) is literal.
func charClass(s string) (string, int) {
	j := 1
	if j < len(s) && s[j] == '!' {
		j++
	}
	if j < len(s) && s[j] == ']' {
		j++
	}
	end := strings.IndexByte(s[j:], ']')
	if end < 0 {
		return "", 0
	}
	end += j

	body := s[1:end]
	if rest, ok := strings.CutPrefix(body, "!"); ok {
		body = "^" + rest
	}
	return "[" + body + "]", end + 1
}
