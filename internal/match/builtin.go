package match

import "regexp"

const (
	urlHost = `(((gopher|news|telnet|nntp|file|http|ftp|https)://)|(www|ftp)[-A-Za-z0-9]*\.)[-A-Za-z0-9\.]+(:[0-9]*)?`
	urlPath = `/[-A-Za-z0-9_\$\.\+\!\*\(\),;:@&=\?/~\#\%]*[^]'\.}>\) ,\"]`
)

// Builtin URL patterns. BuiltinNarrow matches a scheme and host with an
// optional port; BuiltinBroad also takes a path and query, never ending on
// closing brackets, quotes or sentence punctuation.
const (
	BuiltinNarrow = urlHost
	BuiltinBroad  = urlHost + urlPath
)

var (
	narrowRe = regexp.MustCompile(BuiltinNarrow)
	broadRe  = regexp.MustCompile(BuiltinBroad)
)

// RegisterBuiltins registers the narrow and broad URL rules, in that order,
// and returns their ids.
func (r *Registry) RegisterBuiltins() []int {
	return []int{
		r.add(BuiltinNarrow, narrowRe, HintAuto),
		r.add(BuiltinBroad, broadRe, HintAuto),
	}
}
