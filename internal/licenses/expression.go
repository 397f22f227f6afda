package licenses

import (
	"strings"

	"github.com/kompline/kompline/internal/model"
)

// ParseExpression turns a free-text license declaration into an ordered
// license chain. The text is split on AND/OR connectors (case-insensitive);
// each part is looked up by short identifier. Parts that fail lookup resolve
// to the Unknown sentinel instead of failing the whole parse, so the result
// is always a structurally valid chain.
//
// Examples:
//
//	"Apache-2.0"            -> [Apache-2.0]
//	"Apache-2.0 OR MIT"     -> [Apache-2.0 (OR), MIT]
//	"(MIT AND bogus-text)"  -> [MIT (AND), Unknown]
func ParseExpression(text string, reg *Registry) []model.LicenseLink {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return []model.LicenseLink{{License: reg.NonLicensed(), OrderID: 0, Join: model.JoinNone}}
	}

	links := make([]model.LicenseLink, 0, (len(tokens)+1)/2)
	for i := 0; i < len(tokens); i += 2 {
		lic, ok := reg.Lookup(tokens[i])
		if !ok {
			lic = reg.Unknown()
		}

		join := model.JoinNone
		if i+1 < len(tokens) {
			switch strings.ToUpper(tokens[i+1]) {
			case "AND":
				join = model.JoinAnd
			case "OR":
				join = model.JoinOr
			}
		}

		links = append(links, model.LicenseLink{
			License: lic,
			OrderID: len(links),
			Join:    join,
		})
	}
	return links
}

// tokenize splits a license expression into alternating identifier and
// connector tokens: ["Apache-2.0", "OR", "MIT"]. Parentheses are stripped;
// nesting is not modeled, the chain is a flat left-to-right expression.
func tokenize(text string) []string {
	clean := strings.NewReplacer("(", " ", ")", " ").Replace(text)
	fields := strings.Fields(clean)

	var tokens []string
	var ident []string

	flush := func() {
		if len(ident) > 0 {
			tokens = append(tokens, strings.Join(ident, " "))
			ident = ident[:0]
		}
	}

	for _, f := range fields {
		switch strings.ToUpper(f) {
		case "AND", "OR":
			// A leading or doubled connector has no identifier to attach to;
			// drop it rather than producing an empty chain element.
			if len(ident) == 0 {
				continue
			}
			flush()
			tokens = append(tokens, strings.ToUpper(f))
		default:
			ident = append(ident, f)
		}
	}
	flush()

	// A trailing connector ("MIT OR") is dangling; drop it.
	if len(tokens) > 0 {
		if last := tokens[len(tokens)-1]; last == "AND" || last == "OR" {
			tokens = tokens[:len(tokens)-1]
		}
	}
	return tokens
}
