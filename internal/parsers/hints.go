package parsers

import (
	"regexp"
	"sync"

	"github.com/haulwire/loadscout/internal/mailparse"
	"github.com/haulwire/loadscout/internal/models"
)

// Tenant-configured hints are the last-resort fill: a stored regex with one
// capture group per hint, applied only to fields still absent after the
// subject and format parsers ran.

// hintCache memoizes compiled hint patterns; tenants reuse the same packs on
// every message so compilation cost is paid once
var hintCache sync.Map // pattern string -> *regexp.Regexp (nil for invalid)

func compileHint(pattern string) *regexp.Regexp {
	if cached, ok := hintCache.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	hintCache.Store(pattern, re)
	return re
}

// ApplyHints fills still-absent fields from the tenant's hint packs.
// Invalid patterns are skipped; a hint never overwrites a parsed value.
func ApplyHints(load *models.ParsedLoad, env *mailparse.Envelope, packs []*models.HintPack) {
	if len(packs) == 0 {
		return
	}

	var body string
	bodyOnce := func() string {
		if body == "" {
			body = env.Text
			if body == "" && env.HTML != "" {
				body = FlattenHTML(env.HTML)
			}
		}
		return body
	}

	for _, pack := range packs {
		for _, hint := range pack.Hints {
			re := compileHint(hint.Pattern)
			if re == nil || re.NumSubexp() < 1 {
				continue
			}

			haystack := bodyOnce()
			if hint.Scope == "subject" {
				haystack = env.Subject
			}

			m := re.FindStringSubmatch(haystack)
			if m == nil {
				continue
			}
			SetField(load, hint.Field, m[1])
		}
	}
}
