package form4

import (
	"regexp"
	"strings"
)

var (
	accessionRe = regexp.MustCompile(`ACCESSION NUMBER:\s+([A-Za-z0-9-]+)`)
	fileNameRe  = regexp.MustCompile(`<FILENAME>\s*([A-Za-z0-9_.-]+\.xml)(?:\s|<|$)`)
	xmlBlockRe  = regexp.MustCompile(`(?s)<XML>(.*?)</XML>`)
)

// envelope is the part of a submission text file the decoder cares about.
type envelope struct {
	accession string
	fileName  string
	payload   string
}

// extractEnvelope finds the accession number, then the payload file name,
// then the embedded XML block, each searched after the previous match.
func extractEnvelope(raw string) (envelope, error) {
	var env envelope

	loc := accessionRe.FindStringSubmatchIndex(raw)
	if loc == nil {
		return env, &ErrEnvelope{Part: "accession number"}
	}
	env.accession = raw[loc[2]:loc[3]]
	rest := raw[loc[1]:]

	loc = fileNameRe.FindStringSubmatchIndex(rest)
	if loc == nil {
		return env, &ErrEnvelope{Part: "file name"}
	}
	env.fileName = rest[loc[2]:loc[3]]
	rest = rest[loc[3]:]

	loc = xmlBlockRe.FindStringSubmatchIndex(rest)
	if loc == nil {
		return env, &ErrEnvelope{Part: "xml block"}
	}
	env.payload = strings.TrimSpace(rest[loc[2]:loc[3]])
	if env.payload == "" {
		return env, &ErrEnvelope{Part: "xml block"}
	}
	return env, nil
}
