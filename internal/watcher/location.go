package watcher

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var indexPageRe = regexp.MustCompile(`^([0-9]+-[0-9]{2}-[0-9]+)-index\.html?$`)

// DocumentLocation turns a feed entry link (the filing's index page) into
// the filing directory the envelope can be fetched from.
//
// The final path segment is removed. When that segment is an
// "<accession>-index.htm" page sitting directly under the filer's folder
// rather than inside the dash-less accession folder, the accession itself
// names the location:
//
//	.../data/123/000012324000001/000123-24-000001-index.htm -> .../data/123/000012324000001
//	.../data/123/000123-24-000001-index.htm                 -> .../data/123/000123-24-000001
func DocumentLocation(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("parse entry link: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("entry link %q is not absolute", link)
	}

	p := strings.TrimSuffix(u.Path, "/")
	i := strings.LastIndex(p, "/")
	if i < 0 || p[i+1:] == "" {
		return "", fmt.Errorf("entry link %q has no path segment to remove", link)
	}
	last, parent := p[i+1:], p[:i]

	if m := indexPageRe.FindStringSubmatch(last); m != nil {
		accession := m[1]
		if path.Base(parent) != strings.ReplaceAll(accession, "-", "") {
			parent = parent + "/" + accession
		}
	}

	u.Path = parent
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
