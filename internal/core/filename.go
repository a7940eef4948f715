package core

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// DefaultFilename is used when neither the response headers nor the URL name the file.
const DefaultFilename = "downloaded_file"

var (
	extFilenameRe   = regexp.MustCompile(`(?i)(?:^|;)\s*filename\*\s*=\s*([^;]*)`)
	basicFilenameRe = regexp.MustCompile(`(?i)(?:^|;)\s*filename\s*=\s*("([^"]*)"?|[^;]*)`)
)

// ResolveFilename returns the local filename for a response.
//
// The extended `filename*=charset'lang'value` parameter of contentDisposition
// wins over the basic `filename=` one, and both win over the last path
// segment of finalURL. DefaultFilename is returned when all of them are empty.
// Only the base name is kept, whatever the source.
func ResolveFilename(contentDisposition, finalURL string) string {
	for _, resolve := range []func() string{
		func() string { return extendedFilename(contentDisposition) },
		func() string { return basicFilename(contentDisposition) },
		func() string { return urlFilename(finalURL) },
	} {
		if name := baseName(resolve()); name != "" {
			return name
		}
	}
	return DefaultFilename
}

// ResolveTarget joins the resolved filename with directory.
func ResolveTarget(directory, contentDisposition, finalURL string) Target {
	if directory == "" {
		directory = "."
	}
	name := ResolveFilename(contentDisposition, finalURL)
	return Target{
		Filename: name,
		Path:     filepath.Join(directory, name),
	}
}

// extendedFilename decodes an RFC 5987 value such as UTF-8''a%20b.txt
func extendedFilename(header string) string {
	m := extFilenameRe.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	value := strings.Trim(strings.TrimSpace(m[1]), `"`)
	parts := strings.SplitN(value, "'", 3)
	if len(parts) != 3 {
		return ""
	}
	decoded, err := url.PathUnescape(parts[2])
	if err != nil {
		return ""
	}
	if strings.EqualFold(parts[0], "iso-8859-1") {
		if utf, err := charmap.ISO8859_1.NewDecoder().String(decoded); err == nil {
			decoded = utf
		}
	}
	return decoded
}

func basicFilename(header string) string {
	m := basicFilenameRe.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	if strings.HasPrefix(m[1], `"`) {
		return m[2]
	}
	return strings.TrimSpace(m[1])
}

func urlFilename(finalURL string) string {
	u, err := url.Parse(finalURL)
	if err != nil {
		return ""
	}
	escaped := u.EscapedPath()
	segment := escaped[strings.LastIndex(escaped, "/")+1:]
	name, err := url.PathUnescape(segment)
	if err != nil {
		return segment
	}
	return name
}

// baseName strips any directory part so a name never leaves the target directory.
func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	switch name {
	case ".", "..", "/":
		return ""
	}
	return name
}
