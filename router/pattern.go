package router

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stoewer/go-strcase"
)

var (
	templateVar = regexp.MustCompile(`\{([^{}/]+)\}`)
	nonWord     = regexp.MustCompile(`\W`)
)

// templateVars returns the {name} variables of template in order.
func templateVars(template string) []string {
	var out []string
	for _, m := range templateVar.FindAllStringSubmatch(template, -1) {
		out = append(out, m[1])
	}
	return out
}

// joinPath joins basePath and path and drops the trailing slash. The root
// joins to "".
func joinPath(basePath, path string) string {
	full := strings.TrimRight(basePath, "/") + "/" + strings.TrimLeft(path, "/")
	full = strings.TrimRight(full, "/")
	if full != "" && !strings.HasPrefix(full, "/") {
		full = "/" + full
	}
	return full
}

// compilePattern anchors template with one capture per variable. A capture
// matches non-slash non-dot characters and the trailing slash is optional.
func compilePattern(template string) (string, *regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range templateVar.FindAllStringSubmatchIndex(template, -1) {
		b.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		fmt.Fprintf(&b, "(?P<%s>[^/.]+)", groupName(template[loc[2]:loc[3]]))
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(template[last:]))
	b.WriteString("/?$")

	pattern := b.String()
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", nil, err
	}
	return pattern, re, nil
}

// groupName maps a parameter name onto regexp group-name characters.
func groupName(name string) string {
	g := nonWord.ReplaceAllString(name, "_")
	if g == "" || (g[0] >= '0' && g[0] <= '9') {
		g = "_" + g
	}
	return g
}

// viewName synthesizes a name for a path that declares none: each segment
// camel-cased with braces stripped, suffixed with the path length.
func viewName(path string) string {
	var b strings.Builder
	for _, seg := range strings.Split(path, "/") {
		seg = strings.NewReplacer("{", "", "}", "").Replace(seg)
		if seg == "" {
			continue
		}
		b.WriteString(strcase.UpperCamelCase(seg))
	}
	b.WriteString(strconv.Itoa(len(path)))
	return b.String()
}

// linkName is the reverse-lookup name of a route.
func linkName(display string, resource, detail bool) string {
	name := strcase.KebabCase(display)
	if !resource {
		return name
	}
	if detail {
		return name + "-detail"
	}
	return name + "-list"
}
