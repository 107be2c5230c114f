package spec

import "strings"

// RefName validates the `#/<section>/<name>` shape and returns the unescaped
// section and name.
func RefName(ref string) (section, name string, err error) {
	rest, ok := strings.CutPrefix(ref, "#/")
	if !ok {
		return "", "", &ReferenceError{Ref: ref, Message: "only local references of the form #/<section>/<name> are supported"}
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &ReferenceError{Ref: ref, Message: "expected exactly two segments"}
	}
	return unescape(parts[0]), unescape(parts[1]), nil
}

// Resolve looks up ref in the document. With dereference=false it returns
// the referenced local name (e.g. "Pet" for "#/definitions/Pet"); with true
// it returns the subtree. The target must exist either way.
func (s *Schema) Resolve(ref string, dereference bool) (any, error) {
	if !s.Loaded() {
		return nil, ErrSchemaNotLoaded
	}
	section, name, err := RefName(ref)
	if err != nil {
		return nil, err
	}
	container, ok := s.root[section].(map[string]any)
	if !ok {
		return nil, &ReferenceError{Ref: ref, Message: "section " + section + " does not exist"}
	}
	target, ok := container[name]
	if !ok {
		return nil, &ReferenceError{Ref: ref, Message: name + " is not defined in " + section}
	}
	if !dereference {
		return name, nil
	}
	return target, nil
}

func unescape(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
