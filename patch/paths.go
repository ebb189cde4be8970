package patch

import (
	"reflect"
	"sort"
	"strings"
)

// AllowedPaths returns the set of JSON pointer paths of T.
func AllowedPaths[T any]() map[string]bool {
	paths := AllJSONPointerPaths[T]()
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}

// AllJSONPointerPaths walks T and lists the JSON pointer of every field.
// Slices contribute "/-" and maps "/*" wildcard segments.
func AllJSONPointerPaths[T any]() []string {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return []string{}
	}
	paths := make([]string, 0)
	collectPaths(typ, "", &paths, map[reflect.Type]bool{})
	return paths
}

func collectPaths(typ reflect.Type, prefix string, paths *[]string, visited map[reflect.Type]bool) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if visited[typ] {
		return
	}

	switch typ.Kind() {
	case reflect.Struct:
		visited[typ] = true
		defer delete(visited, typ)
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := jsonFieldName(field)
			if name == "-" {
				continue
			}
			fieldPath := prefix + "/" + escapeToken(name)
			*paths = append(*paths, fieldPath)
			collectPaths(field.Type, fieldPath, paths, visited)
		}
	case reflect.Slice, reflect.Array:
		arrayPath := prefix + "/-"
		*paths = append(*paths, arrayPath)
		collectPaths(typ.Elem(), arrayPath, paths, visited)
	case reflect.Map:
		mapPath := prefix + "/*"
		*paths = append(*paths, mapPath)
		collectPaths(typ.Elem(), mapPath, paths, visited)
	}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" {
		return field.Name
	}
	return name
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
