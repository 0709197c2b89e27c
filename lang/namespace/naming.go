package namespace

import "strings"

// Mangle produces the link-time unique name for a non-main function, per
// spec §3: "basename###|type1,type2,…|declaring_file". main is never
// mangled (spec REDESIGN FLAGS #3).
func Mangle(name, declaringFile string, paramTypes []string) string {
	if name == "main" {
		return "main"
	}
	return name + "###|" + strings.Join(paramTypes, ",") + "|" + declaringFile
}

// demangle extracts the base name from a mangled function name, for
// overload lookup by base name. It returns ok=false for "main" (which was
// never mangled, so there is nothing to strip) and for names that do not
// contain the "###" marker.
func demangle(mangled string) (string, bool) {
	i := strings.Index(mangled, "###")
	if i < 0 {
		return "", false
	}
	return mangled[:i], true
}
