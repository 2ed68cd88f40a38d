package registry

// DeniedPrimitive is one host-runtime primitive that generated code may never
// reach, regardless of aliasing or shadowing. The deny-list is checked before
// any registry or user-scope lookup and always wins.
type DeniedPrimitive struct {
	Name string
	// Reason explains why the primitive is blocked.
	Reason string
	// Suggestion names a safe registry alternative, when one exists.
	Suggestion string
}

// The deny-list is fixed at build time. Entries cover the dynamic-eval
// family, raw file/process/network primitives, introspection primitives, and
// namespace manipulation.
var denyList = map[string]DeniedPrimitive{
	// Dynamic code execution
	"eval":     {Name: "eval", Reason: "dynamic code evaluation"},
	"exec":     {Name: "exec", Reason: "dynamic code execution"},
	"compile":  {Name: "compile", Reason: "dynamic code compilation"},
	"loadcode": {Name: "loadcode", Reason: "dynamic code loading"},

	// Raw file / process / network access
	"open":   {Name: "open", Reason: "raw file access", Suggestion: "fileio.read_text / fileio.write_text"},
	"spawn":  {Name: "spawn", Reason: "process creation"},
	"system": {Name: "system", Reason: "shell command execution"},
	"popen":  {Name: "popen", Reason: "process pipe creation"},
	"socket": {Name: "socket", Reason: "raw network access"},
	"connect": {
		Name:   "connect",
		Reason: "raw network access",
	},

	// Introspection
	"getattr":       {Name: "getattr", Reason: "reflective attribute access", Suggestion: "direct attribute syntax"},
	"setattr":       {Name: "setattr", Reason: "reflective attribute mutation"},
	"delattr":       {Name: "delattr", Reason: "reflective attribute deletion"},
	"reflect":       {Name: "reflect", Reason: "runtime introspection"},
	"import_module": {Name: "import_module", Reason: "dynamic module import", Suggestion: "a static import statement"},

	// Namespace manipulation
	"globals":    {Name: "globals", Reason: "global namespace access"},
	"locals":     {Name: "locals", Reason: "local namespace access"},
	"vars":       {Name: "vars", Reason: "namespace introspection"},
	"breakpoint": {Name: "breakpoint", Reason: "debugger access"},
}

// Denied looks up a name on the deny-list.
func Denied(name string) (DeniedPrimitive, bool) {
	d, ok := denyList[name]
	return d, ok
}

// DeniedNames returns every deny-listed name. The sandbox uses this to bind
// failing stubs so that even a bypassed generator cannot reach the primitive.
func DeniedNames() []string {
	out := make([]string, 0, len(denyList))
	for name := range denyList {
		out = append(out, name)
	}
	return out
}
