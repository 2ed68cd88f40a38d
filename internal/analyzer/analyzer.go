// Package analyzer walks the parsed program before code generation and
// reports dangerous patterns: code-injection primitives (including aliased
// ones), reflection and introspection access, deny-listed imports, attribute
// chains the whitelist does not know, and hardcoded secrets. The analyzer is
// stateless and reentrant; one Analyze call never observes another.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/mlang-dev/mlc/internal/domain/capabilities"
	"github.com/mlang-dev/mlc/internal/domain/findings"
	"github.com/mlang-dev/mlc/internal/lang/ast"
	"github.com/mlang-dev/mlc/internal/registry"
)

// deniedImports maps host modules that must not be imported directly to the
// capability kind that, when granted, makes the import acceptable.
var deniedImports = map[string]string{
	"os":         "sys.admin",
	"sys":        "sys.admin",
	"subprocess": "proc.spawn",
	"process":    "proc.spawn",
	"socket":     "net.raw",
	"ctypes":     "sys.ffi",
	"importlib":  "",
	"marshal":    "",
}

// Analyzer inspects programs against the whitelist registry and a set of
// capability tokens the embedder intends to grant at run time.
type Analyzer struct {
	registry *registry.Registry
	grants   []capabilities.Token
	secrets  *secretScanner
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithGrants supplies the tokens the embedding host plans to activate, so
// imports gated on a granted capability are not flagged.
func WithGrants(tokens []capabilities.Token) Option {
	return func(a *Analyzer) { a.grants = tokens }
}

// WithSecretScanning enables the gitleaks pass over string literals.
func WithSecretScanning() Option {
	return func(a *Analyzer) { a.secrets = newSecretScanner() }
}

// New creates an analyzer resolving against the given registry.
func New(reg *registry.Registry, opts ...Option) *Analyzer {
	a := &Analyzer{registry: reg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze performs a single pass over the program and returns its findings
// sorted by (severity desc, location asc). Running twice on the same tree
// yields identical lists.
func (a *Analyzer) Analyze(prog *ast.Program) []findings.Finding {
	w := &walker{
		analyzer: a,
		bindings: newBindingTable(),
	}
	w.walkStmts(prog.Stmts)
	if a.secrets != nil {
		w.found = append(w.found, a.secrets.scanProgram(prog)...)
	}
	return findings.NewReport(w.found).Findings()
}

// walker carries the per-pass state: the findings accumulated so far and the
// identifier binding table used to resolve aliases.
type walker struct {
	analyzer *Analyzer
	bindings *bindingTable
	found    []findings.Finding
}

func (w *walker) report(sev findings.Severity, cat findings.Category, pos ast.Pos, ruleID, msg string) {
	w.found = append(w.found, findings.Finding{
		Severity: sev,
		Category: cat,
		Pos:      findings.Pos{Line: pos.Line, Col: pos.Col},
		Message:  msg,
		RuleID:   ruleID,
	})
}

func (w *walker) walkStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		w.walkStmt(s)
	}
}

func (w *walker) walkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Let:
		w.walkExpr(n.Value)
		w.bindings.bind(n.Name, n.Value)
	case *ast.Assign:
		w.walkExpr(n.Value)
		if target, ok := n.Target.(*ast.Ident); ok {
			w.bindings.bind(target.Name, n.Value)
		} else {
			w.walkExpr(n.Target)
		}
	case *ast.ExprStmt:
		w.walkExpr(n.X)
	case *ast.If:
		w.walkExpr(n.Cond)
		w.walkStmts(n.Then)
		w.walkStmts(n.Else)
	case *ast.While:
		w.walkExpr(n.Cond)
		w.walkStmts(n.Body)
	case *ast.FuncDef:
		w.bindings.bindUser(n.Name)
		w.bindings.push()
		for _, p := range n.Params {
			w.bindings.bindUser(p)
		}
		w.walkStmts(n.Body)
		w.bindings.pop()
	case *ast.Return:
		if n.X != nil {
			w.walkExpr(n.X)
		}
	case *ast.Try:
		w.walkStmts(n.Body)
		for _, clause := range n.Clauses {
			w.walkStmts(clause.Body)
		}
	case *ast.Import:
		w.checkImport(n)
	}
}

func (w *walker) walkExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Call:
		w.checkCall(n)
		for _, arg := range n.Args {
			w.walkExpr(arg)
		}
		// The callee is walked as part of checkCall except for non-ident
		// callees, whose subexpressions still need inspection.
		switch callee := n.Callee.(type) {
		case *ast.Ident:
		case *ast.Member:
			w.walkExpr(callee.Target)
			w.checkMemberName(callee)
		default:
			w.walkExpr(callee)
		}
	case *ast.Member:
		w.walkExpr(n.Target)
		w.checkMemberName(n)
	case *ast.Index:
		w.walkExpr(n.Target)
		w.walkExpr(n.Key)
	case *ast.Binary:
		w.walkExpr(n.L)
		w.walkExpr(n.R)
	case *ast.Unary:
		w.walkExpr(n.X)
	case *ast.ListLit:
		for _, el := range n.Elems {
			w.walkExpr(el)
		}
	case *ast.MapLit:
		for _, entry := range n.Entries {
			w.walkExpr(entry.Value)
		}
	}
}

// checkCall flags calls whose target resolves, directly or through aliases,
// to a deny-listed primitive.
func (w *walker) checkCall(call *ast.Call) {
	ident, ok := call.Callee.(*ast.Ident)
	if !ok {
		return
	}
	resolved, aliased := w.bindings.resolve(ident.Name)
	denied, isDenied := registry.Denied(resolved)
	if !isDenied {
		return
	}
	msg := fmt.Sprintf("call to %s (%s)", denied.Name, denied.Reason)
	if aliased {
		msg = fmt.Sprintf("call to %s via alias %q (%s)", denied.Name, ident.Name, denied.Reason)
	}
	if denied.Suggestion != "" {
		msg += "; use " + denied.Suggestion + " instead"
	}
	w.report(findings.SevCritical, categoryFor(denied.Name), call.Pos(), "ML-S001", msg)
}

// checkMemberName flags dunder attribute access and attribute names the
// whitelist does not know under any owner.
func (w *walker) checkMemberName(m *ast.Member) {
	if isDunder(m.Name) {
		w.report(findings.SevCritical, findings.CategoryReflectionAbuse, m.Pos(), "ML-S002",
			fmt.Sprintf("access to runtime internal attribute %q", m.Name))
		return
	}
	if !w.analyzer.registry.KnownAttrOrMethod(m.Name) {
		w.report(findings.SevMedium, findings.CategoryUnsafeAttribute, m.Pos(), "ML-S003",
			fmt.Sprintf("attribute %q matches no whitelist entry", m.Name))
	}
}

func (w *walker) checkImport(imp *ast.Import) {
	if kind, denied := deniedImports[imp.Module]; denied {
		if kind != "" && w.hasGrant(kind) {
			return
		}
		w.report(findings.SevHigh, findings.CategoryUnsafeImport, imp.Pos(), "ML-S004",
			fmt.Sprintf("import of host module %q is not permitted", imp.Module))
		return
	}
	if !w.analyzer.registry.HasModule(imp.Module) {
		w.report(findings.SevMedium, findings.CategoryUnsafeImport, imp.Pos(), "ML-S005",
			fmt.Sprintf("import of unknown module %q", imp.Module))
	}
}

func (w *walker) hasGrant(kind string) bool {
	for _, t := range w.analyzer.grants {
		if t.Kind() == kind {
			return true
		}
	}
	return false
}

func categoryFor(denied string) findings.Category {
	switch denied {
	case "eval", "exec", "compile", "loadcode":
		return findings.CategoryCodeInjection
	case "getattr", "setattr", "delattr", "reflect", "globals", "locals", "vars", "breakpoint":
		return findings.CategoryReflectionAbuse
	case "import_module":
		return findings.CategoryUnsafeImport
	default:
		return findings.CategoryCapabilityBypass
	}
}

func isDunder(name string) bool {
	return len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}
