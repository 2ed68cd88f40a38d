package analyzer

import (
	"strings"

	"github.com/spf13/viper"
	gitleaksconfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/mlang-dev/mlc/internal/domain/findings"
	"github.com/mlang-dev/mlc/internal/lang/ast"
)

// secretScanner runs the gitleaks detector over the program's string
// literals. Hardcoded credentials in script source are reported as
// embedded-secret findings so they surface before the program ever runs.
type secretScanner struct {
	detector *detect.Detector
}

// newSecretScanner builds a scanner with the gitleaks default rule set.
// A nil detector disables the pass rather than failing compilation.
func newSecretScanner() *secretScanner {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(gitleaksconfig.DefaultConfig)); err != nil {
		return &secretScanner{}
	}
	var vc gitleaksconfig.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return &secretScanner{}
	}
	cfg, err := vc.Translate()
	if err != nil {
		return &secretScanner{}
	}
	return &secretScanner{detector: detect.NewDetector(cfg)}
}

func (s *secretScanner) scanProgram(prog *ast.Program) []findings.Finding {
	if s.detector == nil {
		return nil
	}
	var out []findings.Finding
	walkStrings(prog.Stmts, func(lit *ast.StringLit) {
		fragment := detect.Fragment{Raw: lit.Value}
		for _, leak := range s.detector.Detect(fragment) {
			out = append(out, findings.Finding{
				Severity: findings.SevHigh,
				Category: findings.CategoryEmbeddedSecret,
				Pos:      findings.Pos{Line: lit.Pos().Line, Col: lit.Pos().Col},
				Message:  "string literal contains a hardcoded secret (" + leak.RuleID + ")",
				RuleID:   "ML-S006",
			})
		}
	})
	return out
}

// walkStrings visits every string literal in statement order.
func walkStrings(stmts []ast.Stmt, visit func(*ast.StringLit)) {
	var walkExpr func(ast.Expr)
	walkExpr = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.StringLit:
			visit(n)
		case *ast.Call:
			walkExpr(n.Callee)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *ast.Member:
			walkExpr(n.Target)
		case *ast.Index:
			walkExpr(n.Target)
			walkExpr(n.Key)
		case *ast.Binary:
			walkExpr(n.L)
			walkExpr(n.R)
		case *ast.Unary:
			walkExpr(n.X)
		case *ast.ListLit:
			for _, el := range n.Elems {
				walkExpr(el)
			}
		case *ast.MapLit:
			for _, entry := range n.Entries {
				walkExpr(entry.Value)
			}
		}
	}
	var walkStmt func(ast.Stmt)
	walkStmt = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.Let:
			walkExpr(n.Value)
		case *ast.Assign:
			walkExpr(n.Target)
			walkExpr(n.Value)
		case *ast.ExprStmt:
			walkExpr(n.X)
		case *ast.If:
			walkExpr(n.Cond)
			for _, st := range n.Then {
				walkStmt(st)
			}
			for _, st := range n.Else {
				walkStmt(st)
			}
		case *ast.While:
			walkExpr(n.Cond)
			for _, st := range n.Body {
				walkStmt(st)
			}
		case *ast.FuncDef:
			for _, st := range n.Body {
				walkStmt(st)
			}
		case *ast.Return:
			if n.X != nil {
				walkExpr(n.X)
			}
		case *ast.Try:
			for _, st := range n.Body {
				walkStmt(st)
			}
			for _, clause := range n.Clauses {
				for _, st := range clause.Body {
					walkStmt(st)
				}
			}
		}
	}
	for _, s := range stmts {
		walkStmt(s)
	}
}
