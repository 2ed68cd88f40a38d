package sandbox

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mlang-dev/mlc/internal/codegen"
)

// env is one lexical frame. Function invocations push a frame; branch and
// loop bodies share their function's frame, matching the hoisted declaration
// model the generator compiles against.
type env struct {
	parent *env
	vars   map[string]any
}

func newEnv(parent *env) *env {
	return &env{parent: parent, vars: make(map[string]any)}
}

func (e *env) lookup(name string) (any, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (e *env) declare(name string, v any) {
	e.vars[name] = v
}

// set overwrites the nearest existing binding, or declares locally when the
// hoisted declaration has not executed yet on this path.
func (e *env) set(name string, v any) {
	for cur := e; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = v
			return
		}
	}
	e.vars[name] = v
}

// uninitialized is the sentinel bound by DeclSentinel prologues. Reading it
// raises a catchable fault instead of yielding a value.
type uninitialized struct{}

// function is a user-declared function value closing over its frame.
type function struct {
	name   string
	params []string
	body   []codegen.Stmt
	env    *env
}

// returnSignal unwinds a function body. It never escapes a DirectCall.
type returnSignal struct {
	value any
}

func (returnSignal) Error() string { return "return outside function" }

// evaluator walks the routed program. Every routed operation goes through
// the host; the evaluator itself can only build values, branch, loop, and
// call user functions.
type evaluator struct {
	host    *Host
	limits  ResourceLimits
	done    <-chan struct{}
	globals *env
	steps   int64
	allocs  int64
}

func newEvaluator(host *Host, limits ResourceLimits, done <-chan struct{}) *evaluator {
	globals := newEnv(nil)
	for name, v := range host.ns.bindings {
		globals.declare(name, v)
	}
	return &evaluator{host: host, limits: limits, done: done, globals: globals}
}

func (e *evaluator) run(prog *codegen.Program) error {
	if err := e.host.AssertRestricted(); err != nil {
		return err
	}
	err := e.execStmts(prog.Stmts, e.globals)
	if _, ok := err.(returnSignal); ok {
		return nil
	}
	return err
}

// tick charges one evaluation step and periodically polls the watchdog.
func (e *evaluator) tick() error {
	e.steps++
	if e.steps > e.limits.MaxSteps {
		return &ResourceExceededError{Kind: "cpu", Limit: strconv.FormatInt(e.limits.MaxSteps, 10) + " steps"}
	}
	if e.steps&255 == 0 {
		select {
		case <-e.done:
			return &ResourceExceededError{Kind: "time", Limit: e.limits.WallClock.String()}
		default:
		}
	}
	return nil
}

func (e *evaluator) alloc(n int64) error {
	e.allocs += n
	if e.allocs > e.limits.MaxAllocBytes {
		return &ResourceExceededError{Kind: "memory", Limit: strconv.FormatInt(e.limits.MaxAllocBytes, 10) + " bytes"}
	}
	return nil
}

func (e *evaluator) execStmts(stmts []codegen.Stmt, env *env) error {
	for _, s := range stmts {
		if err := e.execStmt(s, env); err != nil {
			return err
		}
	}
	return nil
}

func (e *evaluator) execStmt(s codegen.Stmt, env *env) error {
	if err := e.tick(); err != nil {
		return err
	}
	switch n := s.(type) {
	case *codegen.Decl:
		v, err := e.evalExpr(n.Value, env)
		if err != nil {
			return err
		}
		env.declare(n.Name, v)
		return nil
	case *codegen.DeclSentinel:
		// Prologue default only; a name the frame already binds (a call
		// argument, above all) must keep its value.
		if _, bound := env.vars[n.Name]; !bound {
			env.declare(n.Name, uninitialized{})
		}
		return nil
	case *codegen.AssignVar:
		v, err := e.evalExpr(n.Value, env)
		if err != nil {
			return err
		}
		env.set(n.Name, v)
		return nil
	case *codegen.AssignIndex:
		return e.execAssignIndex(n, env)
	case *codegen.ExprStmt:
		_, err := e.evalExpr(n.X, env)
		return err
	case *codegen.If:
		cond, err := e.evalExpr(n.Cond, env)
		if err != nil {
			return err
		}
		if truthy(cond) {
			return e.execStmts(n.Then, env)
		}
		return e.execStmts(n.Else, env)
	case *codegen.While:
		for {
			cond, err := e.evalExpr(n.Cond, env)
			if err != nil {
				return err
			}
			if !truthy(cond) {
				return nil
			}
			if err := e.execStmts(n.Body, env); err != nil {
				return err
			}
		}
	case *codegen.DeclFunc:
		env.declare(n.Name, &function{name: n.Name, params: n.Params, body: n.Body, env: env})
		return nil
	case *codegen.Return:
		var v any
		if n.X != nil {
			var err error
			v, err = e.evalExpr(n.X, env)
			if err != nil {
				return err
			}
		}
		return returnSignal{value: v}
	case *codegen.Try:
		return e.execTry(n, env)
	case *codegen.Import:
		return nil
	}
	return faultf(FaultRuntime, "unsupported statement %T", s)
}

// execTry runs the body and dispatches a raised fault to the first matching
// clause. Only *Fault is catchable; capability, security, and resource
// errors always unwind to the sandbox boundary.
func (e *evaluator) execTry(n *codegen.Try, env *env) error {
	err := e.execStmts(n.Body, env)
	if err == nil {
		return nil
	}
	fault, ok := err.(*Fault)
	if !ok {
		return err
	}
	for _, c := range n.Clauses {
		if c.ErrName == "" || c.ErrName == fault.Class {
			return e.execStmts(c.Body, env)
		}
	}
	return fault
}

func (e *evaluator) execAssignIndex(n *codegen.AssignIndex, env *env) error {
	target, err := e.evalExpr(n.Target, env)
	if err != nil {
		return err
	}
	key, err := e.evalExpr(n.Key, env)
	if err != nil {
		return err
	}
	value, err := e.evalExpr(n.Value, env)
	if err != nil {
		return err
	}
	switch t := target.(type) {
	case []any:
		i, ok := key.(int64)
		if !ok {
			return faultf(FaultType, "list index must be an int, got %s", typeHintOf(key))
		}
		if i < 0 || i >= int64(len(t)) {
			return faultf(FaultIndex, "index %d out of range (len %d)", i, len(t))
		}
		t[i] = value
		return nil
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return faultf(FaultType, "map key must be a string, got %s", typeHintOf(key))
		}
		t[k] = value
		return nil
	}
	return faultf(FaultType, "%s does not support index assignment", typeHintOf(target))
}

func (e *evaluator) evalExprs(exprs []codegen.Expr, env *env) ([]any, error) {
	out := make([]any, 0, len(exprs))
	for _, x := range exprs {
		v, err := e.evalExpr(x, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *evaluator) evalExpr(x codegen.Expr, env *env) (any, error) {
	if err := e.tick(); err != nil {
		return nil, err
	}
	switch n := x.(type) {
	case *codegen.Lit:
		return n.Val, nil

	case *codegen.LocalRef:
		return e.readLocal(n, env)

	case *codegen.SafeCall:
		args, err := e.evalExprs(n.Args, env)
		if err != nil {
			return nil, err
		}
		return e.host.SafeCall(n.Module, n.Name, args)

	case *codegen.SafeAttrAccess:
		recv, err := e.evalExpr(n.Recv, env)
		if err != nil {
			return nil, err
		}
		return e.host.SafeAttrAccess(recv, n.Name)

	case *codegen.SafeMethodCall:
		recv, err := e.evalExpr(n.Recv, env)
		if err != nil {
			return nil, err
		}
		args, err := e.evalExprs(n.Args, env)
		if err != nil {
			return nil, err
		}
		return e.host.SafeMethodCall(recv, n.Name, args)

	case *codegen.DirectCall:
		return e.evalDirectCall(n, env)

	case *codegen.Binary:
		return e.evalBinary(n, env)

	case *codegen.Unary:
		v, err := e.evalExpr(n.X, env)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "!":
			return !truthy(v), nil
		case "-":
			switch num := v.(type) {
			case int64:
				return -num, nil
			case float64:
				return -num, nil
			}
			return nil, faultf(FaultType, "cannot negate %s", typeHintOf(v))
		}
		return nil, faultf(FaultRuntime, "unsupported unary operator %q", n.Op)

	case *codegen.IndexExpr:
		return e.evalIndex(n, env)

	case *codegen.ListExpr:
		elems, err := e.evalExprs(n.Elems, env)
		if err != nil {
			return nil, err
		}
		if err := e.alloc(16 * int64(len(elems)+1)); err != nil {
			return nil, err
		}
		return elems, nil

	case *codegen.MapExpr:
		m := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			v, err := e.evalExpr(n.Vals[i], env)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		if err := e.alloc(32 * int64(len(n.Keys)+1)); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, faultf(FaultRuntime, "unsupported expression %T", x)
}

func (e *evaluator) readLocal(n *codegen.LocalRef, env *env) (any, error) {
	v, ok := env.lookup(n.Name)
	if !ok {
		return nil, faultf(FaultName, "variable %q is not defined", n.Name)
	}
	if _, isSentinel := v.(uninitialized); isSentinel {
		return nil, faultf(FaultUninitialized, "variable %q read before assignment", n.Name)
	}
	return v, nil
}

func (e *evaluator) evalDirectCall(n *codegen.DirectCall, env *env) (any, error) {
	callee, err := e.readLocal(n.Callee, env)
	if err != nil {
		return nil, err
	}
	args, err := e.evalExprs(n.Args, env)
	if err != nil {
		return nil, err
	}
	switch fn := callee.(type) {
	case *function:
		if len(args) != len(fn.params) {
			return nil, faultf(FaultType, "%s takes %d arguments, got %d", fn.name, len(fn.params), len(args))
		}
		frame := newEnv(fn.env)
		for i, p := range fn.params {
			frame.declare(p, args[i])
		}
		err := e.execStmts(fn.body, frame)
		if ret, ok := err.(returnSignal); ok {
			return ret.value, nil
		}
		return nil, err
	case *hostStub:
		return fn.invoke()
	}
	return nil, faultf(FaultType, "%s is not callable", typeHintOf(callee))
}

func (e *evaluator) evalIndex(n *codegen.IndexExpr, env *env) (any, error) {
	target, err := e.evalExpr(n.Target, env)
	if err != nil {
		return nil, err
	}
	key, err := e.evalExpr(n.Key, env)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case []any:
		i, ok := key.(int64)
		if !ok {
			return nil, faultf(FaultType, "list index must be an int, got %s", typeHintOf(key))
		}
		if i < 0 || i >= int64(len(t)) {
			return nil, faultf(FaultIndex, "index %d out of range (len %d)", i, len(t))
		}
		return t[i], nil
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, faultf(FaultType, "map key must be a string, got %s", typeHintOf(key))
		}
		v, ok := t[k]
		if !ok {
			return nil, faultf(FaultKey, "key %q not found", k)
		}
		return v, nil
	case string:
		i, ok := key.(int64)
		if !ok {
			return nil, faultf(FaultType, "string index must be an int, got %s", typeHintOf(key))
		}
		if i < 0 || i >= int64(len(t)) {
			return nil, faultf(FaultIndex, "index %d out of range (len %d)", i, len(t))
		}
		return string(t[i]), nil
	}
	return nil, faultf(FaultType, "%s is not indexable", typeHintOf(target))
}

func (e *evaluator) evalBinary(n *codegen.Binary, env *env) (any, error) {
	// && and || short-circuit; everything else evaluates both sides.
	if n.Op == "&&" || n.Op == "||" {
		l, err := e.evalExpr(n.L, env)
		if err != nil {
			return nil, err
		}
		if n.Op == "&&" && !truthy(l) {
			return false, nil
		}
		if n.Op == "||" && truthy(l) {
			return true, nil
		}
		r, err := e.evalExpr(n.R, env)
		if err != nil {
			return nil, err
		}
		return truthy(r), nil
	}

	l, err := e.evalExpr(n.L, env)
	if err != nil {
		return nil, err
	}
	r, err := e.evalExpr(n.R, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "==":
		return valuesEqual(l, r), nil
	case "!=":
		return !valuesEqual(l, r), nil
	}

	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		if !ok {
			return nil, faultf(FaultType, "cannot apply %q to string and %s", n.Op, typeHintOf(r))
		}
		switch n.Op {
		case "+":
			if err := e.alloc(int64(len(ls) + len(rs))); err != nil {
				return nil, err
			}
			return ls + rs, nil
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		}
		return nil, faultf(FaultType, "cannot apply %q to strings", n.Op)
	}

	return numericBinary(n.Op, l, r)
}

func numericBinary(op string, l, r any) (any, error) {
	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt {
		switch op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "/":
			if ri == 0 {
				return nil, faultf(FaultZeroDivision, "division by zero")
			}
			return li / ri, nil
		case "%":
			if ri == 0 {
				return nil, faultf(FaultZeroDivision, "modulo by zero")
			}
			return li % ri, nil
		case "<":
			return li < ri, nil
		case "<=":
			return li <= ri, nil
		case ">":
			return li > ri, nil
		case ">=":
			return li >= ri, nil
		}
		return nil, faultf(FaultType, "unsupported operator %q", op)
	}

	lf, lOK := toFloat(l)
	rf, rOK := toFloat(r)
	if !lOK || !rOK {
		return nil, faultf(FaultType, "cannot apply %q to %s and %s", op, typeHintOf(l), typeHintOf(r))
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, faultf(FaultZeroDivision, "division by zero")
		}
		return lf / rf, nil
	case "<":
		return lf < rf, nil
	case "<=":
		return lf <= rf, nil
	case ">":
		return lf > rf, nil
	case ">=":
		return lf >= rf, nil
	}
	return nil, faultf(FaultType, "unsupported operator %q", op)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func valuesEqual(l, r any) bool {
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return lf == rf
		}
		return false
	}
	return reflect.DeepEqual(l, r)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

// formatValue renders a runtime value for print and error messages.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			parts = append(parts, formatValue(el))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return fmt.Sprintf("%v", t)
	case *function:
		return "<fn " + t.name + ">"
	}
	return fmt.Sprintf("%v", v)
}

func renderArgs(args []any) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, formatValue(a))
	}
	return strings.Join(parts, " ")
}
