// Package filter parses AIP-160 filter expressions over draft listings and
// translates them into SQL conditions.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	apperrors "github.com/louisbranch/reimburse/internal/platform/errors"
)

// DraftDeclarations returns the field declarations for draft filtering.
func DraftDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("draft_name", filtering.TypeString),
		filtering.DeclareIdent("created_at", filtering.TypeTimestamp),
		filtering.DeclareIdent("updated_at", filtering.TypeTimestamp),
	)
}

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "draft_name = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

type fieldKind int

const (
	stringField fieldKind = iota
	timestampField
)

type field struct {
	column string
	kind   fieldKind
}

// fields maps filter field names to SQL columns.
var fields = map[string]field{
	"draft_name": {column: "draft_name", kind: stringField},
	"created_at": {column: "created_at", kind: timestampField},
	"updated_at": {column: "updated_at", kind: timestampField},
}

// ParseDraftFilter parses an AIP-160 filter expression and returns a SQL
// condition. An empty filter yields an empty condition. Failures carry
// CodeFilterInvalid.
func ParseDraftFilter(filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := DraftDeclarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, invalid(err)
	}

	cond, err := translateExpr(filter.CheckedExpr.GetExpr())
	if err != nil {
		return SQLCondition{}, invalid(err)
	}
	return cond, nil
}

func invalid(err error) error {
	return apperrors.Wrap(apperrors.CodeFilterInvalid, "invalid filter: "+err.Error(), err)
}

func translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(kind.CallExpr)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case filtering.FunctionAnd:
		return translateJunction(call.Args, "AND")
	case filtering.FunctionOr:
		return translateJunction(call.Args, "OR")
	case filtering.FunctionNot:
		return translateNot(call.Args)
	case filtering.FunctionEquals:
		return translateComparison(call.Args, "=")
	case filtering.FunctionNotEquals:
		return translateComparison(call.Args, "!=")
	case filtering.FunctionLessThan:
		return translateComparison(call.Args, "<")
	case filtering.FunctionLessEquals:
		return translateComparison(call.Args, "<=")
	case filtering.FunctionGreaterThan:
		return translateComparison(call.Args, ">")
	case filtering.FunctionGreaterEquals:
		return translateComparison(call.Args, ">=")
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateJunction(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) < 2 {
		return SQLCondition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}

	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := translateExpr(arg)
		if err != nil {
			return SQLCondition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}

	return SQLCondition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func translateNot(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 1 {
		return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
	}
	inner, err := translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
}

// translateComparison handles field-op-value. A string equality whose value
// contains "*" becomes a LIKE with "*" as the wildcard.
func translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	name, err := extractFieldName(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	f, ok := fields[name]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", name)
	}

	switch f.kind {
	case timestampField:
		value, err := extractTimestampValue(args[1])
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{
			Clause: fmt.Sprintf("%s %s ?", f.column, op),
			Params: []any{value.UTC().UnixMilli()},
		}, nil
	default:
		value, err := extractStringValue(args[1])
		if err != nil {
			return SQLCondition{}, err
		}
		if strings.Contains(value, "*") && (op == "=" || op == "!=") {
			like := "LIKE"
			if op == "!=" {
				like = "NOT LIKE"
			}
			return SQLCondition{
				Clause: fmt.Sprintf(`%s %s ? ESCAPE '\'`, f.column, like),
				Params: []any{likePattern(value)},
			}, nil
		}
		return SQLCondition{
			Clause: fmt.Sprintf("%s %s ?", f.column, op),
			Params: []any{value},
		}, nil
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`, "*", "%")

func likePattern(value string) string {
	return likeEscaper.Replace(value)
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractStringValue(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}
	constant, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return "", fmt.Errorf("expected constant, got %T", e.ExprKind)
	}
	value, ok := constant.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return "", fmt.Errorf("expected string constant, got %T", constant.ConstExpr.ConstantKind)
	}
	return value.StringValue, nil
}

// extractTimestampValue reads timestamp("...") or a bare RFC 3339 string.
func extractTimestampValue(e *expr.Expr) (time.Time, error) {
	if e == nil {
		return time.Time{}, fmt.Errorf("nil expression")
	}

	if call, ok := e.ExprKind.(*expr.Expr_CallExpr); ok {
		if call.CallExpr.Function != filtering.FunctionTimestamp || len(call.CallExpr.Args) != 1 {
			return time.Time{}, fmt.Errorf("unsupported function in value position: %s", call.CallExpr.Function)
		}
		e = call.CallExpr.Args[0]
	}

	raw, err := extractStringValue(e)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp argument must be a constant string")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp format: %s", raw)
	}
	return t, nil
}
