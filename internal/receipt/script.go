package receipt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/Shopify/go-lua"
	"github.com/shopspring/decimal"
)

// refineFunction is the global a refine script must define.
const refineFunction = "refine"

const (
	// DefaultRefineSteps caps the Lua instructions one refine call may run.
	DefaultRefineSteps = 10_000_000
	// refineHookInterval is how many instructions run between budget and
	// context checks.
	refineHookInterval = 1_000
)

// ErrRefineBudget reports a refine call stopped for running too long.
var ErrRefineBudget = errors.New("refine exceeded its instruction budget")

// ScriptHook runs a Lua refine(r) function over each result. The script gets
// a table with category, merchant, amount, date and details and may return a
// modified table; returning nil keeps the result. Each call is stopped when
// ctx ends or after DefaultRefineSteps instructions.
type ScriptHook struct {
	mu       sync.Mutex
	state    *lua.State
	maxSteps int
}

// LoadScript loads a refine script from disk.
func LoadScript(path string) (*ScriptHook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("refine script: %w", err)
	}
	state := lua.NewState()
	lua.OpenLibraries(state)
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return newScriptHook(state)
}

// NewScriptHook compiles refine script source held in memory.
func NewScriptHook(source string) (*ScriptHook, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	if err := lua.LoadString(state, source); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return newScriptHook(state)
}

func newScriptHook(state *lua.State) (*ScriptHook, error) {
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	state.Global(refineFunction)
	defined := state.IsFunction(-1)
	state.Pop(1)
	if !defined {
		return nil, fmt.Errorf("script must define %s(r)", refineFunction)
	}
	return &ScriptHook{state: state, maxSteps: DefaultRefineSteps}, nil
}

// Refine implements Hook. On error the input result is returned unchanged.
func (h *ScriptHook) Refine(ctx context.Context, result Result) (Result, error) {
	if err := ctx.Err(); err != nil {
		return result, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	state := h.state
	top := state.Top()
	defer state.SetTop(top)

	var stop error
	steps := 0
	lua.SetDebugHook(state, func(l *lua.State, _ lua.Debug) {
		steps += refineHookInterval
		switch {
		case ctx.Err() != nil:
			stop = ctx.Err()
		case steps > h.maxSteps:
			stop = ErrRefineBudget
		default:
			return
		}
		lua.Errorf(l, "%s", stop.Error())
	}, lua.MaskCount, refineHookInterval)
	defer lua.SetDebugHook(state, nil, 0, 0)

	state.Global(refineFunction)
	pushResult(state, result)
	if err := state.ProtectedCall(1, 1, 0); err != nil {
		if stop != nil {
			return result, fmt.Errorf("run %s: %w", refineFunction, stop)
		}
		return result, fmt.Errorf("run %s: %w", refineFunction, err)
	}
	switch state.TypeOf(-1) {
	case lua.TypeNil:
		return result, nil
	case lua.TypeTable:
		return readResult(state, state.AbsIndex(-1), result), nil
	default:
		return result, fmt.Errorf("%s must return a table or nil, got %s", refineFunction, lua.TypeNameOf(state, -1))
	}
}

func pushResult(state *lua.State, result Result) {
	state.NewTable()
	state.PushString(result.Category.String())
	state.SetField(-2, "category")
	state.PushString(result.Merchant)
	state.SetField(-2, "merchant")
	state.PushNumber(result.Amount.InexactFloat64())
	state.SetField(-2, "amount")
	state.PushString(result.Date)
	state.SetField(-2, "date")

	state.NewTable()
	for key, value := range result.Details {
		state.PushString(value)
		state.SetField(-2, key)
	}
	state.SetField(-2, "details")
}

func readResult(state *lua.State, index int, base Result) Result {
	out := base

	if value, ok := stringField(state, index, "category"); ok && value != "" {
		out.Category = Category(value)
	}
	if value, ok := stringField(state, index, "merchant"); ok {
		out.Merchant = value
	}
	if value, ok := stringField(state, index, "date"); ok {
		out.Date = value
	}

	state.Field(index, "amount")
	if state.TypeOf(-1) == lua.TypeNumber {
		value, _ := state.ToNumber(-1)
		if value != base.Amount.InexactFloat64() {
			out.Amount = decimal.NewFromFloat(value)
		}
	}
	state.Pop(1)

	state.Field(index, "details")
	if state.TypeOf(-1) == lua.TypeTable {
		out.Details = tableToStrings(state, state.AbsIndex(-1))
	}
	state.Pop(1)
	return out
}

func stringField(state *lua.State, index int, name string) (string, bool) {
	state.Field(index, name)
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeString {
		return "", false
	}
	return state.ToString(-1)
}

func tableToStrings(state *lua.State, index int) map[string]string {
	output := map[string]string{}
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			switch state.TypeOf(-1) {
			case lua.TypeString:
				output[key], _ = state.ToString(-1)
			case lua.TypeNumber:
				value, _ := state.ToNumber(-1)
				output[key] = strconv.FormatFloat(value, 'f', -1, 64)
			case lua.TypeBoolean:
				output[key] = strconv.FormatBool(state.ToBoolean(-1))
			}
		}
		state.Pop(1)
	}
	return output
}
