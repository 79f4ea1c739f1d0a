package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"go-circuit-lab/internal/engine"
	"go-circuit-lab/internal/models"
)

// Result is the outcome of running a circuit script
type Result struct {
	Output    []string             `json:"output"`
	Semantics models.SemanticState `json:"semantics"`
	Revision  uint64               `json:"revision"`
}

// Runner executes Lua circuit scripts against a simulator
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a new script runner
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{logger: logger}
}

// Run executes source with the circuit API bound to sim. Every call made by
// the script is an ordinary simulator mutation, so the circuit is recomputed
// after each one. The context bounds the script's run time.
func (r *Runner) Run(ctx context.Context, sim *engine.Simulator, source string) (*Result, error) {
	L, err := newState()
	if err != nil {
		return nil, err
	}
	defer L.Close()
	L.SetContext(ctx)

	b := &binding{sim: sim}
	b.register(L)

	if err := L.DoString(source); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("script cancelled: %w", ctxErr)
		}
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) && apiErr.Cause != nil {
			return nil, fmt.Errorf("script failed: %w", apiErr.Cause)
		}
		return nil, fmt.Errorf("script failed: %w", err)
	}

	r.logger.Debug("script finished", "lines", len(b.output), "revision", sim.Revision())
	return &Result{
		Output:    b.output,
		Semantics: sim.Semantics(),
		Revision:  sim.Revision(),
	}, nil
}

// newState opens a Lua state with only the side-effect free libraries
func newState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, pair := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(pair.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(pair.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open lua library %s: %w", pair.name, err)
		}
	}

	// No file access or module loading from scripts. The base library
	// registers require and module even without the package library.
	for _, name := range []string{"dofile", "loadfile", "require", "module", "_printregs"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L, nil
}

// binding exposes simulator operations as Lua globals
type binding struct {
	sim    *engine.Simulator
	output []string
}

func (b *binding) register(L *lua.LState) {
	L.SetGlobal("print", L.NewFunction(b.luaPrint))
	L.SetGlobal("node", L.NewFunction(b.luaNode))
	L.SetGlobal("add", L.NewFunction(b.luaAdd))
	L.SetGlobal("connect", L.NewFunction(b.luaConnect))
	L.SetGlobal("wire", L.NewFunction(b.luaWire))
	L.SetGlobal("disconnect", L.NewFunction(b.luaDisconnect))
	L.SetGlobal("set", L.NewFunction(b.luaSet))
	L.SetGlobal("toggle", L.NewFunction(b.luaToggle))
	L.SetGlobal("repair", L.NewFunction(b.luaRepair))
	L.SetGlobal("remove", L.NewFunction(b.luaRemove))
	L.SetGlobal("reset", L.NewFunction(b.luaReset))
	L.SetGlobal("component", L.NewFunction(b.luaComponent))
	L.SetGlobal("voltage", L.NewFunction(b.luaVoltage))
	L.SetGlobal("semantics", L.NewFunction(b.luaSemantics))
	L.SetGlobal("measure", L.NewFunction(b.luaMeasure))
}

// raise aborts the script with a simulator error
func raise(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}

// pushJSON pushes any JSON-encodable value as a Lua table
func pushJSON(L *lua.LState, v interface{}) int {
	data, err := json.Marshal(v)
	if err != nil {
		return raise(L, err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return raise(L, err)
	}
	L.Push(goValueToLua(L, generic))
	return 1
}

func (b *binding) luaPrint(L *lua.LState) int {
	args := make([]string, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		args[i-1] = L.Get(i).String()
	}
	b.output = append(b.output, strings.Join(args, "\t"))
	return 0
}

// node(label [, x, y])
func (b *binding) luaNode(L *lua.LState) int {
	label := L.CheckString(1)
	pos := models.Position{X: float64(L.OptNumber(2, 0)), Y: float64(L.OptNumber(3, 0))}
	if _, err := b.sim.AddNode(label, pos); err != nil {
		return raise(L, err)
	}
	L.Push(lua.LString(label))
	return 1
}

// add(type, id, nodeA, nodeB [, properties])
func (b *binding) luaAdd(L *lua.LState) int {
	spec := models.ComponentSpec{
		Type:  L.CheckString(1),
		ID:    L.CheckString(2),
		Nodes: []string{L.CheckString(3), L.CheckString(4)},
	}
	if props := L.OptTable(5, nil); props != nil {
		spec.Properties = luaTableToMap(props)
	}
	if err := b.sim.AddComponent(spec); err != nil {
		return raise(L, err)
	}
	L.Push(lua.LString(spec.ID))
	return 1
}

// connect(nodeA, nodeB)
func (b *binding) luaConnect(L *lua.LState) int {
	id, err := b.sim.Connect(L.CheckString(1), L.CheckString(2))
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LString(id))
	return 1
}

func checkTerminal(L *lua.LState, n int) models.Terminal {
	term, err := models.ParseTerminal(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return term
}

// wire(compA, termA, compB, termB)
func (b *binding) luaWire(L *lua.LState) int {
	id, err := b.sim.ConnectTerminals(L.CheckString(1), checkTerminal(L, 2), L.CheckString(3), checkTerminal(L, 4))
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LString(id))
	return 1
}

// disconnect(wireID) or disconnect(compA, termA, compB, termB)
func (b *binding) luaDisconnect(L *lua.LState) int {
	var sel engine.WireSelector
	if L.GetTop() == 1 {
		sel.WireID = L.CheckString(1)
	} else {
		sel = engine.WireSelector{
			FromComponent: L.CheckString(1),
			FromTerminal:  checkTerminal(L, 2),
			ToComponent:   L.CheckString(3),
			ToTerminal:    checkTerminal(L, 4),
		}
	}
	removed, err := b.sim.Disconnect(sel)
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LNumber(removed))
	return 1
}

// set(id, key, value)
func (b *binding) luaSet(L *lua.LState) int {
	id := L.CheckString(1)
	key := L.CheckString(2)
	value := luaValueToGo(L.CheckAny(3))
	if err := b.sim.UpdateComponentProperty(id, key, value); err != nil {
		return raise(L, err)
	}
	return 0
}

// toggle(id)
func (b *binding) luaToggle(L *lua.LState) int {
	if err := b.sim.Apply(engine.ToggleSwitch{ID: L.CheckString(1)}); err != nil {
		return raise(L, err)
	}
	return 0
}

// repair(id)
func (b *binding) luaRepair(L *lua.LState) int {
	if err := b.sim.Apply(engine.ResetHealth{ID: L.CheckString(1)}); err != nil {
		return raise(L, err)
	}
	return 0
}

// remove(id)
func (b *binding) luaRemove(L *lua.LState) int {
	if err := b.sim.RemoveComponent(L.CheckString(1)); err != nil {
		return raise(L, err)
	}
	return 0
}

func (b *binding) luaReset(L *lua.LState) int {
	b.sim.Reset()
	return 0
}

// component(id) returns the component's type, health and outputs
func (b *binding) luaComponent(L *lua.LState) int {
	comp, err := b.sim.Component(L.CheckString(1))
	if err != nil {
		return raise(L, err)
	}
	view := map[string]interface{}{
		"id":     comp.ID,
		"type":   string(comp.Type),
		"health": string(comp.Health),
	}
	n := pushJSON(L, comp.Output)
	table := L.Get(-1).(*lua.LTable)
	for k, v := range view {
		table.RawSetString(k, goValueToLua(L, v))
	}
	return n
}

// voltage(label)
func (b *binding) luaVoltage(L *lua.LState) int {
	node, err := b.sim.Node(L.CheckString(1))
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LNumber(node.Voltage))
	return 1
}

func (b *binding) luaSemantics(L *lua.LState) int {
	sem := b.sim.Semantics()
	n := pushJSON(L, sem)
	table := L.Get(-1).(*lua.LTable)
	table.RawSetString("topology", lua.LString(sem.Topology()))
	table.RawSetString("tags", goValueToLua(L, sem.Tags()))
	return n
}

func (b *binding) luaMeasure(L *lua.LState) int {
	return pushJSON(L, b.sim.Measurements())
}
