package preset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cwbudde/sixteen/looper"
)

// LoadLua runs a preset script and returns the assignments it made.
//
// The script sees three globals: set(key, number), set_bool(key, bool), and
// default(key), which returns a parameter's default. Assigning the global
// name overrides fallbackName. Unknown keys raise a Lua error. Only the base,
// table, string and math libraries are loaded. ctx bounds the run time.
//
// Transport parameters are always forced off after the script's own
// assignments.
func LoadLua(ctx context.Context, fallbackName, source string) (Preset, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	openSafeLibs(L)
	L.SetContext(ctx)

	var settings []Setting

	lookup := func(L *lua.LState) looper.ParamID {
		key := L.CheckString(1)
		id, err := looper.Lookup(key)
		if err != nil {
			L.ArgError(1, err.Error())
		}
		return id
	}

	L.SetGlobal("set", L.NewFunction(func(L *lua.LState) int {
		id := lookup(L)
		if id.Info().Bool {
			L.ArgError(1, fmt.Sprintf("%s is a switch, use set_bool", id))
		}
		settings = append(settings, Setting{ID: id, Value: float32(L.CheckNumber(2))})
		return 0
	}))

	L.SetGlobal("set_bool", L.NewFunction(func(L *lua.LState) int {
		id := lookup(L)
		settings = append(settings, Setting{ID: id, Value: flag(L.CheckBool(2))})
		return 0
	}))

	L.SetGlobal("default", L.NewFunction(func(L *lua.LState) int {
		id := lookup(L)
		L.Push(lua.LNumber(id.Info().Default))
		return 1
	}))

	if err := L.DoString(source); err != nil {
		return Preset{}, fmt.Errorf("preset %q: %w", fallbackName, err)
	}

	name := fallbackName
	if v, ok := L.GetGlobal("name").(lua.LString); ok && v != "" {
		name = string(v)
	}

	return Preset{Name: name, Settings: append(settings, transportOff...)}, nil
}

// LoadLuaFile loads a preset script from path. The file name without its
// extension is the fallback name.
func LoadLuaFile(ctx context.Context, path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("read preset: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadLua(ctx, base, string(data))
}

func openSafeLibs(L *lua.LState) {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// Base brings file loaders; presets have no business with the filesystem.
	for _, name := range []string{"dofile", "loadfile", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}
