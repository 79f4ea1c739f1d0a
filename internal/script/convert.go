package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// goValueToLua converts a Go value to a Lua value
func goValueToLua(L *lua.LState, value interface{}) lua.LValue {
	switch v := value.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case uint64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []string:
		table := L.NewTable()
		for i, item := range v {
			table.RawSetInt(i+1, lua.LString(item)) // Lua arrays are 1-indexed
		}
		return table
	case []interface{}:
		table := L.NewTable()
		for i, item := range v {
			table.RawSetInt(i+1, goValueToLua(L, item))
		}
		return table
	case map[string]interface{}:
		table := L.NewTable()
		for key, val := range v {
			table.RawSetString(key, goValueToLua(L, val))
		}
		return table
	default:
		return lua.LString(fmt.Sprintf("%v", v))
	}
}

// luaValueToGo converts a Lua value to a Go value. Numbers are always float64
// so they decode straight into component parameters.
func luaValueToGo(value lua.LValue) interface{} {
	switch v := value.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if isLuaArray(v) {
			return luaTableToSlice(v)
		}
		return luaTableToMap(v)
	default:
		return v.String()
	}
}

// isLuaArray checks if a Lua table has only consecutive integer keys from 1
func isLuaArray(table *lua.LTable) bool {
	length := table.Len()
	if length == 0 {
		return false
	}

	array := true
	table.ForEach(func(key, _ lua.LValue) {
		n, ok := key.(lua.LNumber)
		if !ok || int(n) < 1 || int(n) > length {
			array = false
		}
	})
	return array
}

func luaTableToSlice(table *lua.LTable) []interface{} {
	length := table.Len()
	result := make([]interface{}, length)
	for i := 1; i <= length; i++ {
		result[i-1] = luaValueToGo(table.RawGetInt(i))
	}
	return result
}

func luaTableToMap(table *lua.LTable) map[string]interface{} {
	result := make(map[string]interface{})
	table.ForEach(func(key, value lua.LValue) {
		result[fmt.Sprintf("%v", luaValueToGo(key))] = luaValueToGo(value)
	})
	return result
}
