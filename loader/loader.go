// Package loader loads Lua quest content into Go structs at startup.
// The Lua VM is discarded after loading; nothing Lua runs after that.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/questtrigger/types"
	lua "github.com/yuin/gopher-lua"
)

// Content is the compiled, validated result of a load.
type Content struct {
	Quests   []types.QuestDef
	Warnings []string
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	quests []rawQuest
}

// Load reads all .lua files from dir, compiles them into quest definitions,
// and validates cross-quest references.
func Load(dir string) (*Content, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading quest directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	return build(coll)
}

// LoadString compiles a single chunk of Lua source. Used by tests and
// embedded content.
func LoadString(src string) (*Content, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("executing quest source: %w", err)
	}
	return build(coll)
}

func build(coll *collector) (*Content, error) {
	quests, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling quest data: %w", err)
	}
	warnings, err := validate(quests)
	if err != nil {
		return nil, err
	}
	return &Content{Quests: quests, Warnings: warnings}, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the VM.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
	if mathTbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		mathTbl.RawSetString("randomseed", lua.LNil)
	}
}

// sortedLuaFiles returns .lua files with init.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var initFile string
	var others []string
	for _, f := range files {
		if f == "init.lua" {
			initFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if initFile != "" {
		return append([]string{initFile}, others...)
	}
	return others
}
