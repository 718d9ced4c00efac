package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"

	"github.com/thisisjab/clefzilla/entity"
	"github.com/thisisjab/clefzilla/fault"
)

// ScriptPredicate loads a Lua script and turns it into a predicate. The
// script MUST define a function `match_event(event)` taking the event as a
// JSON string and returning a boolean. A JSON helper is available via
// `local json = require("json")`. Script problems surface here as a
// filter_config fault; at evaluation time a script error means "does not
// match", never a raised error.
func ScriptPredicate(path string) (Predicate, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.New(fault.FilterConfigCode,
			fmt.Sprintf("cannot read filter script %s", path)).WithOriginal(err)
	}

	newState := func() (*lua.LState, error) {
		L := lua.NewState(lua.Options{
			SkipOpenLibs: true, // Don't load anything by default
		})

		// Only the safe libraries: no 'os', no 'io', so scripts cannot
		// touch the system.
		for _, lib := range []struct {
			name string
			fn   lua.LGFunction
		}{
			{lua.LoadLibName, lua.OpenPackage},
			{lua.BaseLibName, lua.OpenBase},
			{lua.TabLibName, lua.OpenTable},
			{lua.StringLibName, lua.OpenString},
		} {
			L.Push(L.NewFunction(lib.fn))
			L.Push(lua.LString(lib.name))
			L.Call(1, 0)
		}

		luajson.Preload(L)

		if err := L.DoString(string(src)); err != nil {
			L.Close()
			return nil, err
		}
		return L, nil
	}

	// Validate once, eagerly, so a broken script fails the build instead of
	// the first evaluation.
	first, err := newState()
	if err != nil {
		return nil, fault.New(fault.FilterConfigCode,
			fmt.Sprintf("cannot load filter script %s", path)).WithOriginal(err)
	}
	if _, ok := first.GetGlobal("match_event").(*lua.LFunction); !ok {
		first.Close()
		return nil, fault.New(fault.FilterConfigCode,
			fmt.Sprintf("filter script %s does not define match_event", path))
	}

	pool := &sync.Pool{
		New: func() any {
			L, err := newState()
			if err != nil {
				// The source already executed cleanly once.
				panic(err)
			}
			return L
		},
	}
	pool.Put(first)

	return func(e entity.Event) bool {
		L := pool.Get().(*lua.LState)
		defer pool.Put(L)

		err := L.CallByParam(lua.P{
			Fn:      L.GetGlobal("match_event"),
			NRet:    1,
			Protect: true,
		}, lua.LString(eventJSON(e)))
		if err != nil {
			return false
		}

		ret := L.Get(-1)
		L.Pop(1)
		return lua.LVAsBool(ret)
	}, nil
}

// eventJSON renders the event for script consumption. Unset attributes are
// omitted so scripts can test presence with `~= nil`.
func eventJSON(e entity.Event) string {
	doc := make(map[string]any, 10)
	if e.HasTimestamp() {
		doc["timestamp"] = e.Timestamp.Format(time.RFC3339Nano)
	}
	if e.Level != "" {
		doc["level"] = e.Level
	}
	if e.Message != "" {
		doc["message"] = e.Message
	}
	if e.MessageTemplate != "" {
		doc["message_template"] = e.MessageTemplate
	}
	if !e.Exception.IsZero() {
		doc["exception"] = e.Exception
	}
	if !e.EventID.IsZero() {
		doc["event_id"] = e.EventID
	}
	if !e.Renderings.IsZero() {
		doc["renderings"] = e.Renderings
	}
	doc["user_fields"] = e.UserFields
	doc["line_number"] = e.LineNumber

	raw, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
