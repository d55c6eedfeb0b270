package parser

import (
	"regexp"
	"strconv"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"
)

// Inline helpers the control panel calls to render stars, check marks and the search mode
const (
	fnShowStars   = "ShowStars"
	fnGetValidPic = "getvalidpic"
	fnSearchType  = "searchtype"
)

const scriptTimeout = 100 * time.Millisecond

var (
	scriptFallbacks = map[string]*regexp.Regexp{
		fnShowStars:   regexp.MustCompile(`ShowStars\((\d+),`),
		fnGetValidPic: regexp.MustCompile(`getvalidpic\((\d+)\)`),
		fnSearchType:  regexp.MustCompile(`searchtype\((\d+)\)`),
	}
)

// scriptArg returns the first argument the snippet passes to fn.
// The snippet runs in a sandbox where the page helpers only record their arguments;
// snippets the VM rejects fall back to pattern matching.
func scriptArg(script, fn string) (int, bool) {
	if script == "" {
		return 0, false
	}
	if calls := evalScript(script); calls != nil {
		if n, ok := calls[fn]; ok {
			return n, true
		}
	}
	re, ok := scriptFallbacks[fn]
	if !ok {
		return 0, false
	}
	m := re.FindStringSubmatch(script)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// evalScript records the first argument of the first call to each helper
func evalScript(script string) map[string]int {
	calls := map[string]int{}
	vm := goja.New()

	record := func(name string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			if _, seen := calls[name]; !seen && len(call.Arguments) > 0 {
				calls[name] = int(call.Argument(0).ToInteger())
			}
			return vm.ToValue("")
		}
	}
	noop := func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	}

	vm.Set(fnShowStars, record(fnShowStars))
	vm.Set(fnGetValidPic, record(fnGetValidPic))
	vm.Set(fnSearchType, record(fnSearchType))
	vm.Set("document", map[string]interface{}{
		"write":   noop,
		"writeln": noop,
	})

	timer := time.AfterFunc(scriptTimeout, func() {
		vm.Interrupt("script timeout")
	})
	defer timer.Stop()

	if _, err := vm.RunString(script); err != nil {
		log.Debug().Err(err).Str("script", script).Msg("Inline script rejected, using pattern fallback")
		if len(calls) == 0 {
			return nil
		}
	}
	return calls
}
