package vm

import (
	"fmt"
	"time"

	"github.com/kristofer/loxvm/pkg/value"
)

// defineNatives binds the baseline host environment (spec.md §4.2:
// "Native functions are bound at init time").
func (vm *VM) defineNatives() {
	vm.defineNative("clock", vm.nativeClock)
}

func (vm *VM) defineNative(name string, fn value.NativeFn) {
	// Both objects stay on the stack until the globals table holds them,
	// so a collection triggered by NewNative cannot sweep the name.
	str := vm.heap.InternString(name)
	vm.push(value.FromObj(str))
	native := vm.heap.NewNative(name, fn)
	vm.push(value.FromObj(native))
	vm.heap.Globals.Set(str, vm.peek(0))
	vm.pop()
	vm.pop()
}

// nativeClock returns seconds elapsed since the VM was constructed, the
// process-start epoch spec.md §4.2 specifies.
func (vm *VM) nativeClock(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Nil(), fmt.Errorf("clock() takes no arguments")
	}
	return value.Number(time.Since(vm.startTime).Seconds()), nil
}
