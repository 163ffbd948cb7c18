package okto

// Hook observes the emulator around cycle boundaries. Hooks run on the
// emulation goroutine, so a slow hook slows the machine.
type Hook func(emu *Emulator)

// AddBeforeCycleHook adds a hook that runs before every cycle.
func (emu *Emulator) AddBeforeCycleHook(h Hook) int {
	emu.beforeCycleHooks = append(emu.beforeCycleHooks, h)

	return len(emu.beforeCycleHooks)
}

// AddAfterCycleHook adds a hook that runs after every cycle.
func (emu *Emulator) AddAfterCycleHook(h Hook) int {
	emu.afterCycleHooks = append(emu.afterCycleHooks, h)

	return len(emu.afterCycleHooks)
}

// AddErrorHook adds a hook that runs when a cycle fails, before Run
// returns the error.
func (emu *Emulator) AddErrorHook(h Hook) int {
	emu.errorHooks = append(emu.errorHooks, h)

	return len(emu.errorHooks)
}

func (emu *Emulator) runHooks(hooks []Hook) {
	for _, h := range hooks {
		h(emu)
	}
}
