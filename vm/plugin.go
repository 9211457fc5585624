package vm

import "fmt"

// Plugin is the before/after-instruction observer contract. A plugin must
// only observe VM state; the host never prevents it from mutating memory
// or registers, but a plugin that does so is outside the contract this
// host implements.
type Plugin interface {
	// Name identifies the plugin in diagnostics.
	Name() string

	// Init produces the plugin's per-run opaque state. An error aborts the
	// run before any instruction executes.
	Init(vm *VM) (any, error)

	// BeforeExecution runs after cmd has been fetched but before it is
	// executed. Registers still reflect the state before cmd runs.
	BeforeExecution(vm *VM, state any, cmd Word)

	// AfterExecution runs after cmd's semantic effect has been applied. Not
	// called for HALT or for an unknown opcode, matching the reference
	// interpreter's early return on both paths.
	AfterExecution(vm *VM, state any, cmd Word)
}

type registeredPlugin struct {
	plugin Plugin
	state  any
}

// PluginHost holds an ordered, capacity-bounded list of registered
// plugins and calls their hooks in registration order.
type PluginHost struct {
	plugins []registeredPlugin
}

func NewPluginHost() *PluginHost {
	return &PluginHost{}
}

// Register adds a plugin to the host. Order of registration is the order
// hooks are later invoked in.
func (h *PluginHost) Register(p Plugin) error {
	if len(h.plugins) >= NMaxPlugins {
		return &Error{Kind: TooManyPlugins}
	}
	h.plugins = append(h.plugins, registeredPlugin{plugin: p})
	return nil
}

// initAll runs every registered plugin's Init hook, in order, before any
// instruction executes. The first failure aborts with the failing
// plugin's name attached.
func (h *PluginHost) initAll(vm *VM) error {
	for i := range h.plugins {
		state, err := h.plugins[i].plugin.Init(vm)
		if err != nil {
			return fmt.Errorf("plugin %q failed to initialize: %w", h.plugins[i].plugin.Name(), err)
		}
		h.plugins[i].state = state
	}
	return nil
}

func (h *PluginHost) before(vm *VM, cmd Word) {
	for _, rp := range h.plugins {
		rp.plugin.BeforeExecution(vm, rp.state, cmd)
	}
}

func (h *PluginHost) after(vm *VM, cmd Word) {
	for _, rp := range h.plugins {
		rp.plugin.AfterExecution(vm, rp.state, cmd)
	}
}
