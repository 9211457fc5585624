package vm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderRecordingPlugin struct {
	id    int
	order *[]int
}

func (p *orderRecordingPlugin) Name() string            { return "order" }
func (p *orderRecordingPlugin) Init(vm *VM) (any, error) { return nil, nil }
func (p *orderRecordingPlugin) BeforeExecution(vm *VM, state any, cmd Word) {
	*p.order = append(*p.order, p.id)
}
func (p *orderRecordingPlugin) AfterExecution(vm *VM, state any, cmd Word) {}

func TestPluginHost_CallsHooksInRegistrationOrder(t *testing.T) {
	host := NewPluginHost()
	var order []int
	for i := 0; i < 3; i++ {
		require.NoError(t, host.Register(&orderRecordingPlugin{id: i, order: &order}))
	}

	host.before(nil, ADD)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestPluginHost_CapacityLimit(t *testing.T) {
	host := NewPluginHost()
	for i := 0; i < NMaxPlugins; i++ {
		require.NoError(t, host.Register(&orderRecordingPlugin{id: i, order: &[]int{}}))
	}

	err := host.Register(&orderRecordingPlugin{id: NMaxPlugins, order: &[]int{}})
	require.Error(t, err)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, TooManyPlugins, verr.Kind)
}

type failingInitPlugin struct{}

func (p *failingInitPlugin) Name() string { return "failing" }
func (p *failingInitPlugin) Init(vm *VM) (any, error) {
	return nil, errors.New("boom")
}
func (p *failingInitPlugin) BeforeExecution(vm *VM, state any, cmd Word) {}
func (p *failingInitPlugin) AfterExecution(vm *VM, state any, cmd Word)  {}

func TestPluginHost_InitFailureAbortsRun(t *testing.T) {
	img := NewImage()
	img.M[Reserved] = HALT
	img.ProgramSize = Reserved + 1

	host := NewPluginHost()
	require.NoError(t, host.Register(&failingInitPlugin{}))

	machine := NewVM(img, host, nil, nil)
	_, err := machine.Run(InterpretParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Contains(t, err.Error(), "boom")
}
