package bridge

import (
	"context"
	"sort"

	"github.com/danmuck/fannport/internal/protocol/term"
)

// HandlerFunc decodes a command argument, performs one operation and
// returns the result term.
type HandlerFunc func(ctx context.Context, b *Bridge, arg term.Term) (term.Term, error)

// Command is one entry of the dispatch table.
type Command struct {
	Name    string
	Summary string
	Handler HandlerFunc
}

var commandTable = []Command{
	{"create_standard", "build a network from layer sizes", createStandard},
	{"create_from_file", "load a saved network", createFromFile},
	{"copy", "deep-copy a network", copyModel},
	{"destroy", "release a network", destroyModel},
	{"save_to_file", "save a network", saveModel},

	{"read_train_from_file", "load training data", readTrain},
	{"destroy_train", "release training data", destroyTrain},
	{"duplicate_train", "copy training data", duplicateTrain},
	{"merge_train", "concatenate two training sets", mergeTrain},
	{"subset_train_data", "copy a slice of training data", subsetTrain},
	{"shuffle_train", "shuffle training data in place", shuffleTrain},
	{"save_train", "save training data", saveTrain},
	{"get_train_params", "describe training data", trainParams},

	{"run", "run an input vector", runModel},
	{"train", "train on one pattern", trainPattern},
	{"test", "test one pattern", testPattern},
	{"train_on_file", "train from a data file", trainOnFile},
	{"train_on_data", "train on registered data", trainOnData},
	{"train_epoch", "train one epoch", trainEpoch},
	{"test_data", "measure MSE over data", testData},
	{"reset_mse", "clear accumulated error", resetMSE},

	{"get_param", "read a named parameter", getParam},
	{"set_params", "set parameters from a map", setParams},

	{"randomize_weights", "draw weights from a range", randomizeWeights},
	{"init_weights", "Widrow-Nguyen initialisation", initWeights},
	{"set_weights", "set weights from a connection map", setWeights},
	{"set_weight", "set one connection weight", setWeight},

	{"get_activation_function", "read a neuron's activation", getActivationFunction},
	{"set_activation_function", "set activation for a target", setActivationFunction},
	{"get_activation_steepness", "read a neuron's steepness", getActivationSteepness},
	{"set_activation_steepness", "set steepness for a target", setActivationSteepness},

	{"set_scaling_params", "derive scaling from data", setScalingParams},
	{"clear_scaling_params", "drop scaling", clearScalingParams},
	{"scale_train", "scale training data in place", scaleTrain},
	{"descale_train", "descale training data in place", descaleTrain},
	{"scale_input", "scale an input vector", scaleInput},
	{"descale_input", "descale an input vector", descaleInput},
	{"scale_output", "scale an output vector", scaleOutput},
	{"descale_output", "descale an output vector", descaleOutput},

	{"registry_info", "count live handles", registryInfo},
}

var commandIndex = indexCommands(commandTable)

func indexCommands(list []Command) map[string]Command {
	out := make(map[string]Command, len(list))
	for _, c := range list {
		out[c.Name] = c
	}
	return out
}

// Lookup resolves a command by name.
func Lookup(name string) (Command, bool) {
	c, ok := commandIndex[name]
	return c, ok
}

// Commands returns the dispatch table ordered by name.
func Commands() []Command {
	out := make([]Command, len(commandTable))
	copy(out, commandTable)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
