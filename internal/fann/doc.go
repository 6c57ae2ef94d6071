// Package fann implements feed-forward neural networks and their training
// data in the style of the Fast Artificial Neural Network library.
//
// Neurons are addressed by global index across layers, including bias
// neurons, so connection lists and saved files line up with tooling that
// speaks FANN's numbering. Networks persist as YAML; training data uses
// FANN's plain text format.
//
// Objects are not safe for concurrent use.
package fann
