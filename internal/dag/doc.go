// Package dag is a small directed graph used to track which module imports
// which. The interpreter adds an edge per import and asks the graph for cycles
// before it suspends for a new module.
package dag
