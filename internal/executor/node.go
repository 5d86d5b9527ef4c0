package executor

import (
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/interpreter"
	"github.com/vk/quill/internal/nodeid"
)

// NoValue is the style value of a property that was not given. Generators
// drop such entries.
const NoValue = ""

// Dependency targets recorded on a node.
const (
	TargetText    = "text"
	TargetVisible = "visible"
	TargetClasses = "classes"
	// TargetItems is the list a dummy node repeats over.
	TargetItems = "items"
)

// StyleTarget and AttrTarget name the dependency target of a style entry or
// attribute.
func StyleTarget(property string) string { return "style." + property }
func AttrTarget(name string) string      { return "attr." + name }

// Tree is the result of executing a document.
type Tree struct {
	DocID   string
	Nodes   []*Node
	Title   *string
	OGTitle *string
	CSS     []string
	JS      []string

	// Locals holds the initial value of every component-local mutable
	// argument, keyed by its storage name.
	Locals map[string]cty.Value
}

// Node is a render node.
type Node struct {
	// Kind is the short name of the kernel component, e.g. `text` or `row`.
	Kind     string
	Tag      string
	ID       *nodeid.Address
	Attrs    map[string]string
	Style    map[string]string
	Classes  []string
	Children []*Node
	Text     *string
	Visible  bool
	Events   []*Event

	// Iteration is set on nodes produced by a static loop.
	Iteration *Iteration
	// Dummy is set on the placeholder of a loop whose source can change at
	// runtime.
	Dummy *Dummy
	// Null nodes render nothing.
	Null bool

	// Dependencies maps a target (`text`, `visible`, `style.color`,
	// `attr.src`, `classes`, `items`) to the mutable variables it reads.
	Dependencies map[string][]string
	// Formulas keeps the unevaluated value of each reactive target.
	Formulas map[string]*Binding
}

// Binding is a reactive value with every name it reads resolved for one
// node. Exactly one of Ref, Value, Cases and All is set.
type Binding struct {
	// Ref is a name read as is.
	Ref *Ref

	Value interpreter.PropertyValue
	// Refs is keyed by the dotted source path of each name Value reads.
	Refs map[string]*Ref

	// Cases are conditional values; the last case whose condition holds
	// wins, otherwise Default applies.
	Cases   []*Case
	Default *Binding

	// All is the conjunction of boolean bindings.
	All []*Binding
}

// Case is one conditional value.
type Case struct {
	Condition *Binding
	Value     *Binding
}

// Ref is what one name of a binding resolved to: the storage name of a
// mutable value, a reactive binding from a call site, the item of a reactive
// loop or a constant.
type Ref struct {
	Storage string
	Binding *Binding
	Item    string
	Value   cty.Value
}

// Iteration marks a node produced by one loop item.
type Iteration struct {
	Alias string
	Index int
}

// Dummy is a loop over a reactive list. Its properties stay unresolved with
// the loop item as a free name; the node children hold the items of the
// initial value.
type Dummy struct {
	Invocation *interpreter.Invocation
	// Source is the storage name of the list.
	Source     string
	Alias      string
	Component  string
	Condition  *Binding
	Properties []*DummyProperty
}

// DummyProperty is one unresolved property of a dummy node.
type DummyProperty struct {
	Key       string
	Condition *Binding
	Value     *Binding
}

// Event is a resolved event handler.
type Event struct {
	Name    string
	Actions []*Action
}

// Action is a resolved action call.
type Action struct {
	Function  string
	Arguments []*ActionArgument
}

// ActionArgument is bound either to the storage name of a mutable value or
// to a constant.
type ActionArgument struct {
	Name      string
	Reference string
	Value     cty.Value
}

// IsOuter reports whether the event is attached to the window instead of the
// element.
func (e *Event) IsOuter() bool {
	return IsOuterEvent(e.Name)
}

// IsOuterEvent reports whether events with this name are attached to the
// window.
func IsOuterEvent(name string) bool {
	return name == "click-outside" || strings.HasPrefix(name, "global-key[") || strings.HasPrefix(name, "global-key-seq[")
}

// Walk calls fn for every node in depth-first order.
func (t *Tree) Walk(fn func(*Node)) {
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			fn(n)
			walk(n.Children)
		}
	}
	walk(t.Nodes)
}
