package lyb

// NodeType identifies the kind of a schema (and, by extension, data) node.
// Uses, choice, case, input and output are "structural": they are never
// emitted as data nodes and are transparent to sibling enumeration (spec
// §3, §9).
type NodeType uint8

const (
	Container NodeType = iota
	List
	Leaf
	LeafList
	Anydata
	Anyxml
	RPCNode
	Action
	Notification
	Uses
	Choice
	Case
	Input
	Output
)

// IsStructural reports whether nt is invisible at the data layer: never
// emitted as a data node, but still relevant to sibling enumeration.
func (nt NodeType) IsStructural() bool {
	switch nt {
	case Uses, Choice, Case, Input, Output:
		return true
	default:
		return false
	}
}

// IsInterior reports whether a data node of this type carries children
// instead of a leaf value.
func (nt NodeType) IsInterior() bool {
	switch nt {
	case Container, List, Notification, RPCNode, Action:
		return true
	default:
		return false
	}
}

// TypeKind is the 5-bit base type code stored in the low bits of a leaf's
// type-and-flags byte (spec §4.4).
type TypeKind uint8

const (
	TypeBinary TypeKind = iota
	TypeString
	TypeInstanceIdentifier
	TypeUnion
	TypeIdentityref
	TypeUnknown
	TypeBits
	TypeBool
	TypeEmpty
	TypeEnum
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeDecimal64
	TypeLeafref
)

// Type describes a leaf-like schema node's value space: the base kind plus
// whatever shape information the value encoder needs (bit-count for bits,
// enum cardinality, leafref target).
type Type struct {
	Kind TypeKind

	// BitCount is the number of named bits, for TypeBits.
	BitCount int

	// EnumCount is the number of defined enum values, for TypeEnum; the
	// encoder writes a minimum-width index into [0, EnumCount).
	EnumCount int

	// LeafrefTarget is the schema node a leafref resolves to, for
	// TypeLeafref. A nil target with an unresolved value means the
	// leafref is dangling (spec: stored as a string with the unresolved
	// flag set).
	LeafrefTarget *SchemaNode
}

// SchemaNode is a node in the static schema tree known to both encoder and
// decoder (spec §3). Only the fields the encoder needs are modeled here;
// building and validating a full schema tree is out of scope for this
// package.
type SchemaNode struct {
	Module string
	Name   string
	Type   NodeType

	// LeafType is set when Type is a leaf-like nodetype (Leaf, LeafList).
	LeafType *Type

	Parent   *SchemaNode
	Children []*SchemaNode
}

// dataParent walks up past structural ancestors (uses/choice/case/input/
// output) to find the nearest ancestor that is itself a real data node (or
// nil, for a top-level node).
func dataParent(n *SchemaNode) *SchemaNode {
	p := n.Parent
	for p != nil && p.Type.IsStructural() {
		p = p.Parent
	}
	return p
}

// firstDataChild returns the first direct or indirect (through structural
// descendants) data child of parent, or nil if parent is nil (top level)
// or has none.
func firstDataChild(parent *SchemaNode) *SchemaNode {
	var children []*SchemaNode
	if parent == nil {
		return nil
	}
	children = parent.Children
	for _, c := range children {
		if c.Type.IsStructural() {
			if n := firstDataChild(c); n != nil {
				return n
			}
			continue
		}
		return c
	}
	return nil
}

// nextDataSibling returns the next data-layer sibling of n among the
// children of parent (which may be several structural levels away from
// n), skipping over structural nodes exactly as spec §3/§9 require: a
// choice/case/uses/input/output boundary is transparent, so its children
// are treated as if they were direct children of the enclosing data
// parent.
//
// cur is nil to request the first data sibling.
func nextDataSibling(parent *SchemaNode, cur *SchemaNode) *SchemaNode {
	if cur == nil {
		return firstDataChild(parent)
	}

	// Find cur's structural chain of ancestors up to (but not including)
	// parent, and look for a next sibling at each level, diving back down
	// through structural descendants as needed.
	n := cur
	for {
		host := n.Parent
		siblings := host.Children
		idx := -1
		for i, c := range siblings {
			if c == n {
				idx = i
				break
			}
		}
		for i := idx + 1; i < len(siblings); i++ {
			c := siblings[i]
			if c.Type.IsStructural() {
				if d := firstDataChild(c); d != nil {
					return d
				}
				continue
			}
			return c
		}
		if host == parent || host == nil {
			return nil
		}
		n = host
	}
}

// DefiningModule returns the module that defines n for the purposes of
// the model registry (spec §4.6): the module of the node itself.
func DefiningModule(n *SchemaNode) string { return n.Module }

// rpcBranch walks up from n, skipping uses/case/choice (but stopping at
// input/output, unlike dataParent), and returns the nodetype of whatever
// it lands on. Used to decide whether n lives under an RPC's input or
// output branch, per spec §4.7/§4.3.
func rpcBranch(n *SchemaNode) NodeType {
	p := n.Parent
	for p != nil && (p.Type == Uses || p.Type == Case || p.Type == Choice) {
		p = p.Parent
	}
	if p == nil {
		return Container // no enclosing input/output: treat as neither branch
	}
	return p.Type
}

// skipForRPC reports whether n must not be emitted given options: it
// lives in the output branch while encoding an RPC request, or in the
// input branch while encoding an RPC reply.
func skipForRPC(n *SchemaNode, opts Options) bool {
	if !opts.has(RPC) && !opts.has(RPCReply) {
		return false
	}
	branch := rpcBranch(n)
	if opts.has(RPC) && branch == Output {
		return true
	}
	if opts.has(RPCReply) && branch == Input {
		return true
	}
	return false
}
