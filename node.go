package lyb

// Attr is a single attribute attached to a data node (spec §4.5): a
// (module, name, value) triple, emitted as its own chunk-framed subtree.
type Attr struct {
	Module string
	Name   string
	Value  Value
	Next   *Attr
}

// AnydataKind selects how an anydata/anyxml node's opaque payload is
// serialized (spec §4.7 step 6).
type AnydataKind uint8

const (
	// AnydataTree nests a full LYB-encoded data tree as the payload.
	AnydataTree AnydataKind = iota
	// AnydataLYB stores an already-encoded LYB byte string, length-prefixed.
	AnydataLYB
	// AnydataJSON, AnydataXML and AnydataString store raw text: JSON and
	// already-canonicalized XML or other constant string content are all
	// written as a length-less raw string (terminated by chunk framing).
	AnydataJSON
	AnydataXML
	AnydataString
)

// Anydata holds the opaque payload of an anydata/anyxml data node.
type Anydata struct {
	Kind AnydataKind

	// Tree holds the nested forest, for AnydataTree.
	Tree []*DataNode

	// Bytes holds the raw payload for every other kind. AnydataXML bytes
	// are written exactly as given: the encoder does not transform them
	// into a canonical string form.
	Bytes []byte
}

// DataNode is a single instance node in the forest being encoded (spec
// §3). A fresh encode treats the entire tree, and the schema it points
// into, as read-only for its duration (spec §5).
type DataNode struct {
	Schema *SchemaNode
	Attrs  *Attr

	// Next is this node's next sibling in its parent's child list (or, for
	// a top-level node, in the root forest).
	Next *DataNode

	// Child is the first child, for interior nodetypes.
	Child *DataNode

	// Value holds the leaf value, for Leaf/LeafList nodetypes.
	Value Value

	// Any holds the opaque payload, for Anydata/Anyxml nodetypes.
	Any *Anydata
}

// Value is a tagged union holding a leaf's encoded-form value (spec §3,
// §4.4): a 5-bit type code plus default/user-type/unresolved flags.
type Value struct {
	Kind TypeKind

	Default    bool
	UserType   bool
	Unresolved bool

	// Str holds the value for every string-shaped kind (binary, string,
	// instance-identifier, union, identityref, unknown, and any
	// UserType-flagged or unresolved-leafref value).
	Str string

	// Bits holds one bool per named bit, for TypeBits.
	Bits []bool

	// Bool holds the value for TypeBool.
	Bool bool

	// EnumIndex holds the 0-based index into the enum's definition order,
	// for TypeEnum.
	EnumIndex int

	// Num holds the value for every fixed-width integer kind
	// (int8..uint64, decimal64) and, when Unresolved is false, a resolved
	// leafref's underlying value.
	Num uint64
}
