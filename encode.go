package lyb

import (
	"github.com/distr1/lyb/internal/chunk"
	"github.com/distr1/lyb/internal/hash"
	"github.com/distr1/lyb/internal/model"
	"github.com/distr1/lyb/internal/sink"
	"github.com/distr1/lyb/internal/value"
)

// ModuleInfo describes one schema module for registry/closure purposes
// (spec §4.6).
type ModuleInfo = model.Info

// Context supplies the schema-wide information Encode cannot derive from
// the data forest alone: every implemented module, in context-
// enumeration order, along with the augment/deviation targets needed to
// compute the model closure.
type Context struct {
	Modules []ModuleInfo
}

func (ctx Context) lookup(name string) ModuleInfo {
	for _, m := range ctx.Modules {
		if m.Name == name {
			return m
		}
	}
	return ModuleInfo{Name: name}
}

// hashKey adapts a *SchemaNode to hash.Sibling. It is a thin value
// wrapper so identity (pointer) equality on SchemaNode carries through to
// hash.Table's map keys unchanged.
type hashKey struct{ n *SchemaNode }

func (k hashKey) Module() string { return k.n.Module }
func (k hashKey) Name() string   { return k.n.Name }

func asSibling(n *SchemaNode) hash.Sibling { return hashKey{n} }

// Encode writes root (and, if opts has WithSiblings, root's following
// top-level siblings) to out as a single LYB stream (spec §4.7).
func Encode(out sink.Sink, ctx Context, root *DataNode, opts Options) error {
	if out == nil {
		return wrapf(ErrInvalidArgument, "lyb: encode: nil sink")
	}

	c := chunk.New(out)

	if _, err := c.WriteFramed([]byte{0}); err != nil {
		return wrapf(ErrIO, "lyb: encode: header: %v", err)
	}

	var topNames []string
	seen := map[string]bool{}
	for n := root; n != nil; n = n.Next {
		m := DefiningModule(n.Schema)
		if !seen[m] {
			seen[m] = true
			topNames = append(topNames, m)
		}
		if !opts.has(WithSiblings) {
			break
		}
	}
	models := model.Close(topNames, ctx.Modules)
	if err := model.WriteRegistry(c, models); err != nil {
		return wrapf(ErrInternal, "lyb: encode: model registry: %v", err)
	}

	var topHT *hash.Table
	prevModule := ""
	first := true
	for n := root; n != nil; n = n.Next {
		m := DefiningModule(n.Schema)
		if first || m != prevModule {
			topHT = nil
		}
		prevModule = m
		first = false

		if err := printSubtree(c, ctx, n, &topHT, opts, true); err != nil {
			return err
		}

		if !opts.has(WithSiblings) {
			break
		}
	}

	// Terminator: an empty following subtree, spelled as a single zero
	// byte through the chunker.
	if _, err := c.WriteFramed([]byte{0}); err != nil {
		return wrapf(ErrIO, "lyb: encode: terminator: %v", err)
	}
	return nil
}

func printSubtree(c *chunk.State, ctx Context, n *DataNode, ht **hash.Table, opts Options, topLevel bool) error {
	if skipForRPC(n.Schema, opts) {
		return nil
	}

	if err := c.OpenSubtree(); err != nil {
		return wrapf(ErrIO, "lyb: encode: open subtree: %v", err)
	}

	if topLevel {
		if err := model.WriteOne(c, ctx.lookup(DefiningModule(n.Schema))); err != nil {
			return wrapf(ErrInternal, "lyb: encode: top-level module stamp: %v", err)
		}
	}

	if *ht == nil {
		var siblings []hash.Sibling
		if topLevel {
			siblings = collectTopLevelSiblings(n, DefiningModule(n.Schema))
		} else {
			siblings = collectDataSiblings(dataParent(n.Schema), opts)
		}
		t, err := hash.BuildTable(siblings)
		if err != nil {
			return wrapf(ErrInternal, "lyb: encode: building sibling table: %v", err)
		}
		*ht = t
	}

	tag, collisionID, err := hash.FindTag(*ht, asSibling(n.Schema))
	if err != nil {
		return wrapf(ErrInternal, "lyb: encode: %v", err)
	}
	if _, err := c.WriteFramed([]byte{tag}); err != nil {
		return wrapf(ErrIO, "lyb: encode: writing hash tag: %v", err)
	}
	if cont := hash.Continuation(asSibling(n.Schema), collisionID); len(cont) > 0 {
		if _, err := c.WriteFramed(cont); err != nil {
			return wrapf(ErrIO, "lyb: encode: writing hash continuation: %v", err)
		}
	}

	if err := writeAttrs(c, n.Attrs); err != nil {
		return err
	}

	switch {
	case n.Schema.Type.IsInterior():
		var childHT *hash.Table
		for child := n.Child; child != nil; child = child.Next {
			if err := printSubtree(c, ctx, child, &childHT, opts, false); err != nil {
				return err
			}
		}
	case n.Schema.Type == Leaf || n.Schema.Type == LeafList:
		if err := writeValue(c, n.Schema.LeafType, n.Value); err != nil {
			return err
		}
	case n.Schema.Type == Anydata || n.Schema.Type == Anyxml:
		if err := writeAnydata(c, ctx, n.Any, opts); err != nil {
			return err
		}
	}

	if err := c.CloseSubtree(); err != nil {
		return wrapf(ErrIO, "lyb: encode: close subtree: %v", err)
	}
	return nil
}

// collectDataSiblings gathers the data-sibling set rooted under parent
// (which may be nil, for a schema with no enclosing node), in schema
// traversal order, filtered for the active RPC mode.
func collectDataSiblings(parent *SchemaNode, opts Options) []hash.Sibling {
	var out []hash.Sibling
	for s := nextDataSibling(parent, nil); s != nil; s = nextDataSibling(parent, s) {
		if skipForRPC(s, opts) {
			continue
		}
		out = append(out, asSibling(s))
	}
	return out
}

// collectTopLevelSiblings gathers the distinct schema nodes, in first-
// seen order, among module's top-level instances actually present in
// anchor's forest (anchor and its following Next siblings). This package
// has no standalone notion of "all top-level nodes a module defines"
// independent of the instance data being encoded, so the candidate set
// for the per-module top-level hash table is derived from the forest
// itself rather than from a separate schema-module child list.
func collectTopLevelSiblings(anchor *DataNode, module string) []hash.Sibling {
	var out []hash.Sibling
	seen := map[*SchemaNode]bool{}
	for n := anchor; n != nil; n = n.Next {
		if DefiningModule(n.Schema) != module {
			continue
		}
		if seen[n.Schema] {
			continue
		}
		seen[n.Schema] = true
		out = append(out, asSibling(n.Schema))
	}
	return out
}

func writeAttrs(c *chunk.State, attrs *Attr) error {
	count := 0
	for a := attrs; a != nil; a = a.Next {
		count++
	}
	if count > 0xff {
		return wrapf(ErrInternal, "lyb: encode: %d attributes exceeds 255", count)
	}
	if _, err := c.WriteFramed([]byte{byte(count)}); err != nil {
		return wrapf(ErrIO, "lyb: encode: attribute count: %v", err)
	}

	for a := attrs; a != nil; a = a.Next {
		if err := c.OpenSubtree(); err != nil {
			return wrapf(ErrIO, "lyb: encode: open attribute subtree: %v", err)
		}
		if err := value.WriteLengthPrefixedString(c, a.Module); err != nil {
			return wrapf(ErrInternal, "lyb: encode: attribute module: %v", err)
		}
		if err := value.WriteLengthPrefixedString(c, a.Name); err != nil {
			return wrapf(ErrInternal, "lyb: encode: attribute name: %v", err)
		}
		if err := writeScalarValue(c, a.Value); err != nil {
			return err
		}
		if err := c.CloseSubtree(); err != nil {
			return wrapf(ErrIO, "lyb: encode: close attribute subtree: %v", err)
		}
	}
	return nil
}

// writeValue dispatches on t (the leaf's static type descriptor, for
// bit-count/enum-count context) and emits the leaf value (spec §4.4).
func writeValue(c *chunk.State, t *Type, v Value) error {
	return writeValueWithType(c, t, v)
}

// writeScalarValue writes a value with no type descriptor available
// (attribute values carry their shape entirely in the flags/kind byte
// and, for bits/enum, in the Value itself).
func writeScalarValue(c *chunk.State, v Value) error {
	return writeValueWithType(c, nil, v)
}

func writeValueWithType(c *chunk.State, t *Type, v Value) error {
	// A resolved leafref is stored on the wire as its target type's own
	// value, type byte included: the type byte never carries TypeLeafref
	// for a resolved value. Only a dangling (unresolved) leafref keeps
	// TypeLeafref and falls back to the raw string form below.
	kind := v.Kind
	if kind == TypeLeafref && !v.Unresolved && t != nil && t.LeafrefTarget != nil && t.LeafrefTarget.LeafType != nil {
		target := t.LeafrefTarget.LeafType
		kind = target.Kind
		t = target
	}

	if err := value.WriteTypeByte(c, uint8(kind), v.Default, v.UserType, v.Unresolved); err != nil {
		return wrapf(ErrIO, "lyb: encode: value type byte: %v", err)
	}

	switch kind {
	case TypeBinary, TypeString, TypeInstanceIdentifier, TypeUnion, TypeIdentityref, TypeUnknown, TypeLeafref:
		if err := value.WriteRawString(c, v.Str); err != nil {
			return wrapf(ErrIO, "lyb: encode: string value: %v", err)
		}
	case TypeBits:
		if err := value.WriteBits(c, v.Bits); err != nil {
			return wrapf(ErrIO, "lyb: encode: bits value: %v", err)
		}
	case TypeBool:
		if err := value.WriteBool(c, v.Bool); err != nil {
			return wrapf(ErrIO, "lyb: encode: bool value: %v", err)
		}
	case TypeEmpty:
		// zero bytes.
	case TypeEnum:
		max := uint64(0)
		if t != nil && t.EnumCount > 0 {
			max = uint64(t.EnumCount - 1)
		}
		if err := value.WriteNumber(c, uint64(v.EnumIndex), max); err != nil {
			return wrapf(ErrIO, "lyb: encode: enum value: %v", err)
		}
	case TypeInt8, TypeUint8:
		if err := value.WriteFixed(c, v.Num, 1); err != nil {
			return wrapf(ErrIO, "lyb: encode: value: %v", err)
		}
	case TypeInt16, TypeUint16:
		if err := value.WriteFixed(c, v.Num, 2); err != nil {
			return wrapf(ErrIO, "lyb: encode: value: %v", err)
		}
	case TypeInt32, TypeUint32:
		if err := value.WriteFixed(c, v.Num, 4); err != nil {
			return wrapf(ErrIO, "lyb: encode: value: %v", err)
		}
	case TypeInt64, TypeUint64, TypeDecimal64:
		if err := value.WriteFixed(c, v.Num, 8); err != nil {
			return wrapf(ErrIO, "lyb: encode: value: %v", err)
		}
	default:
		return wrapf(ErrUnsupported, "lyb: encode: value kind %d", kind)
	}
	return nil
}

func writeAnydata(c *chunk.State, ctx Context, a *Anydata, opts Options) error {
	if a == nil {
		return wrapf(ErrInvalidArgument, "lyb: encode: nil anydata")
	}
	if _, err := c.WriteFramed([]byte{byte(a.Kind)}); err != nil {
		return wrapf(ErrIO, "lyb: encode: anydata kind: %v", err)
	}

	switch a.Kind {
	case AnydataTree:
		// A nested data tree is written as its own complete, self-
		// delimiting LYB stream (own header, model registry and
		// terminator) spliced directly into the raw sink: it is not
		// counted against the enclosing subtree's chunk-size budget,
		// matching the original encoder's direct lyb_print_data(out, ...)
		// recursion from inside its anydata printer.
		if len(a.Tree) == 0 {
			return Encode(c.Sink(), ctx, nil, opts|WithSiblings)
		}
		// Link shallow copies so the caller's nodes keep their own Next.
		nodes := make([]DataNode, len(a.Tree))
		for i, n := range a.Tree {
			nodes[i] = *n
		}
		for i := 0; i < len(nodes)-1; i++ {
			nodes[i].Next = &nodes[i+1]
		}
		nodes[len(nodes)-1].Next = nil
		return Encode(c.Sink(), ctx, &nodes[0], opts|WithSiblings)
	case AnydataLYB:
		if err := value.WriteLengthPrefixedString(c, string(a.Bytes)); err != nil {
			return wrapf(ErrInternal, "lyb: encode: anydata lyb payload: %v", err)
		}
	case AnydataJSON, AnydataXML, AnydataString:
		if err := value.WriteRawString(c, string(a.Bytes)); err != nil {
			return wrapf(ErrIO, "lyb: encode: anydata string payload: %v", err)
		}
	default:
		return wrapf(ErrUnsupported, "lyb: encode: anydata kind %d", a.Kind)
	}
	return nil
}
