// Package fixture reads a small human-editable textproto-shaped format
// describing a schema tree plus a data-node forest, for use by tests and
// by cmd/lybdump and cmd/lybpack to exercise the encoder without a real
// YANG toolchain (out of scope per the core package's design).
//
// Grounded on cmd/distri/scaffold.go's use of
// github.com/protocolbuffers/txtpbfmt's parser.Parse/ast.GetFromPath to
// read a textproto-shaped file with no protoc-generated message types:
// the same parse-then-walk-by-name style is used here over a
// purpose-built schema instead of a generic build-file shape.
package fixture

import (
	"fmt"
	"strconv"

	"github.com/protocolbuffers/txtpbfmt/ast"
	"github.com/protocolbuffers/txtpbfmt/parser"
	"golang.org/x/xerrors"

	"github.com/distr1/lyb"
)

// Fixture is a parsed fixture file: the module registry context, the
// schema tree(s) declared, and the data forest built against them.
type Fixture struct {
	Context lyb.Context
	Schema  []*lyb.SchemaNode // top-level schema nodes, in file order
	Data    *lyb.DataNode     // head of the top-level data forest
}

// Parse reads a fixture file's contents.
func Parse(b []byte) (*Fixture, error) {
	nodes, err := parser.Parse(b)
	if err != nil {
		return nil, xerrors.Errorf("lyb: fixture: parse: %w", err)
	}

	f := &Fixture{}

	for _, mn := range ast.GetFromPath(nodes, []string{"module"}) {
		name, err := fieldString(mn, "name")
		if err != nil {
			return nil, xerrors.Errorf("lyb: fixture: module: %w", err)
		}
		info := lyb.ModuleInfo{Name: name}
		if rn := ast.GetFromPath(mn.Children, []string{"revision"}); len(rn) == 1 {
			rev, err := scalarString(rn[0])
			if err != nil {
				return nil, xerrors.Errorf("lyb: fixture: revision: %w", err)
			}
			y, m, d, err := parseDate(rev)
			if err != nil {
				return nil, xerrors.Errorf("lyb: fixture: module %q: %w", name, err)
			}
			info.Year, info.Month, info.Day = y, m, d
		}
		for _, an := range ast.GetFromPath(mn.Children, []string{"augments"}) {
			v, err := scalarString(an)
			if err != nil {
				return nil, err
			}
			info.AugmentTargets = append(info.AugmentTargets, v)
		}
		for _, dn := range ast.GetFromPath(mn.Children, []string{"deviates"}) {
			v, err := scalarString(dn)
			if err != nil {
				return nil, err
			}
			info.DeviationTargets = append(info.DeviationTargets, v)
		}
		f.Context.Modules = append(f.Context.Modules, info)
	}

	byName := map[string]*lyb.SchemaNode{}
	for _, sn := range ast.GetFromPath(nodes, []string{"schema"}) {
		n, err := parseSchema(sn, nil, byName)
		if err != nil {
			return nil, err
		}
		f.Schema = append(f.Schema, n)
	}

	var prev *lyb.DataNode
	for _, dn := range ast.GetFromPath(nodes, []string{"data"}) {
		n, err := parseData(dn, byName)
		if err != nil {
			return nil, err
		}
		if f.Data == nil {
			f.Data = n
		} else {
			prev.Next = n
		}
		prev = n
	}

	return f, nil
}

func parseSchema(n *ast.Node, parent *lyb.SchemaNode, byName map[string]*lyb.SchemaNode) (*lyb.SchemaNode, error) {
	name, err := fieldString(n, "name")
	if err != nil {
		return nil, err
	}
	module, err := fieldString(n, "module")
	if err != nil {
		return nil, err
	}
	typeName, err := fieldString(n, "type")
	if err != nil {
		return nil, err
	}
	nt, err := parseNodeType(typeName)
	if err != nil {
		return nil, xerrors.Errorf("lyb: fixture: schema %q: %w", name, err)
	}

	sn := &lyb.SchemaNode{Module: module, Name: name, Type: nt, Parent: parent}

	if nt == lyb.Leaf || nt == lyb.LeafList {
		vt, err := fieldString(n, "value_type")
		if err != nil {
			return nil, xerrors.Errorf("lyb: fixture: leaf %q: %w", name, err)
		}
		kind, err := parseTypeKind(vt)
		if err != nil {
			return nil, xerrors.Errorf("lyb: fixture: leaf %q: %w", name, err)
		}
		lt := &lyb.Type{Kind: kind}
		if bc := ast.GetFromPath(n.Children, []string{"bit_count"}); len(bc) == 1 {
			v, err := scalarInt(bc[0])
			if err != nil {
				return nil, err
			}
			lt.BitCount = v
		}
		if ec := ast.GetFromPath(n.Children, []string{"enum_count"}); len(ec) == 1 {
			v, err := scalarInt(ec[0])
			if err != nil {
				return nil, err
			}
			lt.EnumCount = v
		}
		sn.LeafType = lt
	}

	for _, cn := range ast.GetFromPath(n.Children, []string{"schema"}) {
		child, err := parseSchema(cn, sn, byName)
		if err != nil {
			return nil, err
		}
		sn.Children = append(sn.Children, child)
	}

	key := sn.Module + "/" + pathKey(sn)
	byName[key] = sn
	return sn, nil
}

func pathKey(n *lyb.SchemaNode) string {
	if n.Parent == nil {
		return n.Name
	}
	return pathKey(n.Parent) + "/" + n.Name
}

func parseData(n *ast.Node, byName map[string]*lyb.SchemaNode) (*lyb.DataNode, error) {
	ref, err := fieldString(n, "schema")
	if err != nil {
		return nil, err
	}
	sn, ok := byName[ref]
	if !ok {
		return nil, xerrors.Errorf("lyb: fixture: data node references unknown schema %q", ref)
	}

	dn := &lyb.DataNode{Schema: sn}

	switch {
	case sn.Type == lyb.Leaf || sn.Type == lyb.LeafList:
		v, err := parseValue(n, sn.LeafType)
		if err != nil {
			return nil, xerrors.Errorf("lyb: fixture: data %q: %w", ref, err)
		}
		dn.Value = v
	default:
		var prev *lyb.DataNode
		for _, cn := range ast.GetFromPath(n.Children, []string{"data"}) {
			child, err := parseData(cn, byName)
			if err != nil {
				return nil, err
			}
			if dn.Child == nil {
				dn.Child = child
			} else {
				prev.Next = child
			}
			prev = child
		}
	}

	return dn, nil
}

func parseValue(n *ast.Node, t *lyb.Type) (lyb.Value, error) {
	v := lyb.Value{Kind: t.Kind}
	if dn := ast.GetFromPath(n.Children, []string{"default"}); len(dn) == 1 {
		b, err := scalarBool(dn[0])
		if err != nil {
			return v, err
		}
		v.Default = b
	}

	switch t.Kind {
	case lyb.TypeBinary, lyb.TypeString, lyb.TypeInstanceIdentifier, lyb.TypeUnion, lyb.TypeIdentityref, lyb.TypeUnknown, lyb.TypeLeafref:
		s, err := fieldString(n, "str")
		if err != nil {
			return v, err
		}
		v.Str = s
	case lyb.TypeBool:
		s, err := fieldString(n, "bool")
		if err != nil {
			return v, err
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return v, err
		}
		v.Bool = b
	case lyb.TypeEmpty:
		// no payload
	case lyb.TypeEnum:
		s, err := fieldString(n, "enum_index")
		if err != nil {
			return v, err
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return v, err
		}
		v.EnumIndex = i
	case lyb.TypeBits:
		for _, bn := range ast.GetFromPath(n.Children, []string{"bit"}) {
			b, err := scalarBool(bn)
			if err != nil {
				return v, err
			}
			v.Bits = append(v.Bits, b)
		}
	default:
		s, err := fieldString(n, "num")
		if err != nil {
			return v, err
		}
		i, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return v, err
		}
		v.Num = i
	}
	return v, nil
}

func parseNodeType(s string) (lyb.NodeType, error) {
	switch s {
	case "container":
		return lyb.Container, nil
	case "list":
		return lyb.List, nil
	case "leaf":
		return lyb.Leaf, nil
	case "leaf-list":
		return lyb.LeafList, nil
	case "anydata":
		return lyb.Anydata, nil
	case "anyxml":
		return lyb.Anyxml, nil
	case "rpc":
		return lyb.RPCNode, nil
	case "action":
		return lyb.Action, nil
	case "notification":
		return lyb.Notification, nil
	case "uses":
		return lyb.Uses, nil
	case "choice":
		return lyb.Choice, nil
	case "case":
		return lyb.Case, nil
	case "input":
		return lyb.Input, nil
	case "output":
		return lyb.Output, nil
	default:
		return 0, xerrors.Errorf("lyb: fixture: unknown nodetype %q", s)
	}
}

func parseTypeKind(s string) (lyb.TypeKind, error) {
	switch s {
	case "binary":
		return lyb.TypeBinary, nil
	case "string":
		return lyb.TypeString, nil
	case "instance-identifier":
		return lyb.TypeInstanceIdentifier, nil
	case "union":
		return lyb.TypeUnion, nil
	case "identityref":
		return lyb.TypeIdentityref, nil
	case "unknown":
		return lyb.TypeUnknown, nil
	case "bits":
		return lyb.TypeBits, nil
	case "bool":
		return lyb.TypeBool, nil
	case "empty":
		return lyb.TypeEmpty, nil
	case "enum":
		return lyb.TypeEnum, nil
	case "int8":
		return lyb.TypeInt8, nil
	case "uint8":
		return lyb.TypeUint8, nil
	case "int16":
		return lyb.TypeInt16, nil
	case "uint16":
		return lyb.TypeUint16, nil
	case "int32":
		return lyb.TypeInt32, nil
	case "uint32":
		return lyb.TypeUint32, nil
	case "int64":
		return lyb.TypeInt64, nil
	case "uint64":
		return lyb.TypeUint64, nil
	case "decimal64":
		return lyb.TypeDecimal64, nil
	case "leafref":
		return lyb.TypeLeafref, nil
	default:
		return 0, xerrors.Errorf("lyb: fixture: unknown value_type %q", s)
	}
}

func parseDate(s string) (year, month, day int, err error) {
	var y, m, d int
	if _, err := fmt.Sscanf(s, "%d-%d-%d", &y, &m, &d); err != nil {
		return 0, 0, 0, xerrors.Errorf("lyb: fixture: revision %q: %w", s, err)
	}
	return y, m, d, nil
}

func fieldString(n *ast.Node, name string) (string, error) {
	nodes := ast.GetFromPath(n.Children, []string{name})
	if len(nodes) != 1 {
		return "", xerrors.Errorf("lyb: fixture: %q: got %d fields, want 1", name, len(nodes))
	}
	return scalarString(nodes[0])
}

func scalarString(n *ast.Node) (string, error) {
	if len(n.Values) != 1 {
		return "", xerrors.Errorf("lyb: fixture: node %q: got %d values, want 1", n.Name, len(n.Values))
	}
	return strconv.Unquote(n.Values[0].Value)
}

func scalarInt(n *ast.Node) (int, error) {
	s, err := scalarString(n)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func scalarBool(n *ast.Node) (bool, error) {
	s, err := scalarString(n)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(s)
}
