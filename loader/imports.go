package loader

import "github.com/panyam/ohscript/decl"

type Node = decl.Node
type Type = decl.Type
type ScopeID = decl.ScopeID
type NodeID = decl.NodeID
type Identifier = decl.Identifier
