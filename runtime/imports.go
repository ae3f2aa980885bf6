package runtime

import (
	"github.com/panyam/ohscript/decl"
	"github.com/panyam/ohscript/loader"
)

type Node = decl.Node
type NodeID = decl.NodeID
type Type = decl.Type
type Script = decl.Script
type Block = decl.Block
type Identifier = decl.Identifier
type Literal = decl.Literal
type FuncDecl = decl.FuncDecl
type EntityDecl = decl.EntityDecl
type TupleUnpacker = decl.TupleUnpacker

type Unit = loader.Unit
type AnalysisError = loader.AnalysisError

var ErrAnalysisFailed = loader.ErrAnalysisFailed
