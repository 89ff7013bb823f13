// Package stripeio translates between the JSON envelope the CLI reads and
// writes and the in-memory stripe.Block / stripe.AliasMap the scheduler
// operates on. Neither IR type carries JSON tags of its own: Statement.Deps
// is a slice of pointers and StatementList wraps container/list, both of
// which need an index-based encoding to round-trip through JSON.
package stripeio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sarchlab/stripesched/internal/stripe"
)

type affineJSON map[string]int64

func encodeAffine(a stripe.Affine) affineJSON {
	m := a.GetMap()
	if len(m) == 0 {
		return nil
	}
	return affineJSON(m)
}

func decodeAffine(a affineJSON) stripe.Affine {
	if len(a) == 0 {
		return stripe.ZeroAffine
	}
	return stripe.AffineFromMap(map[string]int64(a))
}

type dimJSON struct {
	Size   uint64 `json:"size"`
	Stride uint64 `json:"stride"`
}

type shapeJSON struct {
	Dims      []dimJSON `json:"dims"`
	ElemBytes uint64    `json:"elem_bytes"`
}

func encodeShape(s stripe.Shape) shapeJSON {
	out := shapeJSON{ElemBytes: s.ElemBytes}
	for _, d := range s.Dims {
		out.Dims = append(out.Dims, dimJSON{Size: d.Size, Stride: d.Stride})
	}
	return out
}

func decodeShape(s shapeJSON) stripe.Shape {
	out := stripe.Shape{ElemBytes: s.ElemBytes}
	for _, d := range s.Dims {
		out.Dims = append(out.Dims, stripe.Dim{Size: d.Size, Stride: d.Stride})
	}
	return out
}

type locationJSON struct {
	Name string     `json:"name"`
	Unit affineJSON `json:"unit,omitempty"`
}

func encodeLocation(l stripe.Location) locationJSON {
	return locationJSON{Name: l.Name, Unit: encodeAffine(l.Unit)}
}

func decodeLocation(l locationJSON) stripe.Location {
	return stripe.Location{Name: l.Name, Unit: decodeAffine(l.Unit)}
}

type indexJSON struct {
	Name   string     `json:"name"`
	Range  uint64     `json:"range"`
	Affine affineJSON `json:"affine,omitempty"`
}

func encodeIndex(i stripe.Index) indexJSON {
	return indexJSON{Name: i.Name, Range: i.Range, Affine: encodeAffine(i.Affine)}
}

func decodeIndex(i indexJSON) stripe.Index {
	return stripe.Index{Name: i.Name, Range: i.Range, Affine: decodeAffine(i.Affine)}
}

type refinementJSON struct {
	Dir       string       `json:"dir"`
	From      string       `json:"from"`
	Into      string       `json:"into"`
	Access    []affineJSON `json:"access,omitempty"`
	Shape     shapeJSON    `json:"shape"`
	AggOp     string       `json:"agg_op,omitempty"`
	Location  locationJSON `json:"location"`
	IsConst   bool         `json:"is_const,omitempty"`
	Offset    uint64       `json:"offset,omitempty"`
	BankDim   *int         `json:"bank_dim,omitempty"`
	CacheUnit *affineJSON  `json:"cache_unit,omitempty"`
}

func encodeDir(d stripe.Dir) string { return d.String() }

func decodeDir(s string) (stripe.Dir, error) {
	switch s {
	case "None", "":
		return stripe.DirNone, nil
	case "In":
		return stripe.DirIn, nil
	case "Out":
		return stripe.DirOut, nil
	case "InOut":
		return stripe.DirInOut, nil
	default:
		return stripe.DirNone, fmt.Errorf("stripeio: unknown direction %q", s)
	}
}

func encodeRefinement(r stripe.Refinement) refinementJSON {
	out := refinementJSON{
		Dir:      encodeDir(r.Dir),
		From:     r.From,
		Into:     r.Into,
		Shape:    encodeShape(r.Shape),
		AggOp:    r.AggOp,
		Location: encodeLocation(r.Location),
		IsConst:  r.IsConst,
		Offset:   r.Offset,
		BankDim:  r.BankDim,
	}
	for _, a := range r.Access {
		out.Access = append(out.Access, encodeAffine(a))
	}
	if r.CacheUnit != nil {
		cu := encodeAffine(*r.CacheUnit)
		out.CacheUnit = &cu
	}
	return out
}

func decodeRefinement(r refinementJSON) (stripe.Refinement, error) {
	dir, err := decodeDir(r.Dir)
	if err != nil {
		return stripe.Refinement{}, err
	}
	out := stripe.Refinement{
		Dir:      dir,
		From:     r.From,
		Into:     r.Into,
		Shape:    decodeShape(r.Shape),
		AggOp:    r.AggOp,
		Location: decodeLocation(r.Location),
		IsConst:  r.IsConst,
		Offset:   r.Offset,
		BankDim:  r.BankDim,
	}
	for _, a := range r.Access {
		out.Access = append(out.Access, decodeAffine(a))
	}
	if r.CacheUnit != nil {
		cu := decodeAffine(*r.CacheUnit)
		out.CacheUnit = &cu
	}
	return out, nil
}

type statementJSON struct {
	Kind    string     `json:"kind"`
	Name    string     `json:"name,omitempty"`
	From    string     `json:"from,omitempty"`
	Into    string     `json:"into,omitempty"`
	Inputs  []string   `json:"inputs,omitempty"`
	Outputs []string   `json:"outputs,omitempty"`
	Body    *blockJSON `json:"body,omitempty"`
	Deps    []int      `json:"deps,omitempty"`
}

func encodeKind(k stripe.StatementKind) string {
	switch k {
	case stripe.KindLoad:
		return "load"
	case stripe.KindStore:
		return "store"
	case stripe.KindSpecial:
		return "special"
	case stripe.KindIntrinsic:
		return "intrinsic"
	case stripe.KindConstant:
		return "constant"
	case stripe.KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

func decodeKind(s string) (stripe.StatementKind, error) {
	switch s {
	case "load":
		return stripe.KindLoad, nil
	case "store":
		return stripe.KindStore, nil
	case "special":
		return stripe.KindSpecial, nil
	case "intrinsic":
		return stripe.KindIntrinsic, nil
	case "constant":
		return stripe.KindConstant, nil
	case "block":
		return stripe.KindBlock, nil
	default:
		return 0, fmt.Errorf("stripeio: unknown statement kind %q", s)
	}
}

type blockJSON struct {
	Name     string           `json:"name"`
	Location locationJSON     `json:"location"`
	Idxs     []indexJSON      `json:"idxs,omitempty"`
	Refs     []refinementJSON `json:"refs,omitempty"`
	Body     []statementJSON  `json:"body"`
}

// envelope is the top-level document a "schedule" invocation reads: the
// block to schedule plus the alias analysis result for its refinements.
type envelope struct {
	Block    blockJSON            `json:"block"`
	AliasMap map[string]aliasJSON `json:"alias_map"`
}

type aliasJSON struct {
	BaseRef string       `json:"base_ref"`
	Access  []affineJSON `json:"access,omitempty"`
	Shape   shapeJSON    `json:"shape"`
	Extents []uint64     `json:"extents,omitempty"`
}

func encodeAlias(a stripe.AliasInfo) aliasJSON {
	out := aliasJSON{BaseRef: a.BaseRef, Shape: encodeShape(a.Shape), Extents: a.Extents}
	for _, acc := range a.Access {
		out.Access = append(out.Access, encodeAffine(acc))
	}
	return out
}

func decodeAlias(a aliasJSON) stripe.AliasInfo {
	out := stripe.AliasInfo{BaseRef: a.BaseRef, Shape: decodeShape(a.Shape), Extents: a.Extents}
	for _, acc := range a.Access {
		out.Access = append(out.Access, decodeAffine(acc))
	}
	return out
}

// Decode reads an envelope from r and returns the block it describes along
// with its alias map.
func Decode(r io.Reader) (*stripe.Block, stripe.AliasMap, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("stripeio: decode: %w", err)
	}

	block, err := decodeBlock(env.Block)
	if err != nil {
		return nil, nil, err
	}

	aliasMap := make(stripe.AliasMap, len(env.AliasMap))
	for name, a := range env.AliasMap {
		aliasMap[name] = decodeAlias(a)
	}

	return block, aliasMap, nil
}

func decodeBlock(bj blockJSON) (*stripe.Block, error) {
	b := stripe.NewBlock(bj.Name)
	b.Location = decodeLocation(bj.Location)
	for _, ij := range bj.Idxs {
		b.Idxs = append(b.Idxs, decodeIndex(ij))
	}
	for _, rj := range bj.Refs {
		ref, err := decodeRefinement(rj)
		if err != nil {
			return nil, err
		}
		b.Refs = append(b.Refs, ref)
	}

	stmts := make([]*stripe.Statement, len(bj.Body))
	for i, sj := range bj.Body {
		kind, err := decodeKind(sj.Kind)
		if err != nil {
			return nil, err
		}
		stmt := &stripe.Statement{
			Kind:    kind,
			Name:    sj.Name,
			From:    sj.From,
			Into:    sj.Into,
			Inputs:  sj.Inputs,
			Outputs: sj.Outputs,
		}
		if sj.Body != nil {
			sub, err := decodeBlock(*sj.Body)
			if err != nil {
				return nil, err
			}
			stmt.Body = sub
		}
		stmts[i] = stmt
		b.Body.PushBack(stmt)
	}
	for i, sj := range bj.Body {
		for _, depIdx := range sj.Deps {
			if depIdx < 0 || depIdx >= len(stmts) {
				return nil, fmt.Errorf("stripeio: statement %d references out-of-range dep %d", i, depIdx)
			}
			stmts[i].Deps = append(stmts[i].Deps, stmts[depIdx])
		}
	}

	return b, nil
}

// Encode writes block as a JSON envelope to w. The alias map is left empty
// (encoded as null):
// once a block has been scheduled its refinements name cache entries
// directly, so there is nothing left for a consumer to alias-analyze.
func Encode(w io.Writer, block *stripe.Block) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope{Block: encodeBlockForOutput(block)})
}

func encodeBlockForOutput(b *stripe.Block) blockJSON {
	out := blockJSON{Name: b.Name, Location: encodeLocation(b.Location)}
	for _, idx := range b.Idxs {
		out.Idxs = append(out.Idxs, encodeIndex(idx))
	}
	for _, ref := range b.Refs {
		out.Refs = append(out.Refs, encodeRefinement(ref))
	}

	index := make(map[*stripe.Statement]int)
	var stmts []*stripe.Statement
	b.Body.Each(func(it stripe.StatementIt) {
		stmt := stripe.StatementAt(it)
		index[stmt] = len(stmts)
		stmts = append(stmts, stmt)
	})

	for _, stmt := range stmts {
		sj := statementJSON{
			Kind:    encodeKind(stmt.Kind),
			Name:    stmt.Name,
			From:    stmt.From,
			Into:    stmt.Into,
			Inputs:  stmt.Inputs,
			Outputs: stmt.Outputs,
		}
		if stmt.Body != nil {
			sub := encodeBlockForOutput(stmt.Body)
			sj.Body = &sub
		}
		for _, dep := range stmt.Deps {
			sj.Deps = append(sj.Deps, index[dep])
		}
		out.Body = append(out.Body, sj)
	}

	return out
}
