package schedule

import (
	"strconv"

	"github.com/sarchlab/stripesched/internal/hooking"
	"github.com/sarchlab/stripesched/internal/stripe"
)

// newTransferBody returns the load/store pair every transfer block
// contains: read the "src" refinement into a scalar, write the scalar to
// "dst".
func newTransferBody() *stripe.StatementList {
	body := stripe.NewStatementList()
	body.PushBack(stripe.NewLoad("src", "$X"))
	body.PushBack(stripe.NewStore("$X", "dst"))
	return body
}

// scheduleSwapIn inserts a transfer block just before si that reads ent's
// backing refinement into ent, and returns the iterator to the new block.
// The caller is responsible for adding any dependency the swap-in itself
// should carry.
func (s *Scheduler) scheduleSwapIn(si stripe.StatementIt, ent *cacheEntry) stripe.StatementIt {
	ri := ent.source
	ri.used = true

	swap := stripe.NewBlock("swap_in_" + ent.name)
	swap.Location = s.xferLoc
	swap.Idxs = append([]stripe.Index(nil), ri.swapIdxs...)
	swap.Refs = []stripe.Refinement{
		{
			Dir:      stripe.DirIn,
			From:     ri.ref.Into,
			Into:     "src",
			Access:   ri.refSwapAccess,
			Shape:    ri.refSwapShape,
			Location: ri.ref.Location,
			IsConst:  ri.ref.IsConst,
			BankDim:  ri.ref.BankDim,
		},
		{
			Dir:      stripe.DirOut,
			From:     ent.name,
			Into:     "dst",
			Access:   ri.cacheSwapAccess,
			Shape:    ri.cacheSwapShape,
			Location: s.bankedMemLoc(ri),
			IsConst:  ri.ref.IsConst,
			BankDim:  ri.ref.BankDim,
		},
	}
	swap.Body = newTransferBody()

	swapStmt := &stripe.Statement{Kind: stripe.KindBlock, Name: swap.Name, Body: swap}
	swapIt := s.block.Body.InsertBeforeOrAppend(swapStmt, si)

	ent.writers[swapStmt] = ri.alias
	ri.swapInReaders[swapStmt] = struct{}{}
	for reader := range ent.readers {
		reader.AddDep(swapStmt)
	}
	ent.sawEarliestWriter = true

	s.emit(hooking.HookPosSwapInserted, swap.Name, "in")
	return swapIt
}

// scheduleSwapOut inserts a transfer block just before si that reads ent
// and writes it back to ent's backing refinement. If swapInReaders is
// non-nil, every statement in it picks up a dependency on the new block.
func (s *Scheduler) scheduleSwapOut(si stripe.StatementIt, ent *cacheEntry, swapInReaders map[*stripe.Statement]struct{}) stripe.StatementIt {
	ri := ent.source
	ri.used = true

	swap := stripe.NewBlock("swap_out_" + ent.name)
	swap.Location = s.xferLoc
	swap.Idxs = append([]stripe.Index(nil), ri.swapIdxs...)
	swap.Refs = []stripe.Refinement{
		{
			Dir:      stripe.DirIn,
			From:     ent.name,
			Into:     "src",
			Access:   ri.cacheSwapAccess,
			Shape:    ri.cacheSwapShape,
			Location: s.bankedMemLoc(ri),
			IsConst:  ri.ref.IsConst,
			BankDim:  ri.ref.BankDim,
		},
		{
			Dir:      stripe.DirOut,
			From:     ri.ref.Into,
			Into:     "dst",
			Access:   ri.refSwapAccess,
			Shape:    ri.refSwapShape,
			Location: ri.ref.Location,
			IsConst:  ri.ref.IsConst,
			BankDim:  ri.ref.BankDim,
		},
	}
	swap.Body = newTransferBody()

	swapStmt := &stripe.Statement{Kind: stripe.KindBlock, Name: swap.Name, Body: swap}
	swapIt := s.block.Body.InsertBeforeOrAppend(swapStmt, si)

	for reader := range swapInReaders {
		reader.AddDep(swapStmt)
	}
	ri.sawFinalWrite = true

	s.emit(hooking.HookPosSwapInserted, swap.Name, "out")
	return swapIt
}

// addSubblockSwapIn prepends a transfer block inside block that reads
// backingRefName (offset by access) into ent's interior name.
func (s *Scheduler) addSubblockSwapIn(block *stripe.Block, ent *cacheEntry, backingRefName string, access []stripe.Affine) {
	idxs, localOffset, localPlain := subblockSwapIdxs(ent, access)
	ri := ent.source

	swap := stripe.NewBlock("read_slice_of_" + ri.name)
	swap.Location = s.xferLoc
	swap.Idxs = idxs
	swap.Refs = []stripe.Refinement{
		{Dir: stripe.DirIn, From: backingRefName, Into: "src", Access: localOffset,
			Shape: ri.refSwapShape, Location: ri.ref.Location, IsConst: ri.ref.IsConst, BankDim: ri.ref.BankDim},
		{Dir: stripe.DirOut, From: ent.interiorName, Into: "dst", Access: localPlain,
			Shape: ri.cacheSwapShape, Location: s.bankedMemLoc(ri), IsConst: ri.ref.IsConst, BankDim: ri.ref.BankDim},
	}
	swap.Body = newTransferBody()
	block.Body.InsertBefore(&stripe.Statement{Kind: stripe.KindBlock, Name: swap.Name, Body: swap}, block.Body.Front())
}

// addSubblockSwapOut appends a transfer block inside block that writes
// ent's interior name back to backingRefName (offset by access).
func (s *Scheduler) addSubblockSwapOut(block *stripe.Block, ent *cacheEntry, backingRefName string, access []stripe.Affine) {
	idxs, localOffset, localPlain := subblockSwapIdxs(ent, access)
	ri := ent.source

	swap := stripe.NewBlock("write_slice_of_" + ri.name)
	swap.Location = s.xferLoc
	swap.Idxs = idxs
	swap.Refs = []stripe.Refinement{
		{Dir: stripe.DirIn, From: ent.interiorName, Into: "src", Access: localPlain,
			Shape: ri.cacheSwapShape, Location: s.bankedMemLoc(ri), IsConst: ri.ref.IsConst, BankDim: ri.ref.BankDim},
		{Dir: stripe.DirOut, From: backingRefName, Into: "dst", Access: localOffset,
			Shape: ri.refSwapShape, Location: ri.ref.Location, IsConst: ri.ref.IsConst, BankDim: ri.ref.BankDim},
	}
	swap.Body = newTransferBody()
	block.Body.PushBack(&stripe.Statement{Kind: stripe.KindBlock, Name: swap.Name, Body: swap})
}

// subblockSwapIdxs builds the index set shared by a sub-block swap: one
// size-1 index per distinct name in access, plus one fresh index per data
// dimension of ent's shape. It returns those indices, the offset-carrying
// access vector (index + access[i]) and the plain access vector (index
// alone).
func subblockSwapIdxs(ent *cacheEntry, access []stripe.Affine) (idxs []stripe.Index, offset, plain []stripe.Affine) {
	seen := make(map[string]bool)
	for _, acc := range access {
		for name := range acc.GetMap() {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			idxs = append(idxs, stripe.Index{Name: name, Range: 1, Affine: stripe.Var(name)})
		}
	}

	offset = make([]stripe.Affine, len(access))
	plain = make([]stripe.Affine, len(access))
	for i := range access {
		iname := uniqueAmong(idxs, "i"+strconv.Itoa(i))
		idxs = append(idxs, stripe.Index{Name: iname, Range: ent.shape.Dims[i].Size})
		offset[i] = stripe.Var(iname).Add(access[i])
		plain[i] = stripe.Var(iname)
	}
	return idxs, offset, plain
}

// uniqueAmong returns base, or base_1, base_2, ... if base collides with an
// existing index name.
func uniqueAmong(idxs []stripe.Index, base string) string {
	collides := func(name string) bool {
		for _, idx := range idxs {
			if idx.Name == name {
				return true
			}
		}
		return false
	}
	if !collides(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "_" + strconv.Itoa(i)
		if !collides(candidate) {
			return candidate
		}
	}
}

func (s *Scheduler) bankedMemLoc(ri *refInfo) stripe.Location {
	loc := s.memLoc
	if ri.ref.CacheUnit != nil {
		loc.Unit = *ri.ref.CacheUnit
	}
	return loc
}
