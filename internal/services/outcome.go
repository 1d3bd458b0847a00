package services

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"tonspin-backend/internal/models"
)

// OutcomeVersion tags every result. The seed-to-reels derivation below
// is the audit contract: players recompute it from the revealed server
// seed, so any change to the algorithm, the layout, or the weight table
// requires a new version.
const OutcomeVersion = "1"

const (
	Reels = 3
	Rows  = 3
)

type symbolWeight struct {
	symbol     models.Symbol
	weight     uint32
	multiplier int64
}

// Weights and per-line multipliers, fixed under OutcomeVersion.
var symbolTable = []symbolWeight{
	{models.SymbolCherry, 5, 2},
	{models.SymbolLemon, 5, 3},
	{models.SymbolClover, 4, 5},
	{models.SymbolBell, 3, 8},
	{models.SymbolDiamond, 2, 15},
	{models.SymbolSeven, 1, 50},
}

// paylines as (reel, row) coordinates: three rows, two diagonals.
var paylines = [][Reels][2]int{
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

type OutcomeGenerator struct {
	totalWeight uint32
	lineMult    map[models.Symbol]int64
}

func NewOutcomeGenerator() (*OutcomeGenerator, error) {
	g := &OutcomeGenerator{lineMult: make(map[models.Symbol]int64)}
	for _, sw := range symbolTable {
		g.totalWeight += sw.weight
		g.lineMult[sw.symbol] = sw.multiplier
	}
	if g.totalWeight == 0 {
		return nil, fmt.Errorf("symbol table has zero total weight")
	}
	return g, nil
}

// Generate derives the round result from the two seeds. It is a pure
// function: same seeds, same result, on any machine.
func (g *OutcomeGenerator) Generate(serverSeed, clientSeed string, betAmount int64) *models.RoundResult {
	stream := newSeedStream(serverSeed + ":" + clientSeed)

	grid := make([][]models.Symbol, Reels)
	for reel := 0; reel < Reels; reel++ {
		grid[reel] = make([]models.Symbol, Rows)
		for row := 0; row < Rows; row++ {
			grid[reel][row] = g.drawSymbol(stream.next())
		}
	}

	multiplier := g.scoreGrid(grid)
	payout := betAmount * multiplier

	return &models.RoundResult{
		Reels:      grid,
		Multiplier: multiplier,
		Payout:     payout,
		Won:        payout > 0,
		Version:    OutcomeVersion,
	}
}

func (g *OutcomeGenerator) drawSymbol(v uint32) models.Symbol {
	pick := v % g.totalWeight
	for _, sw := range symbolTable {
		if pick < sw.weight {
			return sw.symbol
		}
		pick -= sw.weight
	}
	// Unreachable: pick < totalWeight by construction.
	return symbolTable[len(symbolTable)-1].symbol
}

func (g *OutcomeGenerator) scoreGrid(grid [][]models.Symbol) int64 {
	var multiplier int64
	for _, line := range paylines {
		first := grid[line[0][0]][line[0][1]]
		matched := true
		for _, cell := range line[1:] {
			if grid[cell[0]][cell[1]] != first {
				matched = false
				break
			}
		}
		if matched {
			multiplier += g.lineMult[first]
		}
	}
	return multiplier
}

// seedStream yields uint32 draws from SHA256(combined:blockIndex)
// blocks, big-endian, eight draws per block.
type seedStream struct {
	combined string
	block    []byte
	offset   int
	index    uint64
}

func newSeedStream(combined string) *seedStream {
	return &seedStream{combined: combined}
}

func (s *seedStream) next() uint32 {
	if s.block == nil || s.offset+4 > len(s.block) {
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", s.combined, s.index)))
		s.block = sum[:]
		s.offset = 0
		s.index++
	}
	v := binary.BigEndian.Uint32(s.block[s.offset : s.offset+4])
	s.offset += 4
	return v
}
