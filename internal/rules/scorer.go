package rules

import "github.com/rocketscienceinc/goban-server/internal/entity"

// Region - a maximal connected set of empty intersections.
type Region struct {
	ID        int
	Positions []entity.Position
	Borders   map[entity.Stone]struct{}
}

// IsNeutral reports whether the region borders zero or both colours.
func (that *Region) IsNeutral() bool {
	return len(that.Borders) != 1
}

// Owner returns the single bordering colour, or Empty for neutral regions.
func (that *Region) Owner() entity.Stone {
	if that.IsNeutral() {
		return entity.Empty
	}

	for color := range that.Borders {
		return color
	}

	return entity.Empty
}

// ScoredGroup - a group annotated with the regions it touches.
type ScoredGroup struct {
	*entity.Group
	Regions []int
	Seki    bool
}

// Analysis - the intermediate result of territory counting.
type Analysis struct {
	Regions []*Region
	Groups  []*ScoredGroup
}

type Score struct {
	BlackStones    int `json:"black_stones"`
	WhiteStones    int `json:"white_stones"`
	BlackTerritory int `json:"black_territory"`
	WhiteTerritory int `json:"white_territory"`
	BlackScore     int `json:"black_score"`
	WhiteScore     int `json:"white_score"`
}

// Winner returns the colour with the strictly higher score, or Empty on a tie.
func (that Score) Winner() entity.Stone {
	switch {
	case that.BlackScore > that.WhiteScore:
		return entity.Black
	case that.WhiteScore > that.BlackScore:
		return entity.White
	default:
		return entity.Empty
	}
}

// TerritoryScorer counts area: stones on the board plus surrounded empty points.
// Regions touched by a group in seki belong to nobody.
type TerritoryScorer struct{}

func NewTerritoryScorer() *TerritoryScorer {
	return &TerritoryScorer{}
}

func (that *TerritoryScorer) Score(board *entity.Board) Score {
	analysis := that.Analyze(board)

	score := Score{
		BlackStones: board.CountStones(entity.Black),
		WhiteStones: board.CountStones(entity.White),
	}

	sekiTouched := make(map[int]map[entity.Stone]bool)
	for _, group := range analysis.Groups {
		if !group.Seki {
			continue
		}
		for _, id := range group.Regions {
			if sekiTouched[id] == nil {
				sekiTouched[id] = make(map[entity.Stone]bool)
			}
			sekiTouched[id][group.Color] = true
		}
	}

	for _, region := range analysis.Regions {
		owner := region.Owner()
		if owner == entity.Empty || sekiTouched[region.ID][owner] {
			continue
		}

		switch owner {
		case entity.Black:
			score.BlackTerritory += len(region.Positions)
		case entity.White:
			score.WhiteTerritory += len(region.Positions)
		}
	}

	score.BlackScore = score.BlackStones + score.BlackTerritory
	score.WhiteScore = score.WhiteStones + score.WhiteTerritory

	return score
}

// Analyze labels empty regions first, then every group with the regions its liberties fall in.
func (that *TerritoryScorer) Analyze(board *entity.Board) *Analysis {
	size := board.Size()
	regionOf := make(map[entity.Position]int)
	analysis := &Analysis{}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := entity.Position{X: x, Y: y}
			if board.Get(x, y) != entity.Empty {
				continue
			}
			if _, labelled := regionOf[p]; labelled {
				continue
			}

			region := floodRegion(board, p, len(analysis.Regions), regionOf)
			analysis.Regions = append(analysis.Regions, region)
		}
	}

	finder := entity.NewGroupFinder(board)
	seen := make(map[entity.Position]struct{})
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			p := entity.Position{X: x, Y: y}
			if board.Get(x, y) == entity.Empty {
				continue
			}
			if _, done := seen[p]; done {
				continue
			}

			group := finder.FindGroup(x, y)
			for _, s := range group.Stones {
				seen[s] = struct{}{}
			}

			analysis.Groups = append(analysis.Groups, annotateGroup(group, regionOf, analysis.Regions))
		}
	}

	return analysis
}

func floodRegion(board *entity.Board, start entity.Position, id int, regionOf map[entity.Position]int) *Region {
	region := &Region{ID: id, Borders: make(map[entity.Stone]struct{})}
	regionOf[start] = id

	stack := []entity.Position{start}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		region.Positions = append(region.Positions, current)

		for _, n := range board.Neighbours(current.X, current.Y) {
			stone := board.Get(n.X, n.Y)
			if stone != entity.Empty {
				region.Borders[stone] = struct{}{}
				continue
			}
			if _, labelled := regionOf[n]; !labelled {
				regionOf[n] = id
				stack = append(stack, n)
			}
		}
	}

	return region
}

func annotateGroup(group *entity.Group, regionOf map[entity.Position]int, regions []*Region) *ScoredGroup {
	scored := &ScoredGroup{Group: group}

	touched := make(map[int]struct{})
	for _, liberty := range group.Liberties {
		id := regionOf[liberty]
		if _, ok := touched[id]; ok {
			continue
		}
		touched[id] = struct{}{}
		scored.Regions = append(scored.Regions, id)
	}

	scored.Seki = len(scored.Regions) > 0
	for _, id := range scored.Regions {
		if !regions[id].IsNeutral() {
			scored.Seki = false
			break
		}
	}

	return scored
}
