package entity

// Group - a maximal set of orthogonally connected stones of one colour.
type Group struct {
	Color     Stone
	Stones    []Position
	Liberties []Position
}

func (that *Group) LibertyCount() int {
	return len(that.Liberties)
}

func (that *Group) Contains(p Position) bool {
	for _, stone := range that.Stones {
		if stone == p {
			return true
		}
	}

	return false
}

type GroupFinder struct {
	board *Board
}

func NewGroupFinder(board *Board) *GroupFinder {
	return &GroupFinder{board: board}
}

// FindGroup returns the group containing (x, y), or nil when the cell is empty or off the board.
func (that *GroupFinder) FindGroup(x, y int) *Group {
	color := that.board.Get(x, y)
	if color == Empty {
		return nil
	}

	group := &Group{Color: color}
	visited := map[Position]struct{}{{X: x, Y: y}: {}}
	liberties := make(map[Position]struct{})

	stack := []Position{{X: x, Y: y}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		group.Stones = append(group.Stones, current)

		for _, n := range that.board.Neighbours(current.X, current.Y) {
			switch that.board.Get(n.X, n.Y) {
			case Empty:
				if _, seen := liberties[n]; !seen {
					liberties[n] = struct{}{}
					group.Liberties = append(group.Liberties, n)
				}
			case color:
				if _, seen := visited[n]; !seen {
					visited[n] = struct{}{}
					stack = append(stack, n)
				}
			}
		}
	}

	return group
}
