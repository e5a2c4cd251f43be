package entity

import (
	"strconv"
	"sync"
)

type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     Stone  `json:"color"`
	Prisoners int    `json:"prisoners"`
}

func (that *Player) AddPrisoners(n int) {
	if n > 0 {
		that.Prisoners += n
	}
}

// PlayerFactory hands out sequential ids p0, p1, ... and alternates colours starting with Black.
type PlayerFactory struct {
	mu   sync.Mutex
	next int
}

func NewPlayerFactory() *PlayerFactory {
	return &PlayerFactory{}
}

func (that *PlayerFactory) Create(name string) *Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	color := Black
	if that.next%2 == 1 {
		color = White
	}

	player := &Player{
		ID:    "p" + strconv.Itoa(that.next),
		Name:  name,
		Color: color,
	}
	that.next++

	return player
}
