package services

import (
	"math"

	"gorm.io/gorm"
)

const DefaultPageSize = 10

// maxOffset keeps (Number-1)*Size from overflowing on absurd page numbers.
const maxOffset = math.MaxInt32

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Size   int
}

func (p Page) normalized() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Number > maxOffset/p.Size+1 {
		p.Number = maxOffset/p.Size + 1
	}
	return p
}

func (p Page) scope(db *gorm.DB) *gorm.DB {
	p = p.normalized()
	return db.Offset((p.Number - 1) * p.Size).Limit(p.Size)
}
