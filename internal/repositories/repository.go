package repositories

import (
	"errors"
	"math"

	"gorm.io/gorm"
)

// ErrRecordNotFound is returned by lookups that match no row.
var ErrRecordNotFound = gorm.ErrRecordNotFound

// PageRequest selects a zero-based page of a listing.
type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) offset() int {
	if p.Page < 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// Page is one slice of an ordered listing plus the size of the whole listing.
type Page[T any] struct {
	Items []T
	Page  int
	Size  int
	Total int64
}

func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
