// Package series orders and loads multi-slice studies.
package series

import (
	"sort"

	"dicomview/internal/models"
)

// Compare orders two slices using the first key both of them carry:
// slice location, then instance number, then the Z component of the image
// position. Slices sharing no key compare equal.
//
// The key is chosen per pair, not per collection. On a series where only some
// slices carry a slice location, Compare is not transitive (a < b by
// location, b < c by instance number, c == a), so the sorted order depends on
// the input order. This is kept deliberately: switching to a single global
// key would reorder existing mixed-metadata series.
func Compare(a, b *models.DicomImageData) int {
	switch {
	case a.SliceLocation != nil && b.SliceLocation != nil:
		return compareFloat(*a.SliceLocation, *b.SliceLocation)
	case a.InstanceNumber != nil && b.InstanceNumber != nil:
		return compareInt(*a.InstanceNumber, *b.InstanceNumber)
	case a.ImagePositionPatient != nil && b.ImagePositionPatient != nil:
		return compareFloat(a.ImagePositionPatient[2], b.ImagePositionPatient[2])
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Sort returns a new slice holding the same images in ascending order.
// The sort is stable and neither the input slice nor its members are modified.
func Sort(slices []*models.DicomImageData) []*models.DicomImageData {
	sorted := make([]*models.DicomImageData, len(slices))
	for k, i := range SortIndices(slices) {
		sorted[k] = slices[i]
	}
	return sorted
}

// SortIndices returns the permutation Sort would apply: element k of the
// result is the input index of the k-th slice in sorted order.
func SortIndices(slices []*models.DicomImageData) []int {
	idx := make([]int, len(slices))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return Compare(slices[idx[i]], slices[idx[j]]) < 0
	})
	return idx
}
