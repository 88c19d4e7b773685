package game

import "math/rand"

// bagWeights are the categories that appear twice in every refill.
var bagWeights = []Category{Subject, Verb, Object, Adjective}

// CategoryBag hands out categories from a shuffled multiset, refilled when exhausted.
// No category can repeat more than its weight before every other one has been drawn.
type CategoryBag struct {
	rng   *rand.Rand
	items []Category
}

// NewCategoryBag creates an empty bag that shuffles with rng.
func NewCategoryBag(rng *rand.Rand) *CategoryBag {
	return &CategoryBag{rng: rng}
}

// Next pops a category, refilling the bag first when it is empty.
func (b *CategoryBag) Next() Category {
	if len(b.items) == 0 {
		b.refill()
	}
	c := b.items[len(b.items)-1]
	b.items = b.items[:len(b.items)-1]
	return c
}

// Len returns the number of categories left before the next refill.
func (b *CategoryBag) Len() int { return len(b.items) }

// Reset empties the bag.
func (b *CategoryBag) Reset() { b.items = nil }

func (b *CategoryBag) refill() {
	items := make([]Category, 0, len(AllCategories)+len(bagWeights))
	items = append(items, AllCategories...)
	items = append(items, bagWeights...)
	// Fisher-Yates
	for i := len(items) - 1; i > 0; i-- {
		j := b.rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
	b.items = items
}
