package recommend

import "math/rand"

// PaginateWithFallback slices a ranked id list into a page. Rather than
// erroring on out-of-range pages or short tails it backfills from ids
// that were already shown, trading determinism for always having
// content.
func PaginateWithFallback(itemIDs []uint64, page, limit int) []uint64 {
	total := len(itemIDs)
	if total == 0 || limit <= 0 {
		return []uint64{}
	}
	if page < 0 {
		page = 0
	}

	offset := page * limit

	// Past the end: hand back a random sample instead of an empty page.
	if offset >= total {
		n := limit
		if n > total {
			n = total
		}
		sample := make([]uint64, 0, n)
		for _, idx := range rand.Perm(total)[:n] {
			sample = append(sample, itemIDs[idx])
		}
		return sample
	}

	end := offset + limit
	if end > total {
		end = total
	}

	paginated := make([]uint64, end-offset, limit)
	copy(paginated, itemIDs[offset:end])

	// Short tail page: pad by resampling (with replacement) from what
	// was already shown.
	if shortage := limit - len(paginated); shortage > 0 {
		pool := itemIDs[:end]
		if len(pool) == 0 {
			pool = paginated
		}
		for i := 0; i < shortage; i++ {
			paginated = append(paginated, pool[rand.Intn(len(pool))])
		}
	}

	return paginated
}
