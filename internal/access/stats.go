package access

import "github.com/unclebandit/clinic-crm/internal/model"

type StatusCount struct {
	Status model.FollowUpStatus `json:"status"`
	Count  int                  `json:"count"`
}

// Stats counts customers per follow-up status in display order. Statuses
// with no customers are left out.
func Stats(customers []model.Customer) []StatusCount {
	counts := make(map[model.FollowUpStatus]int)
	for _, c := range customers {
		counts[c.Status]++
	}

	out := []StatusCount{}
	for _, s := range model.Statuses() {
		if n := counts[s]; n > 0 {
			out = append(out, StatusCount{Status: s, Count: n})
		}
	}
	return out
}

// Paginate slices one page out of customers. page < 1 becomes 1, pageSize
// < 1 becomes 20 and pageSize is capped at 100.
func Paginate(customers []model.Customer, page, pageSize int) ([]model.Customer, map[string]int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	total := len(customers)
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
	return customers[start:end], pagination
}
