package sync

import (
	"context"
	"fmt"

	"technoplus/internal/domain/category"
	"technoplus/internal/domain/record"
)

// downloaded - коллекции, которые проход синхронизации забирает с сервера.
var downloaded = []string{
	record.Products,
	record.Categories,
	record.Suppliers,
	record.Customers,
	record.Technicians,
	record.Tickets,
	record.Transactions,
}

// download сначала забирает все коллекции и только потом пишет их в хранилище,
// чтобы сбой на любой коллекции не оставлял частично обновленные данные.
func (m *Manager) download(ctx context.Context) (int, error) {
	fetched := make(map[string][]record.Record, len(downloaded))
	for _, collection := range downloaded {
		recs, err := m.backend.Select(ctx, collection, record.Query{ActiveOnly: true})
		if err != nil {
			return 0, fmt.Errorf("%s: %w", collection, err)
		}
		fetched[collection] = recs
	}

	_, tree, err := category.FromRecords(fetched[record.Categories])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", record.Categories, err)
	}
	fetched[record.Categories] = tree

	var total int
	for _, collection := range downloaded {
		n, err := m.Absorb(ctx, collection, fetched[collection])
		if err != nil {
			return total, fmt.Errorf("store %s: %w", collection, err)
		}
		total += n
		m.log.Debug("collection downloaded", "collection", collection, "received", len(fetched[collection]), "stored", n)
	}

	return total, nil
}
