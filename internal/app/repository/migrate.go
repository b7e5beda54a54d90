package repository

import (
	"context"
	"fmt"
)

// Copy writes every record of src that dst does not already hold. It returns
// the number of records written.
func Copy(ctx context.Context, src, dst ResultStore) (int, error) {
	records, err := src.List(ctx, ListFilter{})
	if err != nil {
		return 0, fmt.Errorf("list source records: %w", err)
	}

	copied := 0
	for _, rec := range records {
		inserted, err := dst.InsertIfAbsent(ctx, rec)
		if err != nil {
			return copied, fmt.Errorf("copy record %s: %w", rec.Key(), err)
		}
		if inserted {
			copied++
		}
	}
	return copied, nil
}
