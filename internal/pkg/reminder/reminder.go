package reminder

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/adiazny/slack-diary-lambda/internal/pkg/calendar"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/store"
)

const DefaultYearsBack = 10

// Scanner looks up the entries written on the same day in previous years.
type Scanner struct {
	Store     store.Store
	YearsBack int
}

// Scan returns the entries for today's month and day over the last
// YearsBack years, oldest first. Years where the day does not exist or
// nothing was written are skipped. Any store error aborts the whole scan.
func (s *Scanner) Scan(ctx context.Context, today calendar.Date) ([]calendar.Entry, error) {
	yearsBack := s.YearsBack
	if yearsBack <= 0 {
		yearsBack = DefaultYearsBack
	}

	// slot i holds offset yearsBack-i so the slice is already chronological
	slots := make([]*calendar.Entry, yearsBack)

	eg, egCtx := errgroup.WithContext(ctx)

	for i := 0; i < yearsBack; i++ {
		i := i

		date, ok := today.YearsAgo(yearsBack - i)
		if !ok {
			continue
		}

		eg.Go(func() error {
			entry, found, err := s.lookup(egCtx, date)
			if err != nil {
				return err
			}

			if found {
				slots[i] = &entry
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	entries := make([]calendar.Entry, 0, yearsBack)

	for _, entry := range slots {
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	return entries, nil
}

func (s *Scanner) lookup(ctx context.Context, date calendar.Date) (calendar.Entry, bool, error) {
	key := date.Key()

	exists, err := s.Store.Exists(ctx, key)
	if err != nil {
		return calendar.Entry{}, false, fmt.Errorf("error scanning %s %w", date, err)
	}

	if !exists {
		return calendar.Entry{}, false, nil
	}

	body, err := s.Store.Get(ctx, key)
	if err != nil {
		return calendar.Entry{}, false, fmt.Errorf("error fetching %s %w", date, err)
	}

	return calendar.Entry{Date: date, Body: body}, true, nil
}
