package reminder_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/adiazny/slack-diary-lambda/internal/pkg/calendar"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/reminder"
	"github.com/adiazny/slack-diary-lambda/internal/pkg/store"
)

type failingStore struct {
	*store.Memory

	mu      sync.Mutex
	failKey string
	checked []string
}

func (f *failingStore) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	f.checked = append(f.checked, key)
	f.mu.Unlock()

	if key == f.failKey {
		return false, errors.New("throttled")
	}

	return f.Memory.Exists(ctx, key)
}

func date(year int, month time.Month, day int) calendar.Date {
	return calendar.Date{Year: year, Month: month, Day: day}
}

func seed(t *testing.T, entries ...calendar.Entry) *store.Memory {
	t.Helper()

	mem := store.NewMemory()
	for _, e := range entries {
		if err := mem.Put(context.Background(), e.Date.Key(), e.Body); err != nil {
			t.Fatal(err)
		}
	}

	return mem
}

func TestScanner_Scan(t *testing.T) {
	tests := []struct {
		name      string
		entries   []calendar.Entry
		today     calendar.Date
		yearsBack int
		want      []calendar.Entry
	}{
		{
			name: "two anniversaries oldest first",
			entries: []calendar.Entry{
				{Date: date(2022, time.June, 15), Body: "newer"},
				{Date: date(2019, time.June, 15), Body: "older"},
				{Date: date(2022, time.June, 16), Body: "other day"},
				{Date: date(2024, time.June, 15), Body: "today"},
				{Date: date(2013, time.June, 15), Body: "too old"},
			},
			today: date(2024, time.June, 15),
			want: []calendar.Entry{
				{Date: date(2019, time.June, 15), Body: "older"},
				{Date: date(2022, time.June, 15), Body: "newer"},
			},
		},
		{
			name: "window edges are included",
			entries: []calendar.Entry{
				{Date: date(2014, time.June, 15), Body: "ten"},
				{Date: date(2023, time.June, 15), Body: "one"},
			},
			today: date(2024, time.June, 15),
			want: []calendar.Entry{
				{Date: date(2014, time.June, 15), Body: "ten"},
				{Date: date(2023, time.June, 15), Body: "one"},
			},
		},
		{
			name: "leap day skips non leap years",
			entries: []calendar.Entry{
				{Date: date(2016, time.February, 29), Body: "2016"},
				{Date: date(2020, time.February, 29), Body: "2020"},
				{Date: date(2023, time.February, 28), Body: "not an anniversary"},
			},
			today: date(2024, time.February, 29),
			want: []calendar.Entry{
				{Date: date(2016, time.February, 29), Body: "2016"},
				{Date: date(2020, time.February, 29), Body: "2020"},
			},
		},
		{
			name:    "nothing written",
			entries: nil,
			today:   date(2024, time.June, 15),
			want:    []calendar.Entry{},
		},
		{
			name: "custom window",
			entries: []calendar.Entry{
				{Date: date(2019, time.June, 15), Body: "older"},
				{Date: date(2022, time.June, 15), Body: "newer"},
			},
			today:     date(2024, time.June, 15),
			yearsBack: 3,
			want: []calendar.Entry{
				{Date: date(2022, time.June, 15), Body: "newer"},
			},
		},
	}
	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			scanner := &reminder.Scanner{
				Store:     seed(t, tt.entries...),
				YearsBack: tt.yearsBack,
			}

			got, err := scanner.Scan(context.Background(), tt.today)
			if err != nil {
				t.Fatalf("Scanner.Scan() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Scanner.Scan() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScanner_ScanQueriesEachExistingDay(t *testing.T) {
	fs := &failingStore{Memory: store.NewMemory()}
	scanner := &reminder.Scanner{Store: fs}

	if _, err := scanner.Scan(context.Background(), date(2024, time.February, 29)); err != nil {
		t.Fatalf("Scanner.Scan() error = %v", err)
	}

	// 2016 and 2020 are the only leap years in 2014..2023
	if len(fs.checked) != 2 {
		t.Errorf("Scanner.Scan() checked %v, want 2 keys", fs.checked)
	}
}

func TestScanner_ScanStoreErrorAborts(t *testing.T) {
	mem := seed(t,
		calendar.Entry{Date: date(2019, time.June, 15), Body: "older"},
		calendar.Entry{Date: date(2022, time.June, 15), Body: "newer"},
	)

	for offset := 1; offset <= 10; offset++ {
		failDate, _ := date(2024, time.June, 15).YearsAgo(offset)

		scanner := &reminder.Scanner{
			Store: &failingStore{Memory: mem, failKey: failDate.Key()},
		}

		got, err := scanner.Scan(context.Background(), date(2024, time.June, 15))
		if err == nil {
			t.Fatalf("Scanner.Scan() with failure on %v error = nil", failDate)
		}

		if got != nil {
			t.Errorf("Scanner.Scan() with failure on %v = %v, want nil", failDate, got)
		}
	}
}
