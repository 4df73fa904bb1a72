package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"zolver/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestConcurrentGuardedCreate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath)
	assert.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	start := time.Now().AddDate(0, 0, 1).Truncate(time.Hour)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			a := &models.Appointment{
				ProfessionalID: "pro-1",
				Title:          "Contested slot",
				Start:          start,
				End:            start.Add(2 * time.Hour),
				Type:           models.TypeExternalJob,
			}
			results <- db.CreateAppointmentWithGuard(ctx, a)
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	failCount := 0
	for err := range results {
		if err == nil {
			successCount++
		} else {
			failCount++
		}
	}

	// The guard runs check and insert in one transaction, so exactly one
	// create may win the slot.
	assert.Equal(t, 1, successCount, "only one appointment should win the slot")
	assert.Equal(t, numGoroutines-1, failCount, "all other creates should be rejected")

	list, err := db.ListForProfessional(ctx, "pro-1")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(list))
}
