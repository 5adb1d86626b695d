package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveQueryDuration(t *testing.T) {
	ObserveQueryDuration("get", time.Now().Add(-5*time.Millisecond))
	ObserveQueryDuration("exec", time.Now())

	count := testutil.CollectAndCount(DatabaseQueryDuration, "clover_database_query_duration_seconds")
	assert.GreaterOrEqual(t, count, 2)
}
