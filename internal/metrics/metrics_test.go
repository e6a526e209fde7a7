package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveLike(t *testing.T) {
	before := testutil.ToFloat64(LikeMutations.WithLabelValues("increment", "true"))
	ObserveLike("increment", true)
	ObserveLike("increment", false)
	assert.Equal(t, before+1, testutil.ToFloat64(LikeMutations.WithLabelValues("increment", "true")))
}
