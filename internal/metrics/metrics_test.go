package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestApprovalsProcessedByDecision(t *testing.T) {
	before := testutil.ToFloat64(ApprovalsProcessed.WithLabelValues("approved"))
	ApprovalsProcessed.WithLabelValues("approved").Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(ApprovalsProcessed.WithLabelValues("approved")))
}

func TestNotificationsOutcomes(t *testing.T) {
	before := testutil.ToFloat64(Notifications.WithLabelValues("failed"))
	Notifications.WithLabelValues("failed").Inc()
	Notifications.WithLabelValues("stored").Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(Notifications.WithLabelValues("failed")))
}
