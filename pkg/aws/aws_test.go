package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrapSNSEnvelope(t *testing.T) {
	wrapped := `{"Type":"Notification","MessageId":"m-1","Message":"{\"organization_id\":\"org-1\"}"}`
	assert.Equal(t, `{"organization_id":"org-1"}`, UnwrapSNSEnvelope(wrapped))

	raw := `{"organization_id":"org-1","period":"2026-10"}`
	assert.Equal(t, raw, UnwrapSNSEnvelope(raw))

	assert.Equal(t, "not json", UnwrapSNSEnvelope("not json"))
}

func TestS3Uploader_ObjectURL(t *testing.T) {
	u := &S3Uploader{bucket: "club-tickets", region: "eu-west-2"}
	assert.Equal(t, "https://club-tickets.s3.eu-west-2.amazonaws.com/tickets/t-1.png", u.ObjectURL("tickets/t-1.png"))

	u.PublicBaseURL = "http://localhost:4566/club-tickets/"
	assert.Equal(t, "http://localhost:4566/club-tickets/tickets/t-1.png", u.ObjectURL("tickets/t-1.png"))
}

func TestMetricsClient_NilIsDisabled(t *testing.T) {
	var m *MetricsClient
	assert.False(t, m.IsEnabled())
	assert.NoError(t, m.RecordCount(context.Background(), MetricPaymentsRecorded, nil))
}
