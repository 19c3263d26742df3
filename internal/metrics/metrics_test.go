package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilExplorerIsNoop(t *testing.T) {
	var m *Explorer
	assert.NotPanics(t, func() {
		m.RecordUpload(ResultOK, 10)
		m.RecordCompensation(errors.New("x"))
		m.RecordMutation("delete_file", time.Now(), nil)
		m.RecordCache("hit")
	})
}

func TestRecordCompensation_CountsOrphans(t *testing.T) {
	m := New(NewRegistry())

	m.RecordCompensation(nil)
	m.RecordCompensation(errors.New("remove failed"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensationsTotal.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensationsTotal.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orphanedBlobsTotal))
}

func TestRecordUpload_BytesOnlyOnSuccess(t *testing.T) {
	m := New(NewRegistry())

	m.RecordUpload(ResultOK, 100)
	m.RecordUpload("size_exceeded", 1<<30)

	assert.Equal(t, 100.0, testutil.ToFloat64(m.uploadBytesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadsTotal.WithLabelValues("size_exceeded")))
}
