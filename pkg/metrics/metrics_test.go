package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_FramesSentAccumulates(t *testing.T) {
	t.Parallel()

	r := New()
	r.AddFramesSent(3)
	r.AddFramesSent(2)

	assert.Equal(t, float64(5), testutil.ToFloat64(r.framesSent))
}

func TestRegistry_FramesLostByKind(t *testing.T) {
	t.Parallel()

	r := New()
	r.IncFramesLost("normal")
	r.IncFramesLost("normal")
	r.IncFramesLost("inventory")

	assert.Equal(t, float64(2), testutil.ToFloat64(r.framesLost.WithLabelValues("normal")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.framesLost.WithLabelValues("inventory")))
}

func TestRegistry_DecodeErrorsByKind(t *testing.T) {
	t.Parallel()

	r := New()
	r.IncDecodeError("crc")
	r.IncDecodeError("payload")
	r.IncDecodeError("payload")

	assert.Equal(t, float64(1), testutil.ToFloat64(r.decodeErrors.WithLabelValues("crc")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.decodeErrors.WithLabelValues("payload")))
}

func TestRegistry_DeviceUpToggles(t *testing.T) {
	t.Parallel()

	r := New()
	r.SetDeviceUp(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.deviceUp))

	r.SetDeviceUp(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(r.deviceUp))
}

func TestRegistry_BuildInfoPublishesVersionLabel(t *testing.T) {
	t.Parallel()

	r := New()
	r.SetBuildInfo("1.2.3")

	assert.Equal(t, float64(1), testutil.ToFloat64(r.info.WithLabelValues("1.2.3")))
}

func TestRegistry_BytesAccumulate(t *testing.T) {
	t.Parallel()

	r := New()
	r.AddBytesSent(10)
	r.AddBytesSent(5)
	r.AddBytesReceived(100)

	assert.Equal(t, float64(15), testutil.ToFloat64(r.bytesSent))
	assert.Equal(t, float64(100), testutil.ToFloat64(r.bytesReceived))
}
