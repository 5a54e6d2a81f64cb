package warp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Work issued on one stream executes in issue order: later launches
// observe the writes of earlier ones.
func TestStreamIssueOrder(t *testing.T) {
	dev := openDeviceOrFail(t)
	stream := dev.NewStream()
	defer stream.Close()

	const n = 1024
	a := allocOrFail(t, dev, n*4)
	b := allocOrFail(t, dev, n*4)
	c := allocOrFail(t, dev, n*4)
	defer a.Destroy()
	defer b.Destroy()
	defer c.Destroy()

	for i := range a.Float32() {
		a.Float32()[i] = float32(i)
	}

	dense := []int32{1}
	// a -> b -> c chained without intermediate synchronization.
	require.NoError(t, StridedCopy(stream, 1, n, dense, dense, dense, a, b))
	require.NoError(t, StridedCopy(stream, 1, n, dense, dense, dense, b, c))
	synchronizeOrFail(t, stream)

	require.Equal(t, a.Float32(), c.Float32())
}

func TestEventElapsed(t *testing.T) {
	dev := openDeviceOrFail(t)
	stream := dev.NewStream()
	defer stream.Close()

	start, err := stream.RecordEvent()
	require.NoError(t, err)

	// A deliberately slow task between the two markers.
	require.NoError(t, stream.submit(func() { time.Sleep(5 * time.Millisecond) }))

	end, err := stream.RecordEvent()
	require.NoError(t, err)

	// Elapsed synchronizes implicitly up to the end event.
	d, err := Elapsed(start, end)
	require.NoError(t, err)
	require.True(t, d >= 5*time.Millisecond, "elapsed %v", d)
	require.True(t, start.Reached())
	require.True(t, end.Reached())
}

func TestEventOrderValidation(t *testing.T) {
	dev := openDeviceOrFail(t)
	s1 := dev.NewStream()
	s2 := dev.NewStream()
	defer s1.Close()
	defer s2.Close()

	first, err := s1.RecordEvent()
	require.NoError(t, err)
	second, err := s1.RecordEvent()
	require.NoError(t, err)
	other, err := s2.RecordEvent()
	require.NoError(t, err)

	_, err = Elapsed(second, first)
	require.True(t, IsEventOrderError(err), "reversed events: %v", err)

	_, err = Elapsed(first, other)
	require.True(t, IsEventOrderError(err), "cross-stream events: %v", err)

	d, err := Elapsed(first, second)
	require.NoError(t, err)
	require.True(t, d >= 0)

	// Identical start and end is legal and measures zero.
	d, err = Elapsed(first, first)
	require.NoError(t, err)
	require.Zero(t, d)
}

func TestAsyncCopyVisibility(t *testing.T) {
	dev := openDeviceOrFail(t)
	stream := dev.NewStream()
	defer stream.Close()

	const n = 256
	hostIn := make([]float32, n)
	for i := range hostIn {
		hostIn[i] = float32(n - i)
	}
	hostOut := make([]byte, n*4)

	buf := allocOrFail(t, dev, n*4)
	defer buf.Destroy()

	require.NoError(t, buf.CopyFromHostAsync(stream, float32Bytes(hostIn)))
	require.NoError(t, buf.CopyToHostAsync(stream, hostOut))
	synchronizeOrFail(t, stream)

	require.Equal(t, hostIn, bytesFloat32(hostOut))
}

func TestStreamClosedRejectsWork(t *testing.T) {
	dev := openDeviceOrFail(t)
	stream := dev.NewStream()
	stream.Close()
	stream.Close() // idempotent

	buf := allocOrFail(t, dev, 16)
	defer buf.Destroy()

	require.ErrorIs(t, buf.CopyFromHostAsync(stream, make([]byte, 16)), ErrStreamClosed)
	_, err := stream.RecordEvent()
	require.ErrorIs(t, err, ErrStreamClosed)
}

// Two streams are unordered with respect to each other, but each one
// individually preserves its own issue order.
func TestIndependentStreams(t *testing.T) {
	dev := openDeviceOrFail(t)
	s1 := dev.NewStream()
	s2 := dev.NewStream()
	defer s1.Close()
	defer s2.Close()

	const n = 4096
	a := allocOrFail(t, dev, n*4)
	b1 := allocOrFail(t, dev, n*4)
	b2 := allocOrFail(t, dev, n*4)
	defer a.Destroy()
	defer b1.Destroy()
	defer b2.Destroy()

	for i := range a.Float32() {
		a.Float32()[i] = float32(i % 7)
	}

	// Concurrent reads of a shared input buffer are safe; each stream
	// owns its destination.
	dense := []int32{1}
	for i := 0; i < 32; i++ {
		require.NoError(t, StridedCopy(s1, 1, n, dense, dense, dense, a, b1))
		require.NoError(t, StridedCopy(s2, 1, n, dense, dense, dense, a, b2))
	}
	synchronizeOrFail(t, s1)
	synchronizeOrFail(t, s2)

	require.Equal(t, a.Float32(), b1.Float32())
	require.Equal(t, a.Float32(), b2.Float32())
}
