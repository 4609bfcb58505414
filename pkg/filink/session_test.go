package filink_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/epsonian/filink/pkg/filink"
)

// E4: two 200-byte files end to end, both machines real.
func TestSessionTwoFiles(t *testing.T) {
	aData := pattern(200)
	bData := make([]byte, 200)
	for i := range bData {
		bData[i] = byte(255 - i)
	}
	aPath := writeTemp(t, "a.txt", aData)
	bPath := writeTemp(t, "b.dat", bData)
	outDir := t.TempDir()

	snd, rcv := newPipe()
	sndDone := startSender(snd, []string{aPath, bPath})
	rcvDone := startReceiver(rcv, outDir)

	if err := <-sndDone; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := <-rcvDone; err != nil {
		t.Fatalf("Receive: %v", err)
	}

	checkReceived(t, filepath.Join(outDir, "a.txt"), aData)
	checkReceived(t, filepath.Join(outDir, "b.dat"), bData)
}

// checkReceived verifies content plus the inevitable 0x1A tail padding.
func checkReceived(t *testing.T, path string, want []byte) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	padded := (len(want) + filink.BlockSize - 1) / filink.BlockSize * filink.BlockSize
	if len(got) != padded {
		t.Fatalf("[%s] is %d bytes, want %d", path, len(got), padded)
	}
	if !bytes.Equal(got[:len(want)], want) {
		t.Errorf("[%s] content differs", path)
	}
	for i := len(want); i < len(got); i++ {
		if got[i] != filink.Pad {
			t.Errorf("[%s] pad byte %d is 0x%02X", path, i, got[i])
			break
		}
	}
}

// corruptOnce flips one bit of the first payload block in transit. Only
// payload travels through WriteBytes, so control bytes stay intact.
type corruptOnce struct {
	filink.ByteChannel
	hit bool
}

func (c *corruptOnce) WriteBytes(p []byte, perByteDelay time.Duration) error {
	if !c.hit {
		c.hit = true
		q := append([]byte(nil), p...)
		q[10] ^= 0x40
		return c.ByteChannel.WriteBytes(q, perByteDelay)
	}
	return c.ByteChannel.WriteBytes(p, perByteDelay)
}

// E5: a corrupted first block is rejected, retransmitted clean, and the
// transfer completes with the right content.
func TestSessionRecoversFromCorruptedBlock(t *testing.T) {
	data := pattern(300)
	path := writeTemp(t, "big.bin", data)
	outDir := t.TempDir()

	snd, rcv := newPipe()
	sndDone := startSender(&corruptOnce{ByteChannel: snd}, []string{path})
	rcvDone := startReceiver(rcv, outDir)

	if err := <-sndDone; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := <-rcvDone; err != nil {
		t.Fatalf("Receive: %v", err)
	}

	checkReceived(t, filepath.Join(outDir, "big.bin"), data)
}

// E3: a file of exactly one block crosses with no padding at all.
func TestSessionExactBlockFile(t *testing.T) {
	data := pattern(filink.BlockSize)
	path := writeTemp(t, "exact.bin", data)
	outDir := t.TempDir()

	snd, rcv := newPipe()
	sndDone := startSender(snd, []string{path})
	rcvDone := startReceiver(rcv, outDir)

	if err := <-sndDone; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := <-rcvDone; err != nil {
		t.Fatalf("Receive: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "exact.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("content differs, got %d bytes want %d", len(got), len(data))
	}
}

// The paced-payload path must still produce an identical transfer.
func TestSessionWithByteDelay(t *testing.T) {
	data := pattern(64)
	path := writeTemp(t, "slow.bin", data)
	outDir := t.TempDir()

	snd, rcv := newPipe()
	sndDone := startSender(snd, []string{path}, filink.WithByteDelay(time.Millisecond))
	rcvDone := startReceiver(rcv, outDir)

	if err := <-sndDone; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := <-rcvDone; err != nil {
		t.Fatalf("Receive: %v", err)
	}

	checkReceived(t, filepath.Join(outDir, "slow.bin"), data)
}
