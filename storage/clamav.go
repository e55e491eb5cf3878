package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"townreq-be/models"
	"townreq-be/services"
)

// ClamAVClassifier asks a clamd daemon for the scan verdict, streaming the
// stored object over the INSTREAM protocol. Only the two-valued verdict is
// kept; the signature name becomes the internal detail note.
type ClamAVClassifier struct {
	addr    string
	objects services.ObjectStore
	timeout time.Duration
}

func NewClamAVClassifier(addr string, objects services.ObjectStore) *ClamAVClassifier {
	return &ClamAVClassifier{addr: addr, objects: objects, timeout: 60 * time.Second}
}

func (c *ClamAVClassifier) Classify(ctx context.Context, key string) (models.ScanState, string, error) {
	obj, err := c.objects.Get(ctx, key)
	if err != nil {
		return models.ScanPending, "", err
	}
	defer obj.Close()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return models.ScanPending, "", err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return models.ScanPending, "", err
	}

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return models.ScanPending, "", err
	}

	// clamd wants length-prefixed chunks, terminated by a zero length.
	buf := make([]byte, 32*1024)
	prefix := make([]byte, 4)
	for {
		n, rerr := obj.Read(buf)
		if n > 0 {
			binary.BigEndian.PutUint32(prefix, uint32(n))
			if _, err := conn.Write(prefix); err != nil {
				return models.ScanPending, "", err
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				return models.ScanPending, "", err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return models.ScanPending, "", rerr
		}
	}
	binary.BigEndian.PutUint32(prefix, 0)
	if _, err := conn.Write(prefix); err != nil {
		return models.ScanPending, "", err
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return models.ScanPending, "", err
	}
	verdict := strings.TrimRight(string(reply), "\x00\n")

	switch {
	case strings.HasSuffix(verdict, "OK"):
		return models.ScanClean, "", nil
	case strings.HasSuffix(verdict, "FOUND"):
		// "stream: Eicar-Test-Signature FOUND"
		detail := strings.TrimSuffix(verdict, " FOUND")
		if i := strings.Index(detail, ": "); i >= 0 {
			detail = detail[i+2:]
		}
		return models.ScanInfected, detail, nil
	}
	return models.ScanPending, "", fmt.Errorf("unexpected clamd reply: %q", verdict)
}
