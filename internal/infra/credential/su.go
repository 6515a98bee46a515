package credential

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

// DefaultSuTimeout bounds one su(1) verification.
const DefaultSuTimeout = 6 * time.Second

// suVerifier checks a password by running su(1) and answering its prompt.
type suVerifier func(ctx context.Context, user, password string) (bool, error)

// verifyWithSu runs `su -s /bin/sh -c true user` on a pseudo-terminal,
// writes password at the first prompt and reports whether su exited 0.
func verifyWithSu(timeout time.Duration) suVerifier {
	return func(ctx context.Context, user, password string) (bool, error) {
		if strings.TrimSpace(user) == "" {
			return false, nil
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "su", "-s", "/bin/sh", "-c", "true", user)
		f, err := pty.Start(cmd)
		if err != nil {
			return false, fmt.Errorf("start su: %w", err)
		}
		defer func() { _ = f.Close() }()

		var out bytes.Buffer
		prompted := false
		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			buf := make([]byte, 4096)
			for {
				_ = f.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
				n, rerr := f.Read(buf)
				if n > 0 {
					out.Write(buf[:n])
					if !prompted && strings.Contains(strings.ToLower(out.String()), "password") {
						prompted = true
						_, _ = io.WriteString(f, password+"\n")
					}
				}
				if errors.Is(rerr, os.ErrDeadlineExceeded) {
					continue
				}
				if rerr != nil {
					return
				}
			}
		}()

		err = cmd.Wait()
		_ = f.Close()
		<-readerDone

		if err == nil {
			return true, nil
		}
		if ctx.Err() != nil {
			return false, fmt.Errorf("su: %w", ctx.Err())
		}
		return false, nil
	}
}
