package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// collect reads capture fragments until the stream ends.
func (r *recording) collect(chunkSize int, onError func(error)) {
	defer close(r.done)

	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := r.audio.Read(buf)
		if n > 0 {
			fragment := make([]byte, n)
			copy(fragment, buf[:n])
			r.fragments = append(r.fragments, fragment)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				onError(fmt.Errorf("audio capture error: %w", err))
			}
			return
		}
	}
}
