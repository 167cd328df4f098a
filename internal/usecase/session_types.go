package usecase

import (
	"voicechat/internal/ports"
)

// recording owns the fragment buffer of one capture. The collector goroutine
// is its only writer; readers wait for done before touching fragments.
type recording struct {
	audio     ports.AudioSession
	fragments [][]byte
	done      chan struct{}
}

func newRecording(audio ports.AudioSession) *recording {
	return &recording{audio: audio, done: make(chan struct{})}
}

// finish stops the capture and waits until every fragment has been collected.
func (r *recording) finish() error {
	err := r.audio.Stop()
	<-r.done
	if closeErr := r.audio.Close(); err == nil {
		err = closeErr
	}
	return err
}

// drain hands out the collected fragments exactly once and clears the buffer.
func (r *recording) drain() [][]byte {
	<-r.done
	fragments := r.fragments
	r.fragments = nil
	return fragments
}
