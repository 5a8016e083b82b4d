// audio.go - oto-backed SPU sample sink

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2026 gopsx contributors
https://github.com/intuitionamiga/gopsx
License: GPLv3 or later
*/

/*
audio.go - SPU sample sink

Adapted from the teacher's OtoPlayer: an oto.Context feeding an
oto.Player whose Read callback is the audio thread's hot path, reading
from a lock-free ring rather than blocking on the emulation goroutine.
The SPU itself (§9's ADPCM voices, reverb, volume envelopes) is an
explicit Non-goal; what ships here is the ambient plumbing a complete
console needs regardless - a place to push stereo samples and have them
reach the speakers - so PushSample writes a flat pass-through signal
into the ring and Read drains it.

The ring is sized for a few video frames of slack at sampleRate so a
momentarily slow audio callback never blocks Console.Step.
*/

package main

import (
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const sampleRate = 44100

// ringSamples is the spare capacity: ~4 video frames at 60Hz, stereo.
const ringSamples = sampleRate / 60 * 4

type stereoSample struct {
	left, right int16
}

// spu is the audioSink Console pushes samples into. It is safe for one
// writer (Console's goroutine) and one reader (oto's audio thread).
type spu struct {
	ring  []stereoSample
	write atomic.Uint64
	read  atomic.Uint64

	ctx    *oto.Context
	player *oto.Player
}

// newSPU opens an oto playback context at sampleRate and wires up a
// player reading from the sink's ring. Returns nil, err if no audio
// device is available; callers may run with a nil sink.
func newSPU() (*spu, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   0,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	s := &spu{ring: make([]stereoSample, ringSamples)}
	s.player = ctx.NewPlayer(s)
	s.ctx = ctx
	s.player.Play()
	return s, nil
}

// PushSample satisfies Console's audioSink port. A full ring drops the
// oldest unread sample rather than blocking the emulation goroutine.
func (s *spu) PushSample(left, right int16) {
	w := s.write.Load()
	if w-s.read.Load() >= uint64(len(s.ring)) {
		s.read.Add(1)
	}
	s.ring[w%uint64(len(s.ring))] = stereoSample{left, right}
	s.write.Add(1)
}

// Read implements io.Reader for oto.Player, emitting silence once the
// ring runs dry rather than blocking.
func (s *spu) Read(p []byte) (int, error) {
	n := len(p) / 4
	for i := 0; i < n; i++ {
		r := s.read.Load()
		var samp stereoSample
		if r < s.write.Load() {
			samp = s.ring[r%uint64(len(s.ring))]
			s.read.Add(1)
		}
		off := i * 4
		p[off+0] = byte(samp.left)
		p[off+1] = byte(samp.left >> 8)
		p[off+2] = byte(samp.right)
		p[off+3] = byte(samp.right >> 8)
	}
	return n * 4, nil
}

func (s *spu) Close() {
	if s.player != nil {
		s.player.Close()
	}
}
