package main

import (
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/orion-emu/gbasup"
)

const (
	audioSampleRate      = 48000
	ringBufferCapacity   = 32768
	audioPlayerBufferLen = 19200
)

// demoAudio plays a tone whose pitch tracks the engine's frame counter,
// standing in for a real engine's generated samples (the toy engine has
// none). It still drives the supervisor's audio consumer handshake on a
// fixed tick so the protocol is exercised end to end.
type demoAudio struct {
	ctx    *gbasup.Context
	player *oto.Player
	ring   *audioRingBuffer
	stop   chan struct{}
}

func newDemoAudio(ctx *gbasup.Context) (*demoAudio, error) {
	op := &oto.NewContextOptions{
		SampleRate:   audioSampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	}
	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("gbasupdemo: oto context: %w", err)
	}
	<-ready

	ring := newAudioRingBuffer(ringBufferCapacity)
	player := otoCtx.NewPlayer(ring)
	player.SetBufferSize(audioPlayerBufferLen)
	player.SetVolume(0.2)
	player.Play()

	return &demoAudio{ctx: ctx, player: player, ring: ring, stop: make(chan struct{})}, nil
}

// run generates a tone and pushes it into the ring at roughly the pace
// oto drains it, pacing itself against the supervisor's audio consumer
// handshake exactly as a real audio thread would against produced
// samples.
func (a *demoAudio) run(frame func() uint64) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	samples := make([]int16, 0, audioSampleRate/50*2)
	var phase float64

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.ctx.LockAudio()
			a.ctx.ConsumeAudio()

			hz := 220.0 + float64(frame()%240)
			samples = samples[:0]
			for i := 0; i < audioSampleRate/50; i++ {
				phase += hz / audioSampleRate
				sample := int16(math.Sin(2*math.Pi*phase) * 4000)
				samples = append(samples, sample, sample)
			}
			a.ring.Write(int16ToBytes(samples))
		}
	}
}

func (a *demoAudio) close() {
	close(a.stop)
	a.ring.Close()
	a.player.Close()
}

func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
