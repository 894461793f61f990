// Package session drives request/response exchanges over one device link.
//
// A Session owns the transport and the single frame decoder instance fed
// from it (the decoder requires a single-reader discipline), correlates
// CoAP responses to requests by token, and dispatches out-of-band trace and
// announce frames to caller handlers instead of dropping them.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"sync/atomic"

	"github.com/cfgwire/cfgwire/internal/coap"
	"github.com/cfgwire/cfgwire/internal/mup1"
)

var (
	// ErrClosed is returned from exchanges after the link has shut down.
	ErrClosed = errors.New("session closed")
	// ErrMultiBlock marks a response whose Block2 option announces further
	// blocks. Multi-block reassembly is not supported; the first block is
	// still returned alongside the error.
	ErrMultiBlock = errors.New("multi-block response not supported")
)

// Handlers receives out-of-band frames. Nil fields are ignored.
type Handlers struct {
	Trace    func(text string) // 'T' frames: device trace output
	Announce func(text string) // 'A' frames: device hello / version banner
}

// Session is one host end of a device link. All exported methods are safe
// for concurrent use; writes are serialized internally and reads happen on
// a single background goroutine.
type Session struct {
	rw       io.ReadWriteCloser
	handlers Handlers

	wmu sync.Mutex // serializes frame writes

	mid atomic.Uint32

	pmu     sync.Mutex
	pending map[string]chan *coap.Message
	pongs   chan struct{}

	done    chan struct{}
	readErr error
}

// New starts a session over rw and begins reading frames. The session takes
// ownership of rw; Close releases it.
func New(rw io.ReadWriteCloser, handlers Handlers) *Session {
	s := &Session{
		rw:       rw,
		handlers: handlers,
		pending:  make(map[string]chan *coap.Message),
		pongs:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	// Random initial message ID so restarts don't collide with a device
	// still holding earlier IDs.
	s.mid.Store(uint32(mathrand.Intn(0x10000)))
	go s.readLoop()
	return s
}

// NextMessageID returns a fresh 16-bit message ID.
func (s *Session) NextMessageID() uint16 {
	return uint16(s.mid.Add(1))
}

// NewToken returns 8 random token bytes for correlating a response.
func (s *Session) NewToken() []byte {
	tok := make([]byte, 8)
	if _, err := rand.Read(tok); err != nil {
		panic(fmt.Sprintf("reading random token: %v", err))
	}
	return tok
}

// Exchange sends msg as a CoAP frame and waits for the response carrying
// the same token, honoring ctx cancellation. A single-block Block2 response
// is returned as-is; one announcing more blocks is returned together with
// ErrMultiBlock.
func (s *Session) Exchange(ctx context.Context, msg *coap.Message) (*coap.Message, error) {
	data, err := msg.Encode()
	if err != nil {
		return nil, err
	}

	key := string(msg.Token)
	ch := make(chan *coap.Message, 1)
	s.pmu.Lock()
	s.pending[key] = ch
	s.pmu.Unlock()
	defer func() {
		s.pmu.Lock()
		delete(s.pending, key)
		s.pmu.Unlock()
	}()

	if err := s.writeFrame(mup1.TypeCoAP, data); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		if blk, ok, berr := resp.Block2(); berr != nil {
			return resp, berr
		} else if ok && blk.More {
			return resp, fmt.Errorf("%w: block %d of size %d", ErrMultiBlock, blk.Num, blk.Size)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, s.closedErr()
	}
}

// Ping sends a ping frame and waits for the device's pong.
func (s *Session) Ping(ctx context.Context) error {
	// Drain a stale pong so we only accept one that answers this ping.
	select {
	case <-s.pongs:
	default:
	}
	if err := s.writeFrame(mup1.TypePing, nil); err != nil {
		return err
	}
	select {
	case <-s.pongs:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return s.closedErr()
	}
}

// Close shuts the transport down; the read loop exits and outstanding
// exchanges fail with ErrClosed.
func (s *Session) Close() error {
	return s.rw.Close()
}

func (s *Session) closedErr() error {
	if s.readErr != nil && s.readErr != io.EOF {
		return fmt.Errorf("%w: %v", ErrClosed, s.readErr)
	}
	return ErrClosed
}

func (s *Session) writeFrame(typ byte, payload []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.rw.Write(mup1.EncodeFrame(typ, payload)); err != nil {
		return fmt.Errorf("writing %c frame: %w", typ, err)
	}
	return nil
}

// readLoop feeds the decoder from the transport and dispatches every event.
// It is the sole reader of the stream and the sole user of the decoder.
func (s *Session) readLoop() {
	defer close(s.done)

	dec := mup1.NewDecoder()
	buf := make([]byte, 512)
	for {
		n, err := s.rw.Read(buf)
		for _, ev := range dec.Feed(buf[:n]) {
			s.dispatch(ev)
		}
		if err != nil {
			s.readErr = err
			if err != io.EOF {
				slog.Debug("link read ended", "err", err)
			}
			return
		}
	}
}

func (s *Session) dispatch(ev mup1.Event) {
	switch ev.Kind {
	case mup1.EventNoise:
		slog.Debug("unframed bytes on link", "len", len(ev.Noise), "data", fmt.Sprintf("%q", ev.Noise))
	case mup1.EventError:
		// Frame-layer errors are diagnostics: the decoder has resynced and
		// the stream keeps flowing.
		slog.Warn("frame error", "err", ev.Err)
	case mup1.EventFrame:
		s.dispatchFrame(ev.Frame)
	}
}

func (s *Session) dispatchFrame(f *mup1.Frame) {
	switch f.Type {
	case mup1.TypeCoAP:
		msg, err := coap.Decode(f.Payload)
		if err != nil {
			slog.Warn("undecodable coap frame", "err", err, "len", len(f.Payload))
			return
		}
		s.pmu.Lock()
		ch, ok := s.pending[string(msg.Token)]
		s.pmu.Unlock()
		if !ok {
			slog.Debug("response with no matching request", "msg", msg)
			return
		}
		select {
		case ch <- msg:
		default:
		}
	case mup1.TypePong:
		select {
		case s.pongs <- struct{}{}:
		default:
		}
	case mup1.TypeTrace:
		if s.handlers.Trace != nil {
			s.handlers.Trace(string(f.Payload))
		}
	case mup1.TypeAnnounce:
		slog.Debug("device announce", "text", string(f.Payload))
		if s.handlers.Announce != nil {
			s.handlers.Announce(string(f.Payload))
		}
	default:
		slog.Debug("frame with unknown type", "type", string(f.Type), "len", len(f.Payload))
	}
}
