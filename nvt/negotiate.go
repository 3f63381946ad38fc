package nvt

import (
	"io"
	"sync"
)

// Responder answers option negotiation on behalf of the modem. It agrees to
// binary transmission and suppress-go-ahead in both directions, offers to
// echo when asked, and refuses everything else. A refusal is sent at most
// once per option and direction so two refusing peers cannot loop.
type Responder struct {
	mu            sync.Mutex
	w             io.Writer
	local         map[byte]bool
	remote        map[byte]bool
	refusedLocal  map[byte]bool
	refusedRemote map[byte]bool
	err           error
}

// NewResponder returns a Responder that writes its replies to w.
func NewResponder(w io.Writer) *Responder {
	return &Responder{
		w:             w,
		local:         make(map[byte]bool),
		remote:        make(map[byte]bool),
		refusedLocal:  make(map[byte]bool),
		refusedRemote: make(map[byte]bool),
	}
}

func supportsLocal(opt byte) bool {
	switch opt {
	case OptBinary, OptSGA, OptEcho:
		return true
	}
	return false
}

func supportsRemote(opt byte) bool {
	switch opt {
	case OptBinary, OptSGA:
		return true
	}
	return false
}

func (r *Responder) send(verb, opt byte) {
	if r.err != nil {
		return
	}
	_, r.err = r.w.Write([]byte{IAC, verb, opt})
}

// Negotiate implements Negotiator.
func (r *Responder) Negotiate(verb, opt byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch verb {
	case DO:
		if supportsLocal(opt) {
			if !r.local[opt] {
				r.local[opt] = true
				r.send(WILL, opt)
			}
		} else if !r.refusedLocal[opt] {
			r.refusedLocal[opt] = true
			r.send(WONT, opt)
		}
	case DONT:
		if r.local[opt] {
			r.local[opt] = false
			r.send(WONT, opt)
		}
	case WILL:
		if supportsRemote(opt) {
			if !r.remote[opt] {
				r.remote[opt] = true
				r.send(DO, opt)
			}
		} else if !r.refusedRemote[opt] {
			r.refusedRemote[opt] = true
			r.send(DONT, opt)
		}
	case WONT:
		if r.remote[opt] {
			r.remote[opt] = false
			r.send(DONT, opt)
		}
	}
}

// Subnegotiate implements Negotiator. No option that needs subnegotiation
// is ever agreed to, so the payload is dropped.
func (r *Responder) Subnegotiate(option byte, data []byte) {}

// Local reports whether the modem has agreed to perform opt.
func (r *Responder) Local(opt byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local[opt]
}

// Remote reports whether the peer has been allowed to perform opt.
func (r *Responder) Remote(opt byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remote[opt]
}

// Err returns the first write error, if any.
func (r *Responder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
