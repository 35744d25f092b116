//go:build dump

// Package dump optionally captures raw ciphertext and decoded PCM to disk
// for offline inspection. Compiled in only when built with the "dump"
// tag; otherwise [New] returns a no-op Dumper.
package dump

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dumper writes raw_<seq> and pcm_<seq> files under a directory.
type Dumper struct {
	dir string
}

// New returns a Dumper rooted at dir. An empty dir disables dumping.
func New(dir string) *Dumper {
	return &Dumper{dir: dir}
}

// Raw writes the undecrypted packet body for seq, if dumping is enabled.
func (d *Dumper) Raw(seq uint16, data []byte) {
	d.write("raw", seq, data)
}

// PCM writes the decoded frame for seq, if dumping is enabled.
func (d *Dumper) PCM(seq uint16, data []byte) {
	d.write("pcm", seq, data)
}

func (d *Dumper) write(kind string, seq uint16, data []byte) {
	if d.dir == "" {
		return
	}

	path := filepath.Join(d.dir, fmt.Sprintf("%s_%d", kind, seq))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		// Dumping is a debug aid; failures are silently ignored to avoid
		// disrupting the receive loop.
		return
	}
}
