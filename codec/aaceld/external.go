package aaceld

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/mycophonic/raop/codec"
)

// externalCmdEnv names the env var holding the external AAC-ELD decode
// command. The process is expected to read one ELD access unit per
// invocation on stdin and write raw interleaved LE 16-bit PCM to stdout,
// exiting after each frame. The access unit is written exactly as
// received: no length prefix and no LATM framing is added.
const externalCmdEnv = "RAOP_AACELD_EXTERNAL_CMD"

// externalDecoder decodes AAC-ELD by shelling out to an external
// LATM-aware decoder binary once per frame. Used when no native binding
// was built for the host platform.
type externalDecoder struct {
	cmdPath  string
	outBytes int
}

func newExternalDecoder() (codec.Decoder, error) {
	cmdName := os.Getenv(externalCmdEnv)
	if cmdName == "" {
		return nil, fmt.Errorf("aaceld: external: %s not set", externalCmdEnv)
	}

	path, err := exec.LookPath(cmdName)
	if err != nil {
		return nil, fmt.Errorf("aaceld: external: %w", err)
	}

	return &externalDecoder{cmdPath: path}, nil
}

func (e *externalDecoder) Configure(_, channels, bitDepth, frameLen int) error {
	e.outBytes = codec.OutputSize(frameLen, channels, bitDepth)

	return nil
}

func (e *externalDecoder) OutputSize() int {
	return e.outBytes
}

// Decode runs the external pipe once per frame: in on stdin, PCM on
// stdout. A fresh subprocess per frame trades throughput for isolation —
// a crashing decode never takes the session down with it.
func (e *externalDecoder) Decode(in []byte) ([]byte, error) {
	cmd := exec.Command(e.cmdPath)
	cmd.Stdin = bytes.NewReader(in)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("aaceld: external: %w: %s", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

func (e *externalDecoder) Close() error {
	return nil
}
